// Package backup exports and restores the app's persisted documents as one
// JSON bundle. Raw document bytes go in and come out untouched, so an
// export/import cycle is lossless.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/realQhimself/dopamine-app/internal/storage"
)

const bundleVersion = 1

// exportedDocs are the documents included in a bundle. Calendar and chat are
// excluded: tokens should not travel in plain-text backups and transcripts
// are disposable.
var exportedDocs = []string{storage.DocTasks, storage.DocProgress, storage.DocSettings}

type Bundle struct {
	Version    int                        `json:"version"`
	ExportedAt time.Time                  `json:"exportedAt"`
	Documents  map[string]json.RawMessage `json:"documents"`
}

// Export collects the current documents into a bundle. Missing documents are
// skipped rather than written as empty entries.
func Export(ctx context.Context, docs *storage.DocRepo, now time.Time) (*Bundle, error) {
	b := &Bundle{
		Version:    bundleVersion,
		ExportedAt: now.UTC(),
		Documents:  make(map[string]json.RawMessage, len(exportedDocs)),
	}
	for _, name := range exportedDocs {
		doc, err := docs.Get(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		if doc == nil {
			continue
		}
		b.Documents[name] = json.RawMessage(doc.Data)
	}
	return b, nil
}

// WriteFile marshals the bundle and writes it atomically.
func WriteFile(b *Bundle, path string) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("encode bundle: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".backup-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

// ReadFile loads and validates a bundle from disk.
func ReadFile(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse validates a bundle without touching storage. Every document must be
// well-formed JSON; any defect rejects the whole bundle.
func Parse(data []byte) (*Bundle, error) {
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	if b.Version <= 0 || b.Version > bundleVersion {
		return nil, fmt.Errorf("unsupported bundle version %d", b.Version)
	}
	if b.Documents == nil {
		return nil, fmt.Errorf("bundle has no documents")
	}
	for name, raw := range b.Documents {
		if !allowedDoc(name) {
			return nil, fmt.Errorf("unexpected document %q in bundle", name)
		}
		if !json.Valid(raw) {
			return nil, fmt.Errorf("document %q is not valid JSON", name)
		}
	}
	return &b, nil
}

// Import writes a validated bundle's documents in one transaction. Nothing is
// written unless the whole bundle applies.
func Import(ctx context.Context, docs *storage.DocRepo, b *Bundle) error {
	batch := make([]storage.Document, 0, len(b.Documents))
	for name, raw := range b.Documents {
		batch = append(batch, storage.Document{
			Name:    name,
			Version: b.Version,
			Data:    []byte(raw),
		})
	}
	if err := docs.PutAll(ctx, batch); err != nil {
		return fmt.Errorf("apply bundle: %w", err)
	}
	return nil
}

func allowedDoc(name string) bool {
	for _, n := range exportedDocs {
		if n == name {
			return true
		}
	}
	return false
}
