package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Well-known document names.
const (
	DocTasks    = "tasks"
	DocProgress = "progress"
	DocSettings = "settings"
	DocCalendar = "calendar"
	DocChat     = "chat"
)

type Document struct {
	Name      string
	Version   int
	Data      []byte
	UpdatedAt time.Time
}

type DocRepo struct {
	db *sql.DB
}

func NewDocRepo(db *sql.DB) *DocRepo {
	return &DocRepo{db: db}
}

// Get returns the named document, or nil if it has never been written.
func (r *DocRepo) Get(ctx context.Context, name string) (*Document, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT name, version, data, updated_at
		FROM documents
		WHERE name = ?
	`, name)

	var d Document
	if err := row.Scan(&d.Name, &d.Version, &d.Data, &d.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("document get: %w", err)
	}
	return &d, nil
}

// Put upserts the named document.
func (r *DocRepo) Put(ctx context.Context, name string, version int, data []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO documents (name, version, data, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET
			version = excluded.version,
			data = excluded.data,
			updated_at = CURRENT_TIMESTAMP
	`, name, version, data)
	if err != nil {
		return fmt.Errorf("document put: %w", err)
	}
	return nil
}

// PutAll writes several documents in a single transaction. Either every
// document lands or none does; import relies on this.
func (r *DocRepo) PutAll(ctx context.Context, docs []Document) error {
	return WithTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, d := range docs {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO documents (name, version, data, updated_at)
				VALUES (?, ?, ?, CURRENT_TIMESTAMP)
				ON CONFLICT(name) DO UPDATE SET
					version = excluded.version,
					data = excluded.data,
					updated_at = CURRENT_TIMESTAMP
			`, d.Name, d.Version, d.Data)
			if err != nil {
				return fmt.Errorf("document put %q: %w", d.Name, err)
			}
		}
		return nil
	})
}

// Delete removes the named document. Deleting a missing document is not an
// error.
func (r *DocRepo) Delete(ctx context.Context, name string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE name = ?`, name); err != nil {
		return fmt.Errorf("document delete: %w", err)
	}
	return nil
}

// Names lists the stored document names.
func (r *DocRepo) Names(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM documents ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("document names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("document names scan: %w", err)
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("document names rows: %w", err)
	}
	return names, nil
}
