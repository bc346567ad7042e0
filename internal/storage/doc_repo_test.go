package storage

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
)

func newTestRepo(t *testing.T) *DocRepo {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewDocRepo(db)
}

func TestGetMissingReturnsNil(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	doc, err := r.Get(ctx, DocTasks)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if doc != nil {
		t.Fatalf("missing doc=%+v, want nil", doc)
	}
}

func TestPutUpsertsInPlace(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	if err := r.Put(ctx, DocTasks, 1, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := r.Put(ctx, DocTasks, 2, []byte(`{"a":2}`)); err != nil {
		t.Fatalf("Put again: %v", err)
	}

	doc, err := r.Get(ctx, DocTasks)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if doc.Version != 2 || !bytes.Equal(doc.Data, []byte(`{"a":2}`)) {
		t.Fatalf("doc=%+v, want the second write", doc)
	}

	names, err := r.Names(ctx)
	if err != nil {
		t.Fatalf("Names: %v", err)
	}
	if len(names) != 1 {
		t.Fatalf("names=%v, want a single row after upsert", names)
	}
}

func TestPutAllIsTransactional(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	docs := []Document{
		{Name: DocTasks, Version: 1, Data: []byte(`{"tasks":[]}`)},
		{Name: DocProgress, Version: 1, Data: []byte(`{"totalXP":5}`)},
	}
	if err := r.PutAll(ctx, docs); err != nil {
		t.Fatalf("PutAll: %v", err)
	}

	for _, want := range docs {
		got, err := r.Get(ctx, want.Name)
		if err != nil {
			t.Fatalf("Get %s: %v", want.Name, err)
		}
		if got == nil || !bytes.Equal(got.Data, want.Data) {
			t.Fatalf("Get %s=%+v, want %q", want.Name, got, want.Data)
		}
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	r.Put(ctx, DocChat, 1, []byte(`{}`))
	if err := r.Delete(ctx, DocChat); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	doc, _ := r.Get(ctx, DocChat)
	if doc != nil {
		t.Fatal("doc should be gone after Delete")
	}
	// Deleting a missing doc is fine.
	if err := r.Delete(ctx, DocChat); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}
}
