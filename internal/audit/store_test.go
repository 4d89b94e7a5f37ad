package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	entries := []Entry{
		{Method: "POST", Route: "/fs/write", Status: 403, Kind: "forbidden", Time: time.Now().Add(-time.Minute)},
		{Method: "GET", Route: "/fs/ls", Status: 200, Kind: "ok", Time: time.Now()},
	}
	for _, entry := range entries {
		if err := store.Record(ctx, entry); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	got, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("entries = %d, want 2", len(got))
	}

	// Newest first.
	if got[0].Route != "/fs/ls" || got[1].Route != "/fs/write" {
		t.Errorf("unexpected order: %s, %s", got[0].Route, got[1].Route)
	}
	if got[1].Kind != "forbidden" || got[1].Status != 403 {
		t.Errorf("forbidden entry mangled: %+v", got[1])
	}
	if got[0].ID == "" {
		t.Error("entry ID not generated")
	}
}

func TestRecentLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		entry := Entry{
			Method: "GET",
			Route:  "/health",
			Status: 200,
			Kind:   "ok",
			Time:   time.Now().Add(time.Duration(i) * time.Second),
		}
		if err := store.Record(ctx, entry); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	got, err := store.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("entries = %d, want 3", len(got))
	}
}

func TestOpenIsIdempotentOnSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")

	store, err := Open(path)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	if err := store.Record(context.Background(), Entry{Method: "GET", Route: "/health", Status: 200, Kind: "ok"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	store.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("entries after reopen = %d, want 1", len(got))
	}
}
