package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/MrSnakeDoc/marks/internal/store"
)

func TestDriverFor(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{url: "file:marks.db", want: "sqlite"},
		{url: "/tmp/marks.db", want: "sqlite"},
		{url: "libsql://marks-user.turso.io?authToken=x", want: "libsql"},
		{url: "wss://marks-user.turso.io", want: "libsql"},
	}
	for _, tt := range tests {
		if got := DriverFor(tt.url); got != tt.want {
			t.Errorf("DriverFor(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "marks.db")

	s, err := Open(ctx, "file:"+path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if _, err := s.Get(ctx, "bookmarks"); !errors.Is(err, store.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}

	if err := s.Set(ctx, "bookmarks", []byte(`[{"id":"1"}]`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, "bookmarks", []byte(`[{"id":"2"}]`)); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	if err := s.Set(ctx, "bookmark-projects", []byte(`[]`)); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := s.Get(ctx, "bookmarks")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `[{"id":"2"}]` {
		t.Errorf("Get = %s, want overwritten value", got)
	}

	names, err := s.Names(ctx)
	if err != nil {
		t.Fatalf("Names: %v", err)
	}
	if len(names) != 2 || names[0] != "bookmark-projects" || names[1] != "bookmarks" {
		t.Errorf("Names = %v", names)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Data survives a reopen and the migration is idempotent.
	s2, err := Open(ctx, "file:"+path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = s2.Close() }()

	got, err = s2.Get(ctx, "bookmarks")
	if err != nil || string(got) != `[{"id":"2"}]` {
		t.Errorf("after reopen Get = %s, %v", got, err)
	}
}
