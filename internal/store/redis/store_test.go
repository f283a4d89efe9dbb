package redis

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/marks/internal/store"
)

func TestDocumentKeys(t *testing.T) {
	if got := DocumentKey("bookmarks"); got != "marks:doc:bookmarks" {
		t.Errorf("DocumentKey() = %q", got)
	}

	tests := []struct {
		key     string
		want    string
		wantErr bool
	}{
		{key: "marks:doc:bookmark-projects", want: "bookmark-projects"},
		{key: "marks:doc:", wantErr: true},
		{key: "other:doc:bookmarks", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := ExtractDocumentName(tt.key)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExtractDocumentName() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ExtractDocumentName() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestStoreAgainstRedis needs a disposable Redis; set MARKS_TEST_REDIS_ADDR to run it.
func TestStoreAgainstRedis(t *testing.T) {
	addr := os.Getenv("MARKS_TEST_REDIS_ADDR")
	if addr == "" || testing.Short() {
		t.Skip("MARKS_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	s := NewStore(client)
	defer func() { _ = s.Close() }()

	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	if _, err := s.Get(ctx, "bookmarks"); !errors.Is(err, store.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
	if err := s.Set(ctx, "bookmarks", []byte(`[]`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get(ctx, "bookmarks")
	if err != nil || string(got) != "[]" {
		t.Fatalf("Get = %q, %v", got, err)
	}
	names, err := s.Names(ctx)
	if err != nil || len(names) != 1 || names[0] != "bookmarks" {
		t.Errorf("Names = %v, %v", names, err)
	}
}
