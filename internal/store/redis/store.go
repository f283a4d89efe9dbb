package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/marks/internal/store"
)

// Store persists documents as plain Redis strings. Documents never expire.
type Store struct {
	client *redis.Client
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Get retrieves a document by name
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	data, err := s.client.Get(ctx, DocumentKey(name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, store.ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to get document %s: %w", name, err)
	}
	return data, nil
}

// Set stores a document and records its name in the index set
func (s *Store) Set(ctx context.Context, name string, value []byte) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, DocumentKey(name), value, 0)
	pipe.SAdd(ctx, AllDocumentsKey(), name)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save document %s: %w", name, err)
	}
	return nil
}

// Names lists every stored document name, sorted
func (s *Store) Names(ctx context.Context) ([]string, error) {
	names, err := s.client.SMembers(ctx, AllDocumentsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client
func (s *Store) Close() error {
	return s.client.Close()
}
