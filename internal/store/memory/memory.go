package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/MrSnakeDoc/marks/internal/store"
)

// Store keeps documents in process memory. Nothing survives a restart.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte

	// FailWrites makes Set return an error; used to exercise soft failures.
	FailWrites error
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{data: make(map[string][]byte)}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return nil, store.ErrKeyNotFound
	}
	return slices.Clone(v), nil
}

func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWrites != nil {
		return s.FailWrites
	}
	s.data[key] = slices.Clone(value)
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// Put writes raw bytes, bypassing FailWrites. Tests use it to plant corrupt data.
func (s *Store) Put(key string, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = slices.Clone(value)
}

// Raw returns the stored bytes for key.
func (s *Store) Raw(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return slices.Clone(v), ok
}

// Names lists the stored keys, sorted.
func (s *Store) Names(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.data))
	for k := range s.data {
		names = append(names, k)
	}
	slices.Sort(names)
	return names, nil
}
