package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/marks/internal/logger"
)

// ErrKeyNotFound is returned by KV.Get for a key that was never written.
var ErrKeyNotFound = errors.New("key not found")

// KV is a minimal key-value blob store. Backends: sqlite, redis, memory.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Ping(ctx context.Context) error
	Close() error
}

// Lister is implemented by backends that can enumerate their keys.
type Lister interface {
	Names(ctx context.Context) ([]string, error)
}

// Document is a JSON value persisted under a single key.
//
// Load fails soft: a missing key persists and returns the default, a corrupt
// value is logged and the default returned without overwriting the stored
// bytes. Save logs failures and returns them; callers decide whether the
// failure is fatal.
type Document[T any] struct {
	kv       KV
	key      string
	log      logger.Logger
	defaults func() T
	seed     bool
}

// NewDocument binds key on kv. defaults builds the fallback value.
// When seed is false a missing key returns the default without persisting it.
func NewDocument[T any](kv KV, key string, log logger.Logger, defaults func() T, seed bool) *Document[T] {
	return &Document[T]{
		kv:       kv,
		key:      key,
		log:      log,
		defaults: defaults,
		seed:     seed,
	}
}

// Key returns the document key.
func (d *Document[T]) Key() string { return d.key }

// Load reads the document, falling back to the default.
func (d *Document[T]) Load(ctx context.Context) T {
	data, err := d.kv.Get(ctx, d.key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			d.log.Info("document not found, using defaults",
				logger.String("key", d.key),
				logger.Bool("seed", d.seed))
			v := d.defaults()
			if d.seed {
				_ = d.Save(ctx, v)
			}
			return v
		}
		d.log.Error("failed to read document, using defaults",
			logger.String("key", d.key),
			logger.Error(err))
		return d.defaults()
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		// Keep the corrupt bytes in place so they can be recovered by hand.
		d.log.Error("corrupt document, using defaults without overwriting",
			logger.String("key", d.key),
			logger.Int("bytes", len(data)),
			logger.Error(err))
		return d.defaults()
	}
	return v
}

// Save serializes v and writes it under the document key.
func (d *Document[T]) Save(ctx context.Context, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		d.log.Error("failed to marshal document",
			logger.String("key", d.key),
			logger.Error(err))
		return fmt.Errorf("failed to marshal %s: %w", d.key, err)
	}
	if err := d.kv.Set(ctx, d.key, data); err != nil {
		d.log.Error("failed to save document",
			logger.String("key", d.key),
			logger.Error(err))
		return fmt.Errorf("failed to save %s: %w", d.key, err)
	}
	return nil
}
