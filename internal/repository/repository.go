// Package repository owns the bookmark and project collections.
//
// Each repository keeps an in-memory mirror of one persisted document.
// Mutations are applied to the mirror and written through to the store
// under the repository lock, so they are persisted in call order. A failed
// write is logged and the mirror keeps the new state for the rest of the
// session.
package repository

import (
	"time"

	"github.com/MrSnakeDoc/marks/internal/domain"
)

// Option customizes a repository.
type Option func(*options)

type options struct {
	now   func() time.Time
	newID func() string
	seed  bool
}

func defaultOptions() options {
	return options{
		now:   func() time.Time { return time.Now().UTC() },
		newID: domain.NewID,
		seed:  true,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator replaces the id generator.
func WithIDGenerator(newID func() string) Option {
	return func(o *options) { o.newID = newID }
}

// WithSeed controls whether a missing document is seeded with the starter
// dataset. When false the collection starts empty and nothing is written
// until the first mutation.
func WithSeed(seed bool) Option {
	return func(o *options) { o.seed = seed }
}
