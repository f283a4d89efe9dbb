package repository

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/MrSnakeDoc/marks/internal/codec"
	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/logger"
	"github.com/MrSnakeDoc/marks/internal/store"
)

// BookmarkRepository manages the bookmark collection.
type BookmarkRepository struct {
	mu    sync.RWMutex
	items []domain.Bookmark
	doc   *store.Document[[]domain.Bookmark]
	log   logger.Logger
	opts  options
}

// NewBookmarkRepository loads the collection stored under key.
func NewBookmarkRepository(ctx context.Context, kv store.KV, key string, log logger.Logger, opts ...Option) *BookmarkRepository {
	o := buildOptions(opts)
	log = log.With(logger.Component("bookmarks"))

	defaults := func() []domain.Bookmark {
		if o.seed {
			return domain.DefaultBookmarks(o.now())
		}
		return []domain.Bookmark{}
	}

	r := &BookmarkRepository{
		doc:  store.NewDocument(kv, key, log, defaults, o.seed),
		log:  log,
		opts: o,
	}
	r.items = r.doc.Load(ctx)
	for i := range r.items {
		r.items[i].Tags = domain.UniqueTags(r.items[i].Tags)
	}

	log.Info("bookmarks loaded", logger.Int("count", len(r.items)))
	return r
}

// commit replaces the mirror and writes it through. Must hold r.mu.
func (r *BookmarkRepository) commit(ctx context.Context, next []domain.Bookmark) {
	r.items = next
	if err := r.doc.Save(ctx, next); err != nil {
		r.log.Warn("keeping unsaved bookmark changes in memory", logger.Error(err))
	}
}

func (r *BookmarkRepository) indexOf(id string) int {
	return slices.IndexFunc(r.items, func(b domain.Bookmark) bool { return b.ID == id })
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, domain.ErrNotFound)
}

// Add creates a bookmark and returns its id.
func (r *BookmarkRepository) Add(ctx context.Context, in domain.BookmarkInput) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	b := domain.NewBookmark(r.opts.newID(), in, r.opts.now())
	next := append(slices.Clone(r.items), b)
	r.commit(ctx, next)

	r.log.Debug("bookmark added", logger.String("id", b.ID), logger.String("url", b.URL))
	return b.ID, nil
}

// Update applies patch to the bookmark id.
func (r *BookmarkRepository) Update(ctx context.Context, id string, patch domain.BookmarkPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return notFound("bookmark", id)
	}
	if patch.IsEmpty() {
		return nil
	}

	next := slices.Clone(r.items)
	b := next[i].Clone()
	patch.Apply(&b)
	next[i] = b
	r.commit(ctx, next)
	return nil
}

// UpdateMany applies every patch in one persisted batch and returns how
// many bookmarks changed. Unknown ids are skipped.
func (r *BookmarkRepository) UpdateMany(ctx context.Context, patches map[string]domain.BookmarkPatch) (int, error) {
	for id, p := range patches {
		if err := p.Validate(); err != nil {
			return 0, fmt.Errorf("bookmark %q: %w", id, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	next := slices.Clone(r.items)
	updated := 0
	for i := range next {
		p, ok := patches[next[i].ID]
		if !ok || p.IsEmpty() {
			continue
		}
		b := next[i].Clone()
		p.Apply(&b)
		next[i] = b
		updated++
	}
	if updated > 0 {
		r.commit(ctx, next)
	}
	return updated, nil
}

// ToggleFavorite flips the favorite flag of id.
func (r *BookmarkRepository) ToggleFavorite(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return notFound("bookmark", id)
	}
	next := slices.Clone(r.items)
	next[i].IsFavorite = !next[i].IsFavorite
	r.commit(ctx, next)
	return nil
}

// Delete removes the bookmark id. Project references are left to the caller.
func (r *BookmarkRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return notFound("bookmark", id)
	}
	r.commit(ctx, slices.Delete(slices.Clone(r.items), i, i+1))
	return nil
}

// DeleteMany removes every listed bookmark in one batch and returns the
// number removed.
func (r *BookmarkRepository) DeleteMany(ctx context.Context, ids []string) int {
	if len(ids) == 0 {
		return 0
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	next := make([]domain.Bookmark, 0, len(r.items))
	for _, b := range r.items {
		if _, ok := drop[b.ID]; !ok {
			next = append(next, b)
		}
	}
	removed := len(r.items) - len(next)
	if removed > 0 {
		r.commit(ctx, next)
	}
	return removed
}

// DeleteAll empties the collection and returns how many were removed.
func (r *BookmarkRepository) DeleteAll(ctx context.Context) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := len(r.items)
	r.commit(ctx, []domain.Bookmark{})
	r.log.Info("all bookmarks deleted", logger.Int("count", removed))
	return removed
}

// Import reads a bookmark file and appends its records in one batch.
// The format is chosen from the filename extension. Missing or colliding
// ids are regenerated and missing creation times set to now.
func (r *BookmarkRepository) Import(ctx context.Context, filename string, src io.Reader) (int, error) {
	format, err := codec.DetectFormat(filename)
	if err != nil {
		return 0, err
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	imported, err := codec.DecodeBookmarks(format, data)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.opts.now()
	taken := make(map[string]struct{}, len(r.items)+len(imported))
	for _, b := range r.items {
		taken[b.ID] = struct{}{}
	}
	for i := range imported {
		b := &imported[i]
		if _, dup := taken[b.ID]; b.ID == "" || dup {
			b.ID = r.opts.newID()
		}
		taken[b.ID] = struct{}{}
		if b.CreatedAt.IsZero() {
			b.CreatedAt = now
		}
		b.Tags = domain.UniqueTags(b.Tags)
	}

	if len(imported) > 0 {
		r.commit(ctx, append(slices.Clone(r.items), imported...))
	}

	r.log.Info("bookmarks imported",
		logger.String("file", filename),
		logger.String("format", string(format)),
		logger.Int("count", len(imported)))
	return len(imported), nil
}

// Export writes the whole collection to w.
func (r *BookmarkRepository) Export(format codec.Format, w io.Writer) error {
	return codec.EncodeBookmarks(w, format, r.All())
}

// Get returns a copy of the bookmark id.
func (r *BookmarkRepository) Get(id string) (domain.Bookmark, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return domain.Bookmark{}, notFound("bookmark", id)
	}
	return r.items[i].Clone(), nil
}

// GetMany returns the listed bookmarks in collection order. Unknown ids are
// dropped.
func (r *BookmarkRepository) GetMany(ids []string) []domain.Bookmark {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Bookmark, 0, len(ids))
	for _, b := range r.items {
		if _, ok := want[b.ID]; ok {
			out = append(out, b.Clone())
		}
	}
	return out
}

// Exists reports whether id is in the collection.
func (r *BookmarkRepository) Exists(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.indexOf(id) >= 0
}

// IDs returns the set of bookmark ids.
func (r *BookmarkRepository) IDs() map[string]struct{} {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]struct{}, len(r.items))
	for _, b := range r.items {
		out[b.ID] = struct{}{}
	}
	return out
}

// All returns a deep copy of the collection.
func (r *BookmarkRepository) All() []domain.Bookmark {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Bookmark, len(r.items))
	for i, b := range r.items {
		out[i] = b.Clone()
	}
	return out
}

// Len returns the collection size.
func (r *BookmarkRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

func (r *BookmarkRepository) Categories() []string { return domain.Categories(r.All()) }

func (r *BookmarkRepository) Tags() []string { return domain.Tags(r.All()) }

func (r *BookmarkRepository) Counts() domain.BookmarkCounts { return domain.CountBookmarks(r.All()) }

// Filter returns the bookmarks matching f.
func (r *BookmarkRepository) Filter(f domain.Filter) []domain.Bookmark {
	return domain.FilterBookmarks(r.All(), f)
}

// Duplicates groups the collection by url, then by title.
func (r *BookmarkRepository) Duplicates() []domain.DuplicateGroup {
	return domain.FindDuplicates(r.All())
}

// Search ranks the collection by relevance to query, keeping at most limit
// results (all when limit <= 0).
func (r *BookmarkRepository) Search(query string, limit int) []domain.RankedBookmark {
	ranked := domain.RankBookmarks(query, r.All())
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
