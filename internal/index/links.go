package index

import (
	"sync"
	"time"

	"github.com/MrSnakeDoc/marks/internal/domain"
)

// LinkIndex keeps the latest link-check result per bookmark in memory.
// Results are derived data and never persisted.
type LinkIndex struct {
	mu      sync.RWMutex
	results map[string]domain.LinkCheckResult // bookmark ID -> result
	order   []string                          // bookmark IDs in check order
	lastRun time.Time                         // completion time of the last run
	running bool
}

// NewLinkIndex creates an empty index.
func NewLinkIndex() *LinkIndex {
	return &LinkIndex{
		results: make(map[string]domain.LinkCheckResult),
	}
}

// TryBegin marks a run as started. It returns false when one is already
// in progress.
func (idx *LinkIndex) TryBegin() bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.running {
		return false
	}
	idx.running = true
	return true
}

// End clears the running flag.
func (idx *LinkIndex) End() {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.running = false
}

// Running reports whether a run is in progress.
func (idx *LinkIndex) Running() bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.running
}

// Replace drops every stored result and stores rs.
func (idx *LinkIndex) Replace(rs []domain.LinkCheckResult, at time.Time) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.results = make(map[string]domain.LinkCheckResult, len(rs))
	idx.order = make([]string, 0, len(rs))
	idx.put(rs)
	idx.lastRun = at
}

// Merge stores rs over the existing results, used for partial runs.
func (idx *LinkIndex) Merge(rs []domain.LinkCheckResult, at time.Time) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.put(rs)
	idx.lastRun = at
}

func (idx *LinkIndex) put(rs []domain.LinkCheckResult) {
	for _, r := range rs {
		if _, ok := idx.results[r.BookmarkID]; !ok {
			idx.order = append(idx.order, r.BookmarkID)
		}
		idx.results[r.BookmarkID] = r
	}
}

// Get returns the stored result for a bookmark.
func (idx *LinkIndex) Get(bookmarkID string) (domain.LinkCheckResult, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	r, ok := idx.results[bookmarkID]
	return r, ok
}

// All returns the stored results in check order.
func (idx *LinkIndex) All() []domain.LinkCheckResult {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]domain.LinkCheckResult, 0, len(idx.order))
	for _, id := range idx.order {
		out = append(out, idx.results[id])
	}
	return out
}

// Broken returns the bookmark ids whose last result is not working.
func (idx *LinkIndex) Broken() []string {
	return domain.BrokenBookmarkIDs(idx.All())
}

// Summary counts the stored results per verdict.
func (idx *LinkIndex) Summary() domain.LinkSummary {
	return domain.SummarizeLinks(idx.All())
}

// Forget removes the results of deleted bookmarks.
func (idx *LinkIndex) Forget(bookmarkIDs ...string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	drop := make(map[string]struct{}, len(bookmarkIDs))
	for _, id := range bookmarkIDs {
		if _, ok := idx.results[id]; ok {
			drop[id] = struct{}{}
			delete(idx.results, id)
		}
	}
	if len(drop) == 0 {
		return
	}
	kept := idx.order[:0]
	for _, id := range idx.order {
		if _, ok := drop[id]; !ok {
			kept = append(kept, id)
		}
	}
	idx.order = kept
}

// Count returns the number of stored results.
func (idx *LinkIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.results)
}

// LastRun returns the completion time of the last run.
func (idx *LinkIndex) LastRun() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.lastRun
}
