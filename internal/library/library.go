// Package library composes the bookmark and project repositories into the
// single handle used by the CLI, the API and the background jobs. It owns
// every operation that touches both collections.
package library

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/index"
	"github.com/MrSnakeDoc/marks/internal/linkcheck"
	"github.com/MrSnakeDoc/marks/internal/logger"
	"github.com/MrSnakeDoc/marks/internal/repository"
)

// ErrCheckRunning is returned when a link check is requested while another
// one is still running.
var ErrCheckRunning = errors.New("a link check is already running")

// Library is the explicit store handle.
type Library struct {
	Bookmarks *repository.BookmarkRepository
	Projects  *repository.ProjectRepository
	Links     *index.LinkIndex

	checker *linkcheck.Checker
	log     logger.Logger
}

// New wires a Library. checker may be nil when link checks are not needed.
func New(bookmarks *repository.BookmarkRepository, projects *repository.ProjectRepository, checker *linkcheck.Checker, log logger.Logger) *Library {
	return &Library{
		Bookmarks: bookmarks,
		Projects:  projects,
		Links:     index.NewLinkIndex(),
		checker:   checker,
		log:       log.With(logger.Component("library")),
	}
}

// ─────────────────────────────────────────────────────────────────
// Cascading deletes
// ─────────────────────────────────────────────────────────────────

// DeleteBookmark removes a bookmark and every project reference to it.
func (l *Library) DeleteBookmark(ctx context.Context, id string) error {
	if err := l.Bookmarks.Delete(ctx, id); err != nil {
		return err
	}
	l.Projects.RemoveBookmarkRefs(ctx, id)
	l.Links.Forget(id)
	return nil
}

// DeleteBookmarks removes the listed bookmarks and their references and
// returns how many bookmarks were removed.
func (l *Library) DeleteBookmarks(ctx context.Context, ids []string) int {
	removed := l.Bookmarks.DeleteMany(ctx, ids)
	if removed > 0 {
		refs := l.Projects.RemoveBookmarkRefs(ctx, ids...)
		l.Links.Forget(ids...)
		l.log.Info("bookmarks deleted",
			logger.Int("count", removed),
			logger.Int("refs", refs))
	}
	return removed
}

// DeleteAllBookmarks empties the bookmark collection and clears every
// project reference.
func (l *Library) DeleteAllBookmarks(ctx context.Context) int {
	removed := l.Bookmarks.DeleteAll(ctx)
	l.Projects.RetainBookmarkRefs(ctx, func(string) bool { return false })
	l.Links.Replace(nil, time.Time{})
	return removed
}

// RemoveDuplicates resolves every duplicate group with strategy and deletes
// the losers.
func (l *Library) RemoveDuplicates(ctx context.Context, strategy domain.KeepStrategy) ([]string, int) {
	ids := domain.ResolveAll(l.Bookmarks.Duplicates(), strategy)
	return ids, l.DeleteBookmarks(ctx, ids)
}

// ─────────────────────────────────────────────────────────────────
// Batch edits
// ─────────────────────────────────────────────────────────────────

// BatchTag adds tags to every listed bookmark.
func (l *Library) BatchTag(ctx context.Context, ids []string, tags []string) (int, error) {
	tags = domain.UniqueTags(tags)
	if len(tags) == 0 {
		return 0, fmt.Errorf("%w: at least one tag is required", domain.ErrValidation)
	}
	patches := make(map[string]domain.BookmarkPatch, len(ids))
	for _, b := range l.Bookmarks.GetMany(ids) {
		merged := domain.MergeTags(b.Tags, tags)
		patches[b.ID] = domain.BookmarkPatch{Tags: &merged}
	}
	return l.Bookmarks.UpdateMany(ctx, patches)
}

// BatchCategory moves every listed bookmark to category.
func (l *Library) BatchCategory(ctx context.Context, ids []string, category string) (int, error) {
	if category == "" {
		return 0, fmt.Errorf("%w: category is required", domain.ErrValidation)
	}
	return l.batch(ctx, ids, domain.BookmarkPatch{Category: &category})
}

// BatchFavorite sets the favorite flag on every listed bookmark.
func (l *Library) BatchFavorite(ctx context.Context, ids []string, favorite bool) (int, error) {
	return l.batch(ctx, ids, domain.BookmarkPatch{IsFavorite: &favorite})
}

func (l *Library) batch(ctx context.Context, ids []string, p domain.BookmarkPatch) (int, error) {
	patches := make(map[string]domain.BookmarkPatch, len(ids))
	for _, id := range ids {
		patches[id] = p
	}
	return l.Bookmarks.UpdateMany(ctx, patches)
}

// ─────────────────────────────────────────────────────────────────
// Projects and their bookmarks
// ─────────────────────────────────────────────────────────────────

// CreateBookmarkInProject adds a bookmark and links it to a project.
func (l *Library) CreateBookmarkInProject(ctx context.Context, projectID string, in domain.BookmarkInput) (string, error) {
	if _, err := l.Projects.Get(projectID); err != nil {
		return "", err
	}
	id, err := l.Bookmarks.Add(ctx, in)
	if err != nil {
		return "", err
	}
	if err := l.Projects.AddBookmarkRef(ctx, projectID, id); err != nil {
		return "", err
	}
	return id, nil
}

// LinkBookmarks links every listed bookmark to a project. Unknown bookmark
// ids are rejected before anything is linked.
func (l *Library) LinkBookmarks(ctx context.Context, projectID string, bookmarkIDs ...string) error {
	if _, err := l.Projects.Get(projectID); err != nil {
		return err
	}
	for _, id := range bookmarkIDs {
		if !l.Bookmarks.Exists(id) {
			return fmt.Errorf("bookmark %q: %w", id, domain.ErrNotFound)
		}
	}
	for _, id := range bookmarkIDs {
		if err := l.Projects.AddBookmarkRef(ctx, projectID, id); err != nil {
			return err
		}
	}
	return nil
}

// ProjectBookmarks resolves the references of a project, dropping ids that
// no longer exist.
func (l *Library) ProjectBookmarks(projectID string) ([]domain.Bookmark, error) {
	p, err := l.Projects.Get(projectID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Bookmark, len(p.Bookmarks))
	for _, b := range l.Bookmarks.GetMany(p.Bookmarks) {
		byID[b.ID] = b
	}
	out := make([]domain.Bookmark, 0, len(p.Bookmarks))
	for _, id := range p.Bookmarks {
		if b, ok := byID[id]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

// DanglingRefs maps project ids to the bookmark ids they reference that no
// longer exist.
func (l *Library) DanglingRefs() map[string][]string {
	existing := l.Bookmarks.IDs()
	out := make(map[string][]string)
	for _, p := range l.Projects.All() {
		for _, id := range p.Bookmarks {
			if _, ok := existing[id]; !ok {
				out[p.ID] = append(out[p.ID], id)
			}
		}
	}
	return out
}

// PruneDanglingRefs removes every reference to a missing bookmark and
// returns how many were removed.
func (l *Library) PruneDanglingRefs(ctx context.Context) int {
	existing := l.Bookmarks.IDs()
	removed := l.Projects.RetainBookmarkRefs(ctx, func(id string) bool {
		_, ok := existing[id]
		return ok
	})
	if removed > 0 {
		l.log.Info("dangling project references pruned", logger.Int("count", removed))
	}
	return removed
}

// ─────────────────────────────────────────────────────────────────
// Link health
// ─────────────────────────────────────────────────────────────────

// CheckLinks checks the listed bookmarks, or all of them when ids is
// empty, and records the results. Only one check runs at a time.
func (l *Library) CheckLinks(ctx context.Context, ids []string, progress func(done, total int)) ([]domain.LinkCheckResult, error) {
	if l.checker == nil {
		return nil, errors.New("link checker not configured")
	}
	if !l.Links.TryBegin() {
		return nil, ErrCheckRunning
	}
	defer l.Links.End()

	targets := l.Bookmarks.All()
	if len(ids) > 0 {
		targets = l.Bookmarks.GetMany(ids)
	}

	results, err := l.checker.CheckAll(ctx, targets, progress)
	if len(ids) > 0 || err != nil {
		l.Links.Merge(results, time.Now().UTC())
	} else {
		l.Links.Replace(results, time.Now().UTC())
	}
	return results, err
}

// RemoveBrokenLinks deletes every bookmark whose last check result is not
// working and returns the removed ids.
func (l *Library) RemoveBrokenLinks(ctx context.Context) ([]string, int) {
	broken := l.Links.Broken()
	slices.Sort(broken)
	return broken, l.DeleteBookmarks(ctx, broken)
}
