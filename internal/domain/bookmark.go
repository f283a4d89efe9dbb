package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Bookmark is a saved URL with its metadata.
// JSON names follow the camelCase layout of exported bookmark files.
type Bookmark struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is assigned on creation and never changes.
	ID string `json:"id"`

	// ─────────────────────────────
	// Content
	// ─────────────────────────────

	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`

	// Category is a free-form folder name. Empty is tolerated.
	Category string `json:"category"`

	// Tags behaves as a set: no duplicates, order not significant.
	Tags []string `json:"tags"`

	// Favicon is an optional icon URL.
	Favicon string `json:"favicon,omitempty"`

	// ─────────────────────────────
	// State & metadata
	// ─────────────────────────────

	IsFavorite bool      `json:"isFavorite"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Clone returns a deep copy of b.
func (b Bookmark) Clone() Bookmark {
	b.Tags = slices.Clone(b.Tags)
	return b
}

// HasTag reports whether b carries tag (exact match).
func (b Bookmark) HasTag(tag string) bool {
	return slices.Contains(b.Tags, tag)
}

// BookmarkInput carries the caller-provided fields of a new bookmark.
type BookmarkInput struct {
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags,omitempty"`
	Favicon     string   `json:"favicon,omitempty"`
	IsFavorite  bool     `json:"isFavorite,omitempty"`
}

// Validate checks the structural invariants of a new bookmark.
func (in BookmarkInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: bookmark title is required", ErrValidation)
	}
	if strings.TrimSpace(in.URL) == "" {
		return fmt.Errorf("%w: bookmark url is required", ErrValidation)
	}
	return nil
}

// NewBookmark builds a bookmark record from in.
func NewBookmark(id string, in BookmarkInput, now time.Time) Bookmark {
	return Bookmark{
		ID:          id,
		Title:       in.Title,
		URL:         in.URL,
		Description: in.Description,
		Category:    in.Category,
		Tags:        UniqueTags(in.Tags),
		Favicon:     in.Favicon,
		IsFavorite:  in.IsFavorite,
		CreatedAt:   now,
	}
}

// BookmarkPatch is a partial update. Nil fields are left untouched.
type BookmarkPatch struct {
	Title       *string   `json:"title,omitempty"`
	URL         *string   `json:"url,omitempty"`
	Description *string   `json:"description,omitempty"`
	Category    *string   `json:"category,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	Favicon     *string   `json:"favicon,omitempty"`
	IsFavorite  *bool     `json:"isFavorite,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p BookmarkPatch) IsEmpty() bool {
	return p == (BookmarkPatch{})
}

// Validate rejects patches that would break record invariants.
func (p BookmarkPatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return fmt.Errorf("%w: bookmark title cannot be empty", ErrValidation)
	}
	if p.URL != nil && strings.TrimSpace(*p.URL) == "" {
		return fmt.Errorf("%w: bookmark url cannot be empty", ErrValidation)
	}
	return nil
}

// Apply merges the set fields of p into b.
func (p BookmarkPatch) Apply(b *Bookmark) {
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.URL != nil {
		b.URL = *p.URL
	}
	if p.Description != nil {
		b.Description = *p.Description
	}
	if p.Category != nil {
		b.Category = *p.Category
	}
	if p.Tags != nil {
		b.Tags = UniqueTags(*p.Tags)
	}
	if p.Favicon != nil {
		b.Favicon = *p.Favicon
	}
	if p.IsFavorite != nil {
		b.IsFavorite = *p.IsFavorite
	}
}

// UniqueTags drops blank and repeated tags, keeping first-seen order.
// It never returns nil so the JSON form is always an array.
func UniqueTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// MergeTags returns the set union of existing and extra.
func MergeTags(existing, extra []string) []string {
	all := make([]string, 0, len(existing)+len(extra))
	all = append(all, existing...)
	all = append(all, extra...)
	return UniqueTags(all)
}

// Ptr returns a pointer to v. Handy for building patches.
func Ptr[T any](v T) *T {
	return &v
}
