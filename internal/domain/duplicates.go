package domain

import (
	"fmt"
	"slices"
	"strings"
)

// DuplicateKind tells which field a duplicate group was keyed on.
type DuplicateKind string

const (
	DuplicateByURL   DuplicateKind = "url"
	DuplicateByTitle DuplicateKind = "title"
)

// DuplicateGroup is a set of at least two bookmarks sharing a normalized
// url or title. Groups are derived, never persisted.
type DuplicateGroup struct {
	ID           string        `json:"id"`
	Type         DuplicateKind `json:"type"`
	Value        string        `json:"value"`
	DisplayValue string        `json:"displayValue"`
	Bookmarks    []Bookmark    `json:"bookmarks"`
}

// KeepStrategy decides which member of a group survives.
type KeepStrategy string

const (
	KeepNewest   KeepStrategy = "newest"
	KeepOldest   KeepStrategy = "oldest"
	KeepFavorite KeepStrategy = "favorite"
)

// ParseKeepStrategy validates a strategy name.
func ParseKeepStrategy(s string) (KeepStrategy, error) {
	switch k := KeepStrategy(strings.ToLower(strings.TrimSpace(s))); k {
	case KeepNewest, KeepOldest, KeepFavorite:
		return k, nil
	default:
		return "", fmt.Errorf("%w: unknown keep strategy %q", ErrValidation, s)
	}
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// FindDuplicates groups bs by exact normalized url, then groups the
// remaining bookmarks by exact normalized title. Normalization is trim and
// lowercase only, so "https://a.com" and "https://a.com/" differ.
// Blank values are keyed like any other, so records with empty titles
// group together. Groups appear in first-occurrence order.
func FindDuplicates(bs []Bookmark) []DuplicateGroup {
	groups := make([]DuplicateGroup, 0)
	inURLGroup := make(map[string]bool)

	for _, g := range groupBy(bs, func(b Bookmark) string { return b.URL }) {
		if len(g.members) < 2 {
			continue
		}
		for _, b := range g.members {
			inURLGroup[b.ID] = true
		}
		groups = append(groups, g.toGroup(DuplicateByURL, g.members[0].URL))
	}

	rest := make([]Bookmark, 0, len(bs))
	for _, b := range bs {
		if !inURLGroup[b.ID] {
			rest = append(rest, b)
		}
	}

	for _, g := range groupBy(rest, func(b Bookmark) string { return b.Title }) {
		if len(g.members) < 2 {
			continue
		}
		groups = append(groups, g.toGroup(DuplicateByTitle, g.members[0].Title))
	}

	return groups
}

type keyedMembers struct {
	key     string
	members []Bookmark
}

func (k keyedMembers) toGroup(kind DuplicateKind, display string) DuplicateGroup {
	return DuplicateGroup{
		ID:           string(kind) + "-" + k.key,
		Type:         kind,
		Value:        k.key,
		DisplayValue: display,
		Bookmarks:    k.members,
	}
}

func groupBy(bs []Bookmark, field func(Bookmark) string) []keyedMembers {
	index := make(map[string]int)
	out := make([]keyedMembers, 0)
	for _, b := range bs {
		key := normalizeKey(field(b))
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, keyedMembers{key: key})
		}
		out[i].members = append(out[i].members, b)
	}
	return out
}

// Resolve returns the ids of the group members to remove under strategy.
// It never mutates anything; the caller deletes the ids and re-runs the
// detector.
func (g DuplicateGroup) Resolve(strategy KeepStrategy) []string {
	if len(g.Bookmarks) < 2 {
		return nil
	}

	members := slices.Clone(g.Bookmarks)
	switch strategy {
	case KeepOldest:
		sortByCreated(members, false)
		return idsOf(members[1:])
	case KeepFavorite:
		sortByCreated(members, true)
		keep := -1
		for i, b := range members {
			if b.IsFavorite {
				keep = i
				break
			}
		}
		if keep < 0 {
			return idsOf(members[1:])
		}
		remove := make([]string, 0, len(members)-1)
		for i, b := range members {
			if i != keep {
				remove = append(remove, b.ID)
			}
		}
		return remove
	default:
		sortByCreated(members, true)
		return idsOf(members[1:])
	}
}

// ResolveAll unions the removal sets of every group.
func ResolveAll(groups []DuplicateGroup, strategy KeepStrategy) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, g := range groups {
		for _, id := range g.Resolve(strategy) {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

func sortByCreated(bs []Bookmark, newestFirst bool) {
	slices.SortStableFunc(bs, func(a, b Bookmark) int {
		if newestFirst {
			return b.CreatedAt.Compare(a.CreatedAt)
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
}

func idsOf(bs []Bookmark) []string {
	ids := make([]string, len(bs))
	for i, b := range bs {
		ids[i] = b.ID
	}
	return ids
}
