package domain

import "strings"

// CategoryFavorites is the pseudo-category selecting favorite bookmarks.
const CategoryFavorites = "favorites"

// Filter selects bookmarks. Every clause is optional; set clauses are
// combined with AND.
type Filter struct {
	// Query is a case-insensitive substring matched against title,
	// description, url and every tag.
	Query string

	// Category is an exact category name, or CategoryFavorites.
	Category string

	// Tags passes a bookmark carrying at least one of the listed tags.
	Tags []string
}

// Match reports whether b satisfies every active clause of f.
func (f Filter) Match(b Bookmark) bool {
	return f.matchQuery(b) && f.matchCategory(b) && f.matchTags(b)
}

func (f Filter) matchQuery(b Bookmark) bool {
	if f.Query == "" {
		return true
	}
	q := strings.ToLower(f.Query)
	if containsFold(b.Title, q) || containsFold(b.Description, q) || containsFold(b.URL, q) {
		return true
	}
	for _, t := range b.Tags {
		if containsFold(t, q) {
			return true
		}
	}
	return false
}

func (f Filter) matchCategory(b Bookmark) bool {
	switch f.Category {
	case "":
		return true
	case CategoryFavorites:
		return b.IsFavorite
	default:
		return b.Category == f.Category
	}
}

func (f Filter) matchTags(b Bookmark) bool {
	if len(f.Tags) == 0 {
		return true
	}
	for _, t := range f.Tags {
		if b.HasTag(t) {
			return true
		}
	}
	return false
}

// FilterBookmarks returns the bookmarks of bs matching f, in input order.
func FilterBookmarks(bs []Bookmark, f Filter) []Bookmark {
	out := make([]Bookmark, 0, len(bs))
	for _, b := range bs {
		if f.Match(b) {
			out = append(out, b)
		}
	}
	return out
}

// containsFold expects lowerNeedle to be lowercased already.
func containsFold(s, lowerNeedle string) bool {
	return strings.Contains(strings.ToLower(s), lowerNeedle)
}

// ─────────────────────────────
// Projects
// ─────────────────────────────

// ProjectStatus selects projects by lifecycle state.
type ProjectStatus string

const (
	ProjectStatusAll        ProjectStatus = "all"
	ProjectStatusActive     ProjectStatus = "active"
	ProjectStatusArchived   ProjectStatus = "archived"
	ProjectStatusCompleted  ProjectStatus = "completed"
	ProjectStatusInProgress ProjectStatus = "in-progress"
)

// MatchesQuery reports whether q occurs (case-insensitively) in the name,
// description, any note content or any task title of p.
// A blank query matches every project.
func (p Project) MatchesQuery(q string) bool {
	if strings.TrimSpace(q) == "" {
		return true
	}
	q = strings.ToLower(q)
	if containsFold(p.Name, q) || containsFold(p.Description, q) {
		return true
	}
	for _, n := range p.Notes {
		if containsFold(n.Content, q) {
			return true
		}
	}
	for _, t := range p.Tasks {
		if containsFold(t.Title, q) {
			return true
		}
	}
	return false
}

// MatchesStatus reports whether p is in the given state.
// Unknown values behave like ProjectStatusAll.
func (p Project) MatchesStatus(status ProjectStatus) bool {
	switch status {
	case ProjectStatusActive:
		return !p.Archived
	case ProjectStatusArchived:
		return p.Archived
	case ProjectStatusCompleted:
		return p.Stats().IsCompleted
	case ProjectStatusInProgress:
		s := p.Stats()
		return s.TaskCount > 0 && !s.IsCompleted
	default:
		return true
	}
}

// SearchProjects returns the projects of ps matching q.
func SearchProjects(ps []Project, q string) []Project {
	out := make([]Project, 0, len(ps))
	for _, p := range ps {
		if p.MatchesQuery(q) {
			out = append(out, p)
		}
	}
	return out
}

// ProjectsByStatus returns the projects of ps in the given state.
func ProjectsByStatus(ps []Project, status ProjectStatus) []Project {
	out := make([]Project, 0, len(ps))
	for _, p := range ps {
		if p.MatchesStatus(status) {
			out = append(out, p)
		}
	}
	return out
}
