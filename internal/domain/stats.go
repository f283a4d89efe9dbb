package domain

import "sort"

// ProjectStats summarizes the nested collections of a project.
type ProjectStats struct {
	BookmarkCount  int     `json:"bookmarkCount"`
	NoteCount      int     `json:"noteCount"`
	TaskCount      int     `json:"taskCount"`
	CompletedTasks int     `json:"completedTasks"`
	Progress       float64 `json:"progress"`
	IsCompleted    bool    `json:"isCompleted"`
}

// Stats computes the statistics of p. A project without tasks has zero
// progress and is never completed.
func (p Project) Stats() ProjectStats {
	s := ProjectStats{
		BookmarkCount: len(p.Bookmarks),
		NoteCount:     len(p.Notes),
		TaskCount:     len(p.Tasks),
	}
	for _, t := range p.Tasks {
		if t.Completed {
			s.CompletedTasks++
		}
	}
	if s.TaskCount > 0 {
		s.Progress = float64(s.CompletedTasks) / float64(s.TaskCount) * 100
	}
	s.IsCompleted = s.TaskCount > 0 && s.CompletedTasks == s.TaskCount
	return s
}

// BookmarkCounts is the per-category breakdown of a bookmark collection.
type BookmarkCounts struct {
	Total      int            `json:"total"`
	Favorites  int            `json:"favorites"`
	ByCategory map[string]int `json:"byCategory"`
}

// CountBookmarks computes total, favorite and per-category counts.
func CountBookmarks(bs []Bookmark) BookmarkCounts {
	c := BookmarkCounts{
		Total:      len(bs),
		ByCategory: make(map[string]int),
	}
	for _, b := range bs {
		if b.IsFavorite {
			c.Favorites++
		}
		if b.Category != "" {
			c.ByCategory[b.Category]++
		}
	}
	return c
}

// Categories returns the sorted set of non-empty categories.
func Categories(bs []Bookmark) []string {
	set := make(map[string]struct{})
	for _, b := range bs {
		if b.Category != "" {
			set[b.Category] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// Tags returns the sorted set of tags across all bookmarks.
func Tags(bs []Bookmark) []string {
	set := make(map[string]struct{})
	for _, b := range bs {
		for _, t := range b.Tags {
			set[t] = struct{}{}
		}
	}
	return sortedKeys(set)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
