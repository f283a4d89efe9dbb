package domain

import "time"

// DefaultBookmarks is the starter collection used when no bookmark
// document exists yet (or the stored one cannot be read).
func DefaultBookmarks(now time.Time) []Bookmark {
	return []Bookmark{
		{
			ID:          "1",
			Title:       "GitHub",
			URL:         "https://github.com",
			Description: "Where the world builds software",
			Category:    "Development",
			Tags:        []string{"coding", "repository", "git"},
			Favicon:     "https://github.com/favicon.ico",
			IsFavorite:  true,
			CreatedAt:   now,
		},
		{
			ID:          "2",
			Title:       "Stack Overflow",
			URL:         "https://stackoverflow.com",
			Description: "Developer Q&A community",
			Category:    "Development",
			Tags:        []string{"coding", "help", "community"},
			Favicon:     "https://stackoverflow.com/favicon.ico",
			CreatedAt:   now,
		},
		{
			ID:          "3",
			Title:       "Dribbble",
			URL:         "https://dribbble.com",
			Description: "Design inspiration and portfolio",
			Category:    "Design",
			Tags:        []string{"design", "inspiration", "portfolio"},
			Favicon:     "https://dribbble.com/favicon.ico",
			IsFavorite:  true,
			CreatedAt:   now,
		},
		{
			ID:          "4",
			Title:       "YouTube",
			URL:         "https://youtube.com",
			Description: "Video sharing platform",
			Category:    "Entertainment",
			Tags:        []string{"video", "learning", "entertainment"},
			Favicon:     "https://youtube.com/favicon.ico",
			CreatedAt:   now,
		},
	}
}

// DefaultProjects is the starter project list. Its bookmark references
// point into DefaultBookmarks.
func DefaultProjects(now time.Time) []Project {
	return []Project{
		{
			ID:          "1",
			Name:        "Web Development",
			Description: "Resources for web development projects and learning materials",
			Color:       "#0ea5e9",
			Bookmarks:   []string{"1", "2"},
			Notes: []Note{
				{ID: "1", Content: "Remember to check React 18 updates and new features", CreatedAt: now},
			},
			Tasks: []Task{
				{ID: "1", Title: "Update project dependencies", CreatedAt: now},
				{ID: "2", Title: "Review new CSS Grid features", Completed: true, CreatedAt: now},
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:          "2",
			Name:        "Design Resources",
			Description: "Collection of design inspiration and tools",
			Color:       "#8b5cf6",
			Bookmarks:   []string{"3"},
			Notes: []Note{
				{ID: "1", Content: "Explore new color palettes for upcoming projects", CreatedAt: now},
			},
			Tasks: []Task{
				{ID: "1", Title: "Create design system documentation", CreatedAt: now},
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}
