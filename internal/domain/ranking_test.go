package domain

import "testing"

func TestScoreBookmark(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		bookmark       Bookmark
		expectPositive bool
	}{
		{
			name:           "exact title",
			query:          "chatgpt",
			bookmark:       Bookmark{Title: "ChatGPT", URL: "https://chat.openai.com"},
			expectPositive: true,
		},
		{
			name:           "title prefix",
			query:          "chat",
			bookmark:       Bookmark{Title: "ChatGPT"},
			expectPositive: true,
		},
		{
			name:           "title substring",
			query:          "gpt",
			bookmark:       Bookmark{Title: "ChatGPT"},
			expectPositive: true,
		},
		{
			name:           "hostname fragment",
			query:          "openai",
			bookmark:       Bookmark{Title: "Assistant", URL: "https://www.openai.com/chat"},
			expectPositive: true,
		},
		{
			name:           "tag",
			query:          "golang",
			bookmark:       Bookmark{Title: "Tour", Tags: []string{"golang"}},
			expectPositive: true,
		},
		{
			name:           "multi-word across fields",
			query:          "docker registry",
			bookmark:       Bookmark{Title: "Docker Hub", Description: "Public container registry"},
			expectPositive: true,
		},
		{
			name:           "no match",
			query:          "xyz",
			bookmark:       Bookmark{Title: "ChatGPT", URL: "https://example.com"},
			expectPositive: false,
		},
		{
			name:           "blank query",
			query:          "   ",
			bookmark:       Bookmark{Title: "ChatGPT"},
			expectPositive: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := ScoreBookmark(tt.query, tt.bookmark)
			if tt.expectPositive && score <= 0 {
				t.Errorf("Expected positive score, got %f", score)
			}
			if !tt.expectPositive && score > 0 {
				t.Errorf("Expected zero score, got %f", score)
			}
		})
	}
}

func TestScoreBookmark_FieldOrder(t *testing.T) {
	title := Bookmark{Title: "Grafana"}
	tag := Bookmark{Title: "Dashboards", Tags: []string{"grafana"}}
	desc := Bookmark{Title: "Dashboards", Description: "grafana dashboards"}

	st, sg, sd := ScoreBookmark("grafana", title), ScoreBookmark("grafana", tag), ScoreBookmark("grafana", desc)
	if !(st > sg && sg > sd && sd > 0) {
		t.Errorf("scores title=%f tag=%f description=%f, want strictly decreasing", st, sg, sd)
	}
}

func TestRankBookmarks(t *testing.T) {
	bs := []Bookmark{
		{ID: "desc", Title: "Notes", Description: "all about go"},
		{ID: "none", Title: "Rust"},
		{ID: "title", Title: "Go"},
		{ID: "fav", Title: "Go", IsFavorite: true},
		{ID: "host", Title: "Docs", URL: "https://go.dev"},
	}

	ranked := RankBookmarks("go", bs)

	want := []string{"fav", "title", "host", "desc"}
	if len(ranked) != len(want) {
		t.Fatalf("got %d results, want %d", len(ranked), len(want))
	}
	for i, id := range want {
		if ranked[i].Bookmark.ID != id {
			t.Errorf("rank %d = %s, want %s", i, ranked[i].Bookmark.ID, id)
		}
	}
}

func TestHostFragments(t *testing.T) {
	got := hostFragments("https://www.docs.github.com/x")
	want := []string{"docs", "github", "com"}
	if len(got) != len(want) {
		t.Fatalf("hostFragments = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("fragment %d = %q, want %q", i, got[i], want[i])
		}
	}
	if hostFragments("not a url") != nil {
		t.Error("expected nil for an unparsable url")
	}
}
