package library

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/linkcheck"
	"github.com/MrSnakeDoc/marks/internal/logger"
	"github.com/MrSnakeDoc/marks/internal/repository"
	"github.com/MrSnakeDoc/marks/internal/store/memory"
)

// offline answers every request with a connection error, so only the
// local heuristics classify links.
type offline struct{}

func (offline) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("network unreachable")
}

// iconsOnly answers the favicon service and refuses everything else.
type iconsOnly struct{}

func (iconsOnly) RoundTrip(r *http.Request) (*http.Response, error) {
	if r.URL.Host != "icons.test" {
		return nil, errors.New("connection refused")
	}
	return &http.Response{
		StatusCode: 200,
		Header:     http.Header{"Content-Type": []string{"image/png"}},
		Body:       io.NopCloser(strings.NewReader("")),
		Request:    r,
	}, nil
}

func newLibrary(t *testing.T, transport http.RoundTripper) *Library {
	t.Helper()
	ctx := context.Background()
	kv := memory.NewStore()
	log := logger.Nop()

	checker := linkcheck.New(linkcheck.Config{
		FaviconEndpoint: "http://icons.test/?domain=%s",
		BatchSize:       5,
		Transport:       transport,
	}, log)

	return New(
		repository.NewBookmarkRepository(ctx, kv, "bookmarks", log),
		repository.NewProjectRepository(ctx, kv, "bookmark-projects", log),
		checker,
		log,
	)
}

func TestDeleteBookmarkCascades(t *testing.T) {
	ctx := context.Background()
	lib := newLibrary(t, offline{})

	if err := lib.DeleteBookmark(ctx, "1"); err != nil {
		t.Fatalf("DeleteBookmark: %v", err)
	}
	p, _ := lib.Projects.Get("1")
	if p.HasBookmark("1") {
		t.Error("project still references the deleted bookmark")
	}
	if len(lib.DanglingRefs()) != 0 {
		t.Errorf("DanglingRefs() = %v", lib.DanglingRefs())
	}

	if err := lib.DeleteBookmark(ctx, "1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second delete error = %v", err)
	}
}

func TestDeleteAllBookmarksClearsRefs(t *testing.T) {
	lib := newLibrary(t, offline{})

	if n := lib.DeleteAllBookmarks(context.Background()); n != 4 {
		t.Errorf("removed = %d, want 4", n)
	}
	for _, p := range lib.Projects.All() {
		if len(p.Bookmarks) != 0 {
			t.Errorf("project %s refs = %v", p.ID, p.Bookmarks)
		}
	}
}

func TestDanglingRefsAndPrune(t *testing.T) {
	ctx := context.Background()
	lib := newLibrary(t, offline{})

	// Deleting through the repository skips the cascade.
	if err := lib.Bookmarks.Delete(ctx, "3"); err != nil {
		t.Fatal(err)
	}
	dangling := lib.DanglingRefs()
	if len(dangling) != 1 || strings.Join(dangling["2"], ",") != "3" {
		t.Fatalf("DanglingRefs() = %v", dangling)
	}

	got, err := lib.ProjectBookmarks("2")
	if err != nil || len(got) != 0 {
		t.Errorf("ProjectBookmarks should drop unresolved ids, got %v, %v", got, err)
	}

	if n := lib.PruneDanglingRefs(ctx); n != 1 {
		t.Errorf("pruned = %d, want 1", n)
	}
	if n := lib.PruneDanglingRefs(ctx); n != 0 {
		t.Errorf("second prune = %d, want 0", n)
	}
}

func TestCreateBookmarkInProject(t *testing.T) {
	ctx := context.Background()
	lib := newLibrary(t, offline{})

	id, err := lib.CreateBookmarkInProject(ctx, "2", domain.BookmarkInput{Title: "Figma", URL: "https://figma.com", Category: "Design"})
	if err != nil {
		t.Fatalf("CreateBookmarkInProject: %v", err)
	}
	got, _ := lib.ProjectBookmarks("2")
	if len(got) != 2 || got[1].ID != id {
		t.Errorf("ProjectBookmarks = %+v", got)
	}

	before := lib.Bookmarks.Len()
	if _, err := lib.CreateBookmarkInProject(ctx, "nope", domain.BookmarkInput{Title: "x", URL: "https://x.com"}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown project error = %v", err)
	}
	if lib.Bookmarks.Len() != before {
		t.Error("bookmark must not be created for an unknown project")
	}
}

func TestLinkBookmarks(t *testing.T) {
	ctx := context.Background()
	lib := newLibrary(t, offline{})

	if err := lib.LinkBookmarks(ctx, "2", "4", "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("error = %v", err)
	}
	p, _ := lib.Projects.Get("2")
	if p.HasBookmark("4") {
		t.Error("nothing should be linked when one id is unknown")
	}

	if err := lib.LinkBookmarks(ctx, "2", "4", "4", "1"); err != nil {
		t.Fatalf("LinkBookmarks: %v", err)
	}
	p, _ = lib.Projects.Get("2")
	if strings.Join(p.Bookmarks, ",") != "3,4,1" {
		t.Errorf("refs = %v", p.Bookmarks)
	}
}

func TestBatchEdits(t *testing.T) {
	ctx := context.Background()
	lib := newLibrary(t, offline{})

	n, err := lib.BatchTag(ctx, []string{"1", "2", "nope"}, []string{"coding", "daily"})
	if err != nil || n != 2 {
		t.Fatalf("BatchTag = %d, %v", n, err)
	}
	b, _ := lib.Bookmarks.Get("1")
	if strings.Join(b.Tags, ",") != "coding,repository,git,daily" {
		t.Errorf("tags = %v", b.Tags)
	}
	if _, err := lib.BatchTag(ctx, []string{"1"}, []string{" "}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("blank tags error = %v", err)
	}

	if n, _ := lib.BatchCategory(ctx, []string{"3", "4"}, "Media"); n != 2 {
		t.Errorf("BatchCategory = %d", n)
	}
	if n, _ := lib.BatchFavorite(ctx, []string{"1", "2", "3", "4"}, true); n != 4 {
		t.Errorf("BatchFavorite = %d", n)
	}
	if c := lib.Bookmarks.Counts(); c.Favorites != 4 || c.ByCategory["Media"] != 2 {
		t.Errorf("counts = %+v", c)
	}
}

func TestRemoveDuplicates(t *testing.T) {
	ctx := context.Background()
	lib := newLibrary(t, offline{})

	dup, _ := lib.Bookmarks.Add(ctx, domain.BookmarkInput{Title: "GitHub mirror", URL: " HTTPS://GITHUB.COM ", Category: "Development"})
	if err := lib.Projects.AddBookmarkRef(ctx, "2", dup); err != nil {
		t.Fatal(err)
	}

	ids, removed := lib.RemoveDuplicates(ctx, domain.KeepOldest)
	if removed != 1 || len(ids) != 1 || ids[0] != dup {
		t.Fatalf("RemoveDuplicates = %v, %d", ids, removed)
	}
	p, _ := lib.Projects.Get("2")
	if p.HasBookmark(dup) {
		t.Error("removed duplicate still referenced")
	}
}

func TestCheckLinksAndRemoveBroken(t *testing.T) {
	ctx := context.Background()
	lib := newLibrary(t, iconsOnly{})

	local, _ := lib.Bookmarks.Add(ctx, domain.BookmarkInput{Title: "dev server", URL: "http://localhost:3000", Category: "Dev"})

	results, err := lib.CheckLinks(ctx, nil, nil)
	if err != nil {
		t.Fatalf("CheckLinks: %v", err)
	}
	if len(results) != 5 || lib.Links.Count() != 5 {
		t.Fatalf("results = %d, indexed = %d", len(results), lib.Links.Count())
	}
	r, _ := lib.Links.Get(local)
	if r.Status != domain.LinkSuspicious {
		t.Errorf("localhost status = %q", r.Status)
	}
	// Defaults are all on the known-domain list.
	if s := lib.Links.Summary(); s.Working != 4 || s.Broken != 1 {
		t.Errorf("summary = %+v", s)
	}

	ids, removed := lib.RemoveBrokenLinks(ctx)
	if removed != 1 || ids[0] != local {
		t.Errorf("RemoveBrokenLinks = %v, %d", ids, removed)
	}
	if lib.Links.Count() != 4 {
		t.Errorf("index should forget removed bookmarks, count = %d", lib.Links.Count())
	}
}

func TestCheckLinksIsExclusive(t *testing.T) {
	lib := newLibrary(t, offline{})
	if !lib.Links.TryBegin() {
		t.Fatal("TryBegin failed")
	}
	defer lib.Links.End()

	if _, err := lib.CheckLinks(context.Background(), nil, nil); !errors.Is(err, ErrCheckRunning) {
		t.Errorf("error = %v, want ErrCheckRunning", err)
	}
}
