package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/MrSnakeDoc/marks/internal/codec"
	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/logger"
)

func TestBookmarkRepository_SeedsDefaults(t *testing.T) {
	f := newFixture(true)
	if got := f.bookmarks.Len(); got != 4 {
		t.Fatalf("Len() = %d, want 4 defaults", got)
	}
	if _, ok := f.kv.Raw("bookmarks"); !ok {
		t.Error("defaults should be persisted on first load")
	}

	empty := newFixture(false)
	if got := empty.bookmarks.Len(); got != 0 {
		t.Errorf("Len() without seeding = %d, want 0", got)
	}
}

func TestBookmarkRepository_AddPersists(t *testing.T) {
	ctx := context.Background()
	f := newFixture(false)

	id, err := f.bookmarks.Add(ctx, domain.BookmarkInput{
		Title:    "X",
		URL:      "https://x.com",
		Category: "Dev",
		Tags:     []string{"a", "a", " b "},
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if id != "b1" {
		t.Errorf("id = %q, want b1", id)
	}

	b, err := f.bookmarks.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if b.CreatedAt.IsZero() || len(b.Tags) != 2 {
		t.Errorf("bookmark = %+v", b)
	}

	// A second repository over the same store sees the write.
	reloaded := NewBookmarkRepository(ctx, f.kv, "bookmarks", logger.Nop(), WithSeed(false))
	if _, err := reloaded.Get(id); err != nil {
		t.Errorf("reloaded Get: %v", err)
	}
}

func TestBookmarkRepository_AddValidates(t *testing.T) {
	f := newFixture(false)
	for _, in := range []domain.BookmarkInput{
		{Title: "", URL: "https://x.com"},
		{Title: "X", URL: "  "},
	} {
		if _, err := f.bookmarks.Add(context.Background(), in); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("Add(%+v) error = %v, want ErrValidation", in, err)
		}
	}
	if f.bookmarks.Len() != 0 {
		t.Error("invalid input must not be stored")
	}
}

func TestBookmarkRepository_UnknownIDIsNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(true)
	before, _ := f.kv.Raw("bookmarks")

	checks := map[string]error{
		"update":   f.bookmarks.Update(ctx, "nope", domain.BookmarkPatch{Title: domain.Ptr("x")}),
		"delete":   f.bookmarks.Delete(ctx, "nope"),
		"favorite": f.bookmarks.ToggleFavorite(ctx, "nope"),
	}
	_, getErr := f.bookmarks.Get("nope")
	checks["get"] = getErr

	for name, err := range checks {
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("%s: error = %v, want ErrNotFound", name, err)
		}
	}
	after, _ := f.kv.Raw("bookmarks")
	if !bytes.Equal(before, after) {
		t.Error("failed mutations must not write")
	}
}

func TestBookmarkRepository_UpdateAndToggle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(true)

	if err := f.bookmarks.Update(ctx, "2", domain.BookmarkPatch{
		Title: domain.Ptr("SO"),
		Tags:  &[]string{"qa"},
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	b, _ := f.bookmarks.Get("2")
	if b.Title != "SO" || len(b.Tags) != 1 || b.URL != "https://stackoverflow.com" {
		t.Errorf("after update = %+v", b)
	}

	if err := f.bookmarks.Update(ctx, "2", domain.BookmarkPatch{Title: domain.Ptr(" ")}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("blank title error = %v", err)
	}

	orig := b.IsFavorite
	for i := 0; i < 2; i++ {
		if err := f.bookmarks.ToggleFavorite(ctx, "2"); err != nil {
			t.Fatalf("ToggleFavorite: %v", err)
		}
	}
	b, _ = f.bookmarks.Get("2")
	if b.IsFavorite != orig {
		t.Error("toggling twice should restore the flag")
	}
}

func TestBookmarkRepository_UpdateMany(t *testing.T) {
	ctx := context.Background()
	f := newFixture(true)

	n, err := f.bookmarks.UpdateMany(ctx, map[string]domain.BookmarkPatch{
		"1":    {Category: domain.Ptr("Tools")},
		"3":    {Category: domain.Ptr("Tools")},
		"nope": {Category: domain.Ptr("Tools")},
		"4":    {},
	})
	if err != nil {
		t.Fatalf("UpdateMany: %v", err)
	}
	if n != 2 {
		t.Errorf("updated = %d, want 2", n)
	}
	if got := f.bookmarks.Counts().ByCategory["Tools"]; got != 2 {
		t.Errorf("Tools count = %d", got)
	}

	if _, err := f.bookmarks.UpdateMany(ctx, map[string]domain.BookmarkPatch{"1": {URL: domain.Ptr("")}}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("invalid patch error = %v", err)
	}
}

func TestBookmarkRepository_Delete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(true)

	if err := f.bookmarks.Delete(ctx, "1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if f.bookmarks.Exists("1") {
		t.Error("bookmark 1 still present")
	}
	if n := f.bookmarks.DeleteMany(ctx, []string{"2", "3", "missing"}); n != 2 {
		t.Errorf("DeleteMany = %d, want 2", n)
	}
	if n := f.bookmarks.DeleteAll(ctx); n != 1 {
		t.Errorf("DeleteAll = %d, want 1", n)
	}
	raw, _ := f.kv.Raw("bookmarks")
	if string(raw) != "[]" {
		t.Errorf("persisted = %s, want []", raw)
	}
}

func TestBookmarkRepository_SaveFailureIsSoft(t *testing.T) {
	ctx := context.Background()
	f := newFixture(false)
	f.kv.FailWrites = errors.New("quota exceeded")

	id, err := f.bookmarks.Add(ctx, domain.BookmarkInput{Title: "X", URL: "https://x.com"})
	if err != nil {
		t.Fatalf("Add should succeed for the session: %v", err)
	}
	if _, err := f.bookmarks.Get(id); err != nil {
		t.Errorf("mirror lost the bookmark: %v", err)
	}
}

func TestBookmarkRepository_Import(t *testing.T) {
	ctx := context.Background()

	t.Run("a record without url aborts the whole file", func(t *testing.T) {
		f := newFixture(true)
		doc := `[{"title":"A","url":"https://a.com"},{"title":"B"},null]`
		if _, err := f.bookmarks.Import(ctx, "bookmarks.json", strings.NewReader(doc)); !errors.Is(err, domain.ErrInvalidFormat) {
			t.Fatalf("Import error = %v, want ErrInvalidFormat", err)
		}
		if f.bookmarks.Len() != 4 {
			t.Errorf("partial import: %d bookmarks", f.bookmarks.Len())
		}
	})

	t.Run("json fills ids and keeps existing ones unique", func(t *testing.T) {
		f := newFixture(true)
		doc := `[
			{"title":"A","url":"https://a.com","category":"X"},
			{"id":"1","title":"B","url":"https://b.com","category":"X","createdAt":"2020-01-01T00:00:00Z"},
			{"id":"keep","title":"C","url":"https://c.com","category":"X"},
			{"id":"keep","title":"D","url":"https://d.com","category":"X"}
		]`
		n, err := f.bookmarks.Import(ctx, "bookmarks.json", strings.NewReader(doc))
		if err != nil {
			t.Fatalf("Import: %v", err)
		}
		if n != 4 || f.bookmarks.Len() != 8 {
			t.Fatalf("imported %d, total %d", n, f.bookmarks.Len())
		}

		seen := map[string]bool{}
		for _, b := range f.bookmarks.All() {
			if seen[b.ID] {
				t.Errorf("duplicate id %q", b.ID)
			}
			seen[b.ID] = true
			if b.CreatedAt.IsZero() {
				t.Errorf("%s has no createdAt", b.Title)
			}
		}
		if !seen["keep"] {
			t.Error("a fresh id from the file should be kept")
		}
	})

	t.Run("invalid input appends nothing", func(t *testing.T) {
		f := newFixture(true)
		cases := map[string]string{
			"bookmarks.json": `{"not":"an array"}`,
			"bookmarks.csv":  `title,url`,
		}
		for name, body := range cases {
			if _, err := f.bookmarks.Import(ctx, name, strings.NewReader(body)); !errors.Is(err, domain.ErrInvalidFormat) {
				t.Errorf("%s: error = %v", name, err)
			}
		}
		if f.bookmarks.Len() != 4 {
			t.Errorf("Len = %d, want 4", f.bookmarks.Len())
		}
	})

	t.Run("json round trip", func(t *testing.T) {
		src := newFixture(true)
		var buf bytes.Buffer
		if err := src.bookmarks.Export(codec.FormatJSON, &buf); err != nil {
			t.Fatalf("Export: %v", err)
		}

		dst := newFixture(false)
		if _, err := dst.bookmarks.Import(ctx, "export.json", &buf); err != nil {
			t.Fatalf("Import: %v", err)
		}
		want, got := src.bookmarks.All(), dst.bookmarks.All()
		if len(got) != len(want) {
			t.Fatalf("len = %d, want %d", len(got), len(want))
		}
		for i := range want {
			w, g := want[i], got[i]
			if w.Title != g.Title || w.URL != g.URL || w.Category != g.Category || w.Description != g.Description ||
				strings.Join(w.Tags, ",") != strings.Join(g.Tags, ",") {
				t.Errorf("record %d differs: %+v vs %+v", i, w, g)
			}
		}
	})

	t.Run("html", func(t *testing.T) {
		src := newFixture(true)
		var buf bytes.Buffer
		if err := src.bookmarks.Export(codec.FormatHTML, &buf); err != nil {
			t.Fatalf("Export: %v", err)
		}
		dst := newFixture(false)
		n, err := dst.bookmarks.Import(ctx, "bookmarks.html", &buf)
		if err != nil || n != 4 {
			t.Fatalf("Import = %d, %v", n, err)
		}
		if got := dst.bookmarks.Categories(); strings.Join(got, ",") != "Design,Development,Entertainment" {
			t.Errorf("categories = %v", got)
		}
	})
}

func TestBookmarkRepository_DerivedQueries(t *testing.T) {
	f := newFixture(true)

	counts := f.bookmarks.Counts()
	if counts.Total != 4 || counts.Favorites != 2 || counts.ByCategory["Development"] != 2 {
		t.Errorf("Counts = %+v", counts)
	}
	if tags := f.bookmarks.Tags(); len(tags) != 11 || tags[0] != "coding" {
		t.Errorf("Tags = %v", tags)
	}
	got := f.bookmarks.Filter(domain.Filter{Category: domain.CategoryFavorites})
	if len(got) != 2 {
		t.Errorf("favorites = %d, want 2", len(got))
	}
	if groups := f.bookmarks.Duplicates(); len(groups) != 0 {
		t.Errorf("defaults have no duplicates, got %+v", groups)
	}

	// All returns copies.
	all := f.bookmarks.All()
	all[0].Tags[0] = "mutated"
	b, _ := f.bookmarks.Get(all[0].ID)
	if b.Tags[0] == "mutated" {
		t.Error("All must not expose the mirror")
	}

	raw, _ := f.kv.Raw("bookmarks")
	var stored []map[string]any
	if err := json.Unmarshal(raw, &stored); err != nil || len(stored) != 4 {
		t.Errorf("stored document = %s", raw)
	}
}

func TestBookmarkRepository_Search(t *testing.T) {
	f := newFixture(true)

	ranked := f.bookmarks.Search("github", 0)
	if len(ranked) == 0 || ranked[0].Bookmark.ID != "1" {
		t.Fatalf("Search(github) = %+v", ranked)
	}

	if got := f.bookmarks.Search("o", 2); len(got) > 2 {
		t.Errorf("limit ignored: %d results", len(got))
	}
	if got := f.bookmarks.Search("zzzz", 0); len(got) != 0 {
		t.Errorf("Search(zzzz) = %+v", got)
	}
}
