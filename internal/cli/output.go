package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/MrSnakeDoc/marks/internal/domain"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func printBookmarks(w io.Writer, bs []domain.Bookmark) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tFAV\tTITLE\tCATEGORY\tTAGS\tURL")
	for _, b := range bs {
		fav := ""
		if b.IsFavorite {
			fav = "★"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			b.ID, fav, truncate(b.Title, 40), b.Category, strings.Join(b.Tags, ","), b.URL)
	}
	return tw.Flush()
}

func printRanked(w io.Writer, rs []domain.RankedBookmark) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "SCORE\tID\tTITLE\tURL")
	for _, r := range rs {
		fmt.Fprintf(tw, "%.1f\t%s\t%s\t%s\n", r.Score, r.Bookmark.ID, truncate(r.Bookmark.Title, 40), r.Bookmark.URL)
	}
	return tw.Flush()
}

func printProjects(w io.Writer, ps []domain.Project) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tBOOKMARKS\tTASKS\tPROGRESS\tSTATE")
	for _, p := range ps {
		s := p.Stats()
		state := "active"
		if p.Archived {
			state = "archived"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d/%d\t%.0f%%\t%s\n",
			p.ID, truncate(p.Name, 40), s.BookmarkCount, s.CompletedTasks, s.TaskCount, s.Progress, state)
	}
	return tw.Flush()
}

func printProject(w io.Writer, p domain.Project, bookmarks []domain.Bookmark) error {
	s := p.Stats()
	fmt.Fprintf(w, "%s  %s\n", p.ID, p.Name)
	if p.Description != "" {
		fmt.Fprintf(w, "  %s\n", p.Description)
	}
	fmt.Fprintf(w, "  color %s, %d bookmarks, %d notes, %d/%d tasks (%.0f%%)\n",
		p.Color, s.BookmarkCount, s.NoteCount, s.CompletedTasks, s.TaskCount, s.Progress)
	if p.Archived {
		fmt.Fprintln(w, "  archived")
	}

	if len(bookmarks) > 0 {
		fmt.Fprintln(w, "\nBookmarks:")
		for _, b := range bookmarks {
			fmt.Fprintf(w, "  %s  %s  %s\n", b.ID, b.Title, b.URL)
		}
	}
	if len(p.Notes) > 0 {
		fmt.Fprintln(w, "\nNotes:")
		for _, n := range p.Notes {
			fmt.Fprintf(w, "  %s  %s\n", n.ID, n.Content)
		}
	}
	if len(p.Tasks) > 0 {
		fmt.Fprintln(w, "\nTasks:")
		for _, t := range p.Tasks {
			box := "[ ]"
			if t.Completed {
				box = "[x]"
			}
			fmt.Fprintf(w, "  %s %s  %s\n", box, t.ID, t.Title)
		}
	}
	return nil
}

func printLinkResults(w io.Writer, rs []domain.LinkCheckResult) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tVERDICT\tSTATUS\tURL\tERROR")
	for _, r := range rs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.BookmarkID, r.Verdict(), r.Status, r.URL, r.Error)
	}
	return tw.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
