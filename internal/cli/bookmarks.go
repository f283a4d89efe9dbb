package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/marks/internal/codec"
	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/utils"
)

func newBookmarksCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "bookmarks",
		Aliases: []string{"bm"},
		Short:   "Manage bookmarks",
	}
	cmd.AddCommand(
		newBookmarksListCmd(e),
		newBookmarksSearchCmd(e),
		newBookmarksAddCmd(e),
		newBookmarksUpdateCmd(e),
		newBookmarksRmCmd(e),
		newBookmarksFavoriteCmd(e),
		newBookmarksImportCmd(e),
		newBookmarksExportCmd(e),
		newBookmarksCategoriesCmd(e),
		newBookmarksTagsCmd(e),
		newBookmarksCountsCmd(e),
		newBookmarksDedupeCmd(e),
		newBookmarksBatchTagCmd(e),
		newBookmarksBatchCategoryCmd(e),
	)
	return cmd
}

func newBookmarksListCmd(e *env) *cobra.Command {
	var (
		f      domain.Filter
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List bookmarks, optionally filtered",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := e.library(cmd.Context())
			if err != nil {
				return err
			}
			bs := lib.Bookmarks.Filter(f)
			if asJSON {
				return printJSON(out(cmd), bs)
			}
			return printBookmarks(out(cmd), bs)
		},
	}
	cmd.Flags().StringVarP(&f.Query, "query", "q", "", "substring matched against title, description, url and tags")
	cmd.Flags().StringVar(&f.Category, "category", "", `category name, or "favorites"`)
	cmd.Flags().StringSliceVarP(&f.Tags, "tag", "t", nil, "keep bookmarks carrying any of these tags")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func bookmarkInputFlags(cmd *cobra.Command, in *domain.BookmarkInput) {
	cmd.Flags().StringVar(&in.Title, "title", "", "title")
	cmd.Flags().StringVar(&in.URL, "url", "", "url")
	cmd.Flags().StringVar(&in.Description, "description", "", "description")
	cmd.Flags().StringVar(&in.Category, "category", "", "category")
	cmd.Flags().StringSliceVarP(&in.Tags, "tag", "t", nil, "tags (repeatable or comma separated)")
	cmd.Flags().StringVar(&in.Favicon, "favicon", "", "favicon url")
	cmd.Flags().BoolVar(&in.IsFavorite, "favorite", false, "mark as favorite")
}

func newBookmarksSearchCmd(e *env) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:     "search <query>",
		Aliases: []string{"s"},
		Short:   "Rank bookmarks by relevance to a query",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := e.library(cmd.Context())
			if err != nil {
				return err
			}
			ranked := lib.Bookmarks.Search(strings.Join(args, " "), limit)
			if asJSON {
				return printJSON(out(cmd), ranked)
			}
			return printRanked(out(cmd), ranked)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum number of results, 0 for all")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newBookmarksAddCmd(e *env) *cobra.Command {
	var in domain.BookmarkInput
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a bookmark",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := e.library(cmd.Context())
			if err != nil {
				return err
			}
			id, err := lib.Bookmarks.Add(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintln(out(cmd), id)
			return nil
		},
	}
	bookmarkInputFlags(cmd, &in)
	return cmd
}

func newBookmarksUpdateCmd(e *env) *cobra.Command {
	var in domain.BookmarkInput
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change the fields given as flags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := patchFromFlags(cmd, in)
			if patch.IsEmpty() {
				return fmt.Errorf("%w: nothing to update", domain.ErrValidation)
			}
			lib, err := e.library(cmd.Context())
			if err != nil {
				return err
			}
			return lib.Bookmarks.Update(cmd.Context(), args[0], patch)
		},
	}
	bookmarkInputFlags(cmd, &in)
	return cmd
}

// patchFromFlags keeps only the flags set on the command line.
func patchFromFlags(cmd *cobra.Command, in domain.BookmarkInput) domain.BookmarkPatch {
	var p domain.BookmarkPatch
	changed := cmd.Flags().Changed
	if changed("title") {
		p.Title = &in.Title
	}
	if changed("url") {
		p.URL = &in.URL
	}
	if changed("description") {
		p.Description = &in.Description
	}
	if changed("category") {
		p.Category = &in.Category
	}
	if changed("tag") {
		p.Tags = &in.Tags
	}
	if changed("favicon") {
		p.Favicon = &in.Favicon
	}
	if changed("favorite") {
		p.IsFavorite = &in.IsFavorite
	}
	return p
}

func newBookmarksRmCmd(e *env) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "rm <id>...",
		Short: "Delete bookmarks and their project references",
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) > 0) {
				return fmt.Errorf("%w: pass ids or --all", domain.ErrValidation)
			}
			lib, err := e.library(cmd.Context())
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if all {
				if err := requireYes(cmd); err != nil {
					return err
				}
				n := lib.DeleteAllBookmarks(ctx)
				fmt.Fprintf(out(cmd), "deleted %d bookmarks\n", n)
				return nil
			}
			if len(args) == 1 {
				return lib.DeleteBookmark(ctx, args[0])
			}
			n := lib.DeleteBookmarks(ctx, args)
			fmt.Fprintf(out(cmd), "deleted %d bookmarks\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "delete every bookmark")
	addYesFlag(cmd)
	return cmd
}

func newBookmarksFavoriteCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:     "favorite <id>",
		Aliases: []string{"fav"},
		Short:   "Toggle the favorite flag",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := e.library(cmd.Context())
			if err != nil {
				return err
			}
			if err := lib.Bookmarks.ToggleFavorite(cmd.Context(), args[0]); err != nil {
				return err
			}
			b, err := lib.Bookmarks.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "%s favorite=%t\n", b.ID, b.IsFavorite)
			return nil
		},
	}
}

func newBookmarksImportCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a .json, .html (Netscape) or .yaml (Homepage) file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if _, err := codec.DetectFormat(path); err != nil {
				return err
			}
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer utils.CloseLogged(f, e.logger(), path)

			lib, err := e.library(cmd.Context())
			if err != nil {
				return err
			}

			var size int64 = -1
			if st, err := f.Stat(); err == nil {
				size = st.Size()
			}
			bar := progressbar.NewOptions64(size,
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionSetDescription("reading "+filepath.Base(path)),
				progressbar.OptionShowBytes(true),
				progressbar.OptionClearOnFinish(),
			)

			n, err := lib.Bookmarks.Import(cmd.Context(), filepath.Base(path), io.TeeReader(f, bar))
			_ = bar.Finish()
			if err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "imported %d bookmarks\n", n)
			return nil
		},
	}
}

func newBookmarksExportCmd(e *env) *cobra.Command {
	var (
		formatName string
		output     string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every bookmark as json, html or yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := codec.ParseFormat(formatName)
			if err != nil {
				return err
			}
			lib, err := e.library(cmd.Context())
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				return lib.Bookmarks.Export(format, out(cmd))
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := lib.Bookmarks.Export(format, f); err != nil {
				utils.CloseLogged(f, e.logger(), output)
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&formatName, "format", "f", string(codec.FormatJSON), "json, html or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}

func newBookmarksCategoriesCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := e.library(cmd.Context())
			if err != nil {
				return err
			}
			for _, c := range lib.Bookmarks.Categories() {
				fmt.Fprintln(out(cmd), c)
			}
			return nil
		},
	}
}

func newBookmarksTagsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List tags in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := e.library(cmd.Context())
			if err != nil {
				return err
			}
			for _, t := range lib.Bookmarks.Tags() {
				fmt.Fprintln(out(cmd), t)
			}
			return nil
		},
	}
}

func newBookmarksCountsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "counts",
		Short: "Count bookmarks per category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := e.library(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(out(cmd), lib.Bookmarks.Counts())
		},
	}
}

func newBookmarksDedupeCmd(e *env) *cobra.Command {
	var (
		keep   string
		remove bool
	)
	cmd := &cobra.Command{
		Use:   "dedupe",
		Short: "Show duplicate groups, or remove duplicates with --remove",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			strategy, err := domain.ParseKeepStrategy(keep)
			if err != nil {
				return err
			}
			if remove {
				if err := requireYes(cmd); err != nil {
					return err
				}
			}
			lib, err := e.library(cmd.Context())
			if err != nil {
				return err
			}

			groups := lib.Bookmarks.Duplicates()
			if !remove {
				for _, g := range groups {
					fmt.Fprintf(out(cmd), "%s %q (%d)\n", g.Type, g.DisplayValue, len(g.Bookmarks))
					for _, b := range g.Bookmarks {
						fmt.Fprintf(out(cmd), "  %s  %s  %s\n", b.ID, b.Title, b.URL)
					}
				}
				fmt.Fprintf(out(cmd), "%d duplicate groups\n", len(groups))
				return nil
			}

			_, n := lib.RemoveDuplicates(cmd.Context(), strategy)
			fmt.Fprintf(out(cmd), "removed %d duplicates (kept %s)\n", n, strategy)
			return nil
		},
	}
	cmd.Flags().StringVar(&keep, "keep", string(domain.KeepNewest), "newest, oldest or favorite")
	cmd.Flags().BoolVar(&remove, "remove", false, "delete every duplicate but the kept one")
	addYesFlag(cmd)
	return cmd
}

func newBookmarksBatchTagCmd(e *env) *cobra.Command {
	var tags []string
	cmd := &cobra.Command{
		Use:   "batch-tag <id>...",
		Short: "Add tags to several bookmarks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := e.library(cmd.Context())
			if err != nil {
				return err
			}
			n, err := lib.BatchTag(cmd.Context(), args, tags)
			if err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "tagged %d bookmarks\n", n)
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "tags to add")
	_ = cmd.MarkFlagRequired("tag")
	return cmd
}

func newBookmarksBatchCategoryCmd(e *env) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "batch-category <id>...",
		Short: "Move several bookmarks to one category",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := e.library(cmd.Context())
			if err != nil {
				return err
			}
			n, err := lib.BatchCategory(cmd.Context(), args, category)
			if err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "moved %d bookmarks to %q\n", n, category)
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "target category")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}
