package cli

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/marks/internal/domain"
)

func newLinksCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "links",
		Short: "Check bookmark links",
	}
	cmd.AddCommand(newLinksCheckCmd(e))
	return cmd
}

func newLinksCheckCmd(e *env) *cobra.Command {
	var (
		remove bool
		asJSON bool
		all    bool
	)
	cmd := &cobra.Command{
		Use:   "check [id]...",
		Short: "Probe bookmark urls; --remove deletes the broken ones",
		Long: `Probe every bookmark (or the listed ones) and classify it as working,
uncertain or broken. Network probes run in small batches; Ctrl-C stops
after the current batch and reports what was checked.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if remove {
				if err := requireYes(cmd); err != nil {
					return err
				}
			}
			lib, err := e.library(cmd.Context())
			if err != nil {
				return err
			}

			total := lib.Bookmarks.Len()
			if len(args) > 0 {
				total = len(lib.Bookmarks.GetMany(args))
			}
			bar := progressbar.NewOptions(total,
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionSetDescription("checking links"),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
			results, checkErr := lib.CheckLinks(cmd.Context(), args, func(done, _ int) {
				_ = bar.Set(done)
			})
			_ = bar.Finish()
			if checkErr != nil && len(results) == 0 {
				return checkErr
			}

			shown := results
			if !all {
				shown = notWorking(results)
			}
			if asJSON {
				if err := printJSON(out(cmd), shown); err != nil {
					return err
				}
			} else if err := printLinkResults(out(cmd), shown); err != nil {
				return err
			}

			s := domain.SummarizeLinks(results)
			fmt.Fprintf(cmd.ErrOrStderr(), "%d checked: %d working, %d uncertain, %d broken\n",
				s.Total, s.Working, s.Uncertain, s.Broken)
			if checkErr != nil {
				return fmt.Errorf("check interrupted: %w", checkErr)
			}

			if remove {
				_, n := lib.RemoveBrokenLinks(cmd.Context())
				fmt.Fprintf(cmd.ErrOrStderr(), "removed %d broken bookmarks\n", n)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&remove, "remove", false, "delete bookmarks found broken")
	cmd.Flags().BoolVar(&all, "all", false, "list working links too")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	addYesFlag(cmd)
	return cmd
}

// notWorking keeps the broken and uncertain results.
func notWorking(rs []domain.LinkCheckResult) []domain.LinkCheckResult {
	out := make([]domain.LinkCheckResult, 0, len(rs))
	for _, r := range rs {
		if r.Verdict() != domain.VerdictWorking {
			out = append(out, r)
		}
	}
	return out
}
