// Package cli implements the marks command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/marks/internal/app"
	"github.com/MrSnakeDoc/marks/internal/config"
	"github.com/MrSnakeDoc/marks/internal/library"
	"github.com/MrSnakeDoc/marks/internal/logger"
	"github.com/MrSnakeDoc/marks/internal/version"
)

var errNeedsYes = errors.New("refusing to delete without --yes")

// env is shared by every subcommand of one invocation. The store is opened
// on first use so that --help and --version never touch it.
type env struct {
	verbose  bool
	store    string
	database string

	cfg *config.Config
	log logger.Logger
	app *app.App
}

// newRootCommand builds the marks command tree around e.
func newRootCommand(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:   "marks",
		Short: "Bookmarks and projects, stored locally",
		Long: `marks keeps a bookmark collection and a set of projects that
group bookmarks with notes and tasks.

Data lives in SQLite by default (MARKS_DATABASE_URL), Redis or memory
(MARKS_STORE). Run "marks serve" for the local HTTP API.

Examples:
  marks bookmarks add --title Go --url https://go.dev --category Dev
  marks bookmarks list --tag golang
  marks bookmarks export --format html -o bookmarks.html
  marks projects create --name "Reading list"
  marks links check --remove --yes`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVarP(&e.verbose, "verbose", "v", false, "log to stderr")
	root.PersistentFlags().StringVar(&e.store, "store", "", "store backend: sqlite, redis or memory (default: MARKS_STORE)")
	root.PersistentFlags().StringVar(&e.database, "db", "", "database URL (default: MARKS_DATABASE_URL)")

	root.Version = version.Version
	root.SetVersionTemplate(fmt.Sprintf("marks %s (commit: %s, built: %s, %s)\n",
		version.Version, version.Commit, version.BuildDate, version.GoVersion))

	root.AddCommand(
		newServeCmd(e),
		newBookmarksCmd(e),
		newProjectsCmd(e),
		newLinksCmd(e),
		newSweepCmd(e),
	)
	return root
}

// Execute runs the command tree with ctx and releases the store afterwards.
func Execute(ctx context.Context, args []string) error {
	e := &env{}
	defer func() { _ = e.close() }()

	root := newRootCommand(e)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// config loads the environment configuration once and applies the flag
// overrides.
func (e *env) config() *config.Config {
	if e.cfg != nil {
		return e.cfg
	}
	cfg := config.Load()
	if e.store != "" {
		cfg.StoreBackend = e.store
	}
	if e.database != "" {
		cfg.DatabaseURL = e.database
	}
	e.cfg = cfg
	return cfg
}

func (e *env) logger() logger.Logger {
	if e.log != nil {
		return e.log
	}
	cfg := e.config()
	if e.verbose {
		e.log = logger.New(cfg.LogLevel, cfg.PrettyLog)
	} else {
		e.log = logger.Nop()
	}
	return e.log
}

// library opens the store and loads the collections.
func (e *env) library(ctx context.Context) (*library.Library, error) {
	if e.app == nil {
		a, err := app.New(ctx, e.config(), e.logger())
		if err != nil {
			return nil, err
		}
		e.app = a
	}
	return e.app.Library(), nil
}

func (e *env) close() error {
	if e.app == nil {
		return nil
	}
	err := e.app.Close()
	e.app = nil
	if e.log != nil {
		_ = e.log.Sync()
	}
	return err
}

// requireYes guards destructive commands.
func requireYes(cmd *cobra.Command) error {
	yes, _ := cmd.Flags().GetBool("yes")
	if !yes {
		return errNeedsYes
	}
	return nil
}

func addYesFlag(cmd *cobra.Command) {
	cmd.Flags().BoolP("yes", "y", false, "confirm the deletion")
}

func out(cmd *cobra.Command) io.Writer { return cmd.OutOrStdout() }
