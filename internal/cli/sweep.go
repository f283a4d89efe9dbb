package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/marks/internal/scheduler"
)

func newSweepCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Remove project references to deleted bookmarks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := e.library(cmd.Context())
			if err != nil {
				return err
			}
			s := scheduler.NewRefSweeper(lib, e.logger(), 0, nil)
			n := s.Sweep(cmd.Context())
			fmt.Fprintf(out(cmd), "removed %d dangling references\n", n)
			return nil
		},
	}
}

func newServeCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the local HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// The server always logs.
			e.verbose = true

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if _, err := e.library(ctx); err != nil {
				return err
			}
			return e.app.Serve(ctx)
		},
	}
}
