package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/outorga-facil/filing-pipeline/internal/ingest"
)

var watchRoot string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch a drop directory and register new source files",
	Long: `watch runs the ingest watcher in the foreground. Files dropped under
<root>/<project>/<category>/ are registered into the owning project,
creating the project on first sight. Stop with Ctrl-C.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root := watchRoot
		if root == "" {
			root = current.cfg.Ingest.WatchRoot
		}
		if root == "" {
			return errors.New("no watch root: pass --root or set FILING_WATCH_ROOT")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		cmd.Printf("watching %s (Ctrl-C to stop)\n", root)
		w := ingest.NewWatcher(current.orch, root, current.cfg.Ingest.Debounce, current.logger)
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		cmd.Println("stopped.")
		return nil
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchRoot, "root", "", "drop directory to watch")
	rootCmd.AddCommand(watchCmd)
}
