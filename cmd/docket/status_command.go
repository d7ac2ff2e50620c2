package main

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"docket/internal/config"
	"docket/internal/queue"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				out := cmd.OutOrStdout()

				fmt.Fprintf(out, "Daemon running: %s\n", yesNo(daemonRunning(cfg)))
				fmt.Fprintf(out, "Queue database: %s\n", store.Path())
				fmt.Fprintf(out, "Inbox: %s\n", cfg.Paths.InboxDir)
				fmt.Fprintf(out, "Archive: %s\n", cfg.Paths.ArchiveDir)
				fmt.Fprintf(out, "Holding: %s\n", cfg.Paths.HoldingDir)

				health, err := store.Health(cmd.Context())
				if err != nil {
					return err
				}
				rows := [][]string{
					{"Staged", fmt.Sprintf("%d", health.Staged)},
					{"Processing", fmt.Sprintf("%d", health.Processing)},
					{"Succeeded", fmt.Sprintf("%d", health.Succeeded)},
					{"Failed", fmt.Sprintf("%d", health.Failed)},
					{"Needs review", fmt.Sprintf("%d", health.Review)},
					{"Total", fmt.Sprintf("%d", health.Total)},
				}
				fmt.Fprintln(out, renderTable([]string{"Queue", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}
}

// daemonRunning probes the daemon lock file. If the lock can be taken, no
// daemon holds it.
func daemonRunning(cfg *config.Config) bool {
	lock := flock.New(filepath.Join(cfg.Paths.DataDir, "docketd.lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return false
	}
	if ok {
		_ = lock.Unlock()
		return false
	}
	return true
}
