package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"docket/internal/daemon"
	"docket/internal/logging"
	"docket/internal/queue"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the watcher and triage pipeline in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			store, err := queue.Open(cfg)
			if err != nil {
				return fmt.Errorf("open queue store: %w", err)
			}

			services, err := daemon.BuildServices(cfg, store, logger)
			if err != nil {
				_ = store.Close()
				return fmt.Errorf("build services: %w", err)
			}
			defer services.Close()

			d, err := daemon.New(cfg, store, services.Watcher, services.Processor, logger)
			if err != nil {
				_ = store.Close()
				return err
			}
			defer d.Close()

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := d.Start(runCtx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "docket running; watching %s (ctrl-c to stop)\n", cfg.Paths.InboxDir)

			<-runCtx.Done()
			d.Stop()
			fmt.Fprintln(cmd.OutOrStdout(), "docket stopped")
			return nil
		},
	}
}
