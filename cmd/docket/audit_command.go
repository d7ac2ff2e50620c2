package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"docket/internal/audit"
	"docket/internal/config"
	"docket/internal/queue"
)

func newAuditCommand(ctx *commandContext) *cobra.Command {
	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the audit trail",
	}
	auditCmd.AddCommand(newAuditListCommand(ctx))
	return auditCmd
}

func newAuditListCommand(ctx *commandContext) *cobra.Command {
	var itemID int64
	var eventType string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List audit events, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				recorder, err := audit.NewRecorder(store)
				if err != nil {
					return err
				}
				entries, err := recorder.List(cmd.Context(), audit.Query{
					ItemID:    itemID,
					EventType: eventType,
					Limit:     limit,
				})
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No audit events recorded")
					return nil
				}

				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					item := ""
					if entry.ItemID > 0 {
						item = strconv.FormatInt(entry.ItemID, 10)
					}
					rows = append(rows, []string{
						entry.Timestamp.Local().Format(time.RFC3339),
						entry.EventType,
						item,
						entry.Actor,
						entry.Outcome,
						entry.Detail,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Time", "Event", "Item", "Actor", "Outcome", "Detail"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&itemID, "item", 0, "Filter by item id")
	cmd.Flags().StringVar(&eventType, "event", "", "Filter by event type")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of events")
	return cmd
}
