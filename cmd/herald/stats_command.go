package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"herald/internal/queue"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show queue counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return fmt.Errorf("load stats: %w", err)
				}

				out := cmd.OutOrStdout()
				rows := [][]string{
					{"Pending", strconv.Itoa(stats.Pending)},
					{"Processing", strconv.Itoa(stats.Processing)},
					{"Sent today", strconv.Itoa(stats.SentToday)},
					{"Failed", strconv.Itoa(stats.Failed)},
					{"Dead letter", strconv.Itoa(stats.DeadLetter)},
				}
				fmt.Fprintln(out, renderTable(out,
					[]string{"Status", "Count"},
					rows,
					[]columnAlignment{alignLeft, alignRight},
				))
				return nil
			})
		},
	}
}
