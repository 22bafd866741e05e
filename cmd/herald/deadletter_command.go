package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"herald/internal/queue"
)

func newDeadLetterCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "deadletter",
		Aliases: []string{"dead-letter", "dlq"},
		Short:   "List alerts that exhausted their retries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				records, err := store.DeadLetters(cmd.Context())
				if err != nil {
					return fmt.Errorf("load dead letters: %w", err)
				}

				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(out, "Dead-letter queue is empty")
					return nil
				}

				rows := make([][]string, 0, len(records))
				for _, record := range records {
					rows = append(rows, []string{
						strconv.FormatInt(record.ID, 10),
						record.Symbol,
						record.Kind.DisplayName(),
						record.Priority.String(),
						strconv.Itoa(record.RetryCount),
						record.ErrorMessage,
						record.UpdatedAt.Format("2006-01-02 15:04"),
					})
				}
				fmt.Fprintln(out, renderTable(out,
					[]string{"ID", "Symbol", "Kind", "Priority", "Retries", "Last Error", "Updated"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
}
