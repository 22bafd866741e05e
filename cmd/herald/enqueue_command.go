package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"herald/internal/alert"
	"herald/internal/queue"
)

func newEnqueueCommand(ctx *commandContext) *cobra.Command {
	var (
		kindFlag     string
		priorityFlag string
		contextFlag  string
	)

	cmd := &cobra.Command{
		Use:   "enqueue SYMBOL MESSAGE",
		Short: "Enqueue an alert for delivery",
		Long: "Enqueue an alert for delivery. Known kinds: " +
			kindList() + ". Priority defaults to the kind's tier.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ok := alert.ParseKind(kindFlag)
			if !ok {
				return fmt.Errorf("unknown kind %q (known: %s)", kindFlag, kindList())
			}

			priority := alert.PriorityUnset
			if strings.TrimSpace(priorityFlag) != "" {
				parsed, ok := alert.ParsePriority(priorityFlag)
				if !ok {
					return fmt.Errorf("unknown priority %q (critical, high, medium, low)", priorityFlag)
				}
				priority = parsed
			}

			return ctx.withStore(func(store *queue.Store) error {
				record, err := store.Enqueue(cmd.Context(), queue.EnqueueRequest{
					Symbol:   args[0],
					Kind:     kind,
					Message:  args[1],
					Priority: priority,
					Context:  contextFlag,
				})
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if record == nil {
					fmt.Fprintln(out, "Suppressed: an equivalent alert is already live in the dedup window")
					return nil
				}
				fmt.Fprintf(out, "Enqueued alert %d (%s %s, priority %s)\n",
					record.ID, record.Symbol, record.Kind.DisplayName(), record.Priority)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&kindFlag, "kind", "k", string(alert.KindPriceChange), "Alert kind")
	cmd.Flags().StringVarP(&priorityFlag, "priority", "p", "", "Delivery priority (critical, high, medium, low)")
	cmd.Flags().StringVar(&contextFlag, "context", "", "Deduplication context, e.g. a price bucket")
	return cmd
}

func kindList() string {
	kinds := alert.AllKinds()
	names := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		names = append(names, string(kind))
	}
	return strings.Join(names, ", ")
}
