package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"cadence/internal/library"
)

func newReviewCommand(ctx *commandContext) *cobra.Command {
	reviewCmd := &cobra.Command{
		Use:   "review",
		Short: "Inspect and settle the metadata review queue",
	}

	reviewCmd.AddCommand(newReviewListCommand(ctx))
	reviewCmd.AddCommand(newReviewVerdictCommand(ctx, "resolve", "Mark a review item resolved"))
	reviewCmd.AddCommand(newReviewVerdictCommand(ctx, "dismiss", "Mark a review item dismissed"))

	return reviewCmd
}

func newReviewListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List pending review items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *library.Store) error {
				items, err := store.PendingReviews(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, items)
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Review queue is empty.")
					return nil
				}

				rows := make([][]string, 0, len(items))
				for _, item := range items {
					rows = append(rows, []string{
						strconv.FormatInt(item.ID, 10),
						strconv.FormatInt(item.TrackID, 10),
						item.Display,
						item.MetadataState,
						fmt.Sprintf("%.3f", item.Confidence),
						item.CreatedAt.Format("2006-01-02 15:04"),
					})
				}
				stdout := cmd.OutOrStdout()
				out := renderTable(
					[]string{"ID", "Track", "Display", "State", "Confidence", "Queued"},
					rows,
					[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft, alignRight, alignLeft},
					isTerminal(stdout),
				)
				fmt.Fprintln(stdout, out)
				return nil
			})
		},
	}
}

func newReviewVerdictCommand(ctx *commandContext, action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <item-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("parse item id %q: %w", args[0], err)
			}
			return ctx.withStore(func(store *library.Store) error {
				past := "resolved"
				if action == "resolve" {
					err = store.ResolveReview(cmd.Context(), id)
				} else {
					err = store.DismissReview(cmd.Context(), id)
					past = "dismissed"
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Review item %d %s.\n", id, past)
				return nil
			})
		},
	}
}
