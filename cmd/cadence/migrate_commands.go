package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cadence/internal/library"
	"cadence/internal/migration"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Bulk re-harmonization of the library",
	}

	migrateCmd.AddCommand(newMigrateStartCommand(ctx))
	migrateCmd.AddCommand(newMigrateStatusCommand(ctx))
	migrateCmd.AddCommand(newMigrateControlCommand(ctx, "pause", "Pause the active migration at the next track"))
	migrateCmd.AddCommand(newMigrateControlCommand(ctx, "resume", "Resume a paused migration"))
	migrateCmd.AddCommand(newMigrateControlCommand(ctx, "cancel", "Cancel the active migration at the next track"))
	migrateCmd.AddCommand(newMigrateRollbackCommand(ctx))

	return migrateCmd
}

func (c *commandContext) withOrchestrator(fn func(*migration.Orchestrator, *library.Store) error) error {
	harmonizer, err := c.buildHarmonizer()
	if err != nil {
		return err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}
	return c.withStore(func(store *library.Store) error {
		cfg, _ := c.ensureConfig()
		return fn(migration.New(store, harmonizer, cfg, logger), store)
	})
}

func newMigrateStartCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Run a migration over every track in the library",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withOrchestrator(func(o *migration.Orchestrator, _ *library.Store) error {
				jobID, err := o.Start(cmd.Context(), dryRun)
				if err != nil {
					return err
				}
				if jobID == "" {
					fmt.Fprintln(cmd.OutOrStdout(), "A migration job is already active; nothing started.")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Migration %s started (dry run: %s)\n", jobID, yesNo(dryRun))

				// The CLI process owns the worker goroutine, so block until
				// the job reaches a terminal state.
				o.Wait()
				job, err := o.Status(cmd.Context(), jobID)
				if err != nil {
					return err
				}
				return printJob(cmd, ctx, job)
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Record would-apply outcomes without touching tracks")
	return cmd
}

func newMigrateStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status [job-id]",
		Short: "Show the latest or a specific migration job",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withOrchestrator(func(o *migration.Orchestrator, _ *library.Store) error {
				jobID := ""
				if len(args) == 1 {
					jobID = args[0]
				}
				job, err := o.Status(cmd.Context(), jobID)
				if err != nil {
					return err
				}
				if job == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "No migration jobs found.")
					return nil
				}
				return printJob(cmd, ctx, job)
			})
		},
	}
}

func newMigrateControlCommand(ctx *commandContext, action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withOrchestrator(func(o *migration.Orchestrator, _ *library.Store) error {
				var err error
				switch action {
				case "pause":
					err = o.Pause(cmd.Context())
				case "resume":
					err = o.Resume(cmd.Context())
				case "cancel":
					err = o.Cancel()
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Requested %s.\n", action)
				return nil
			})
		},
	}
}

func newMigrateRollbackCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rollback <job-id>",
		Short: "Restore pre-migration metadata from a job's audit rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withOrchestrator(func(o *migration.Orchestrator, _ *library.Store) error {
				restored, err := o.Rollback(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]int{"rolled_back": restored})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Restored %d track(s) from job %s\n", restored, args[0])
				return nil
			})
		},
	}
}

func printJob(cmd *cobra.Command, ctx *commandContext, job *library.Job) error {
	if ctx.jsonOutput() {
		return writeJSON(cmd, jobView(job))
	}

	percent := 0.0
	if job.TotalTracks > 0 {
		percent = float64(job.ProcessedTracks) / float64(job.TotalTracks) * 100
	}
	rows := [][]string{{
		job.ID,
		string(job.Status),
		fmt.Sprintf("%d/%d (%.0f%%)", job.ProcessedTracks, job.TotalTracks, percent),
		fmt.Sprintf("%d", job.AppliedTracks),
		fmt.Sprintf("%d", job.FailedTracks),
		yesNo(job.DryRun),
	}}
	stdout := cmd.OutOrStdout()
	out := renderTable(
		[]string{"Job", "Status", "Progress", "Applied", "Failed", "Dry run"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
		isTerminal(stdout),
	)
	fmt.Fprintln(stdout, out)
	if job.ErrorMessage != "" {
		fmt.Fprintf(stdout, "Error: %s\n", job.ErrorMessage)
	}
	return nil
}

type jobJSON struct {
	ID              string `json:"id"`
	Status          string `json:"status"`
	TotalTracks     int    `json:"total_tracks"`
	ProcessedTracks int    `json:"processed_tracks"`
	AppliedTracks   int    `json:"applied_tracks"`
	FailedTracks    int    `json:"failed_tracks"`
	DryRun          bool   `json:"dry_run"`
	ErrorMessage    string `json:"error_message,omitempty"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

func jobView(job *library.Job) jobJSON {
	return jobJSON{
		ID:              job.ID,
		Status:          string(job.Status),
		TotalTracks:     job.TotalTracks,
		ProcessedTracks: job.ProcessedTracks,
		AppliedTracks:   job.AppliedTracks,
		FailedTracks:    job.FailedTracks,
		DryRun:          job.DryRun,
		ErrorMessage:    job.ErrorMessage,
		CreatedAt:       job.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt:       job.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
