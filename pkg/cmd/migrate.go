package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/goosemania/pulp-2to3-migrate/pkg/contract"
	"github.com/goosemania/pulp-2to3-migrate/pkg/migration"
	"github.com/goosemania/pulp-2to3-migrate/pkg/store/sql/model"
)

type migrateFlags struct {
	planFile string
	dryRun   bool
}

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	var flags migrateFlags

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run a migration plan and wait for it to finish",
		Example: `  # Migrate every RPM and erratum
  pulp-2to3-migrate migrate --plan plan.json

  # Only count what would be migrated
  pulp-2to3-migrate migrate --plan plan.json --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runMigration(ctx, cmd, opts, flags)
		},
	}

	cmd.Flags().StringVar(&flags.planFile, "plan", "", "Path to the migration plan JSON file (required)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Count the Pulp 2 content to migrate without migrating it")
	_ = cmd.MarkFlagRequired("plan")

	return cmd
}

func runMigration(ctx context.Context, cmd *cobra.Command, opts *rootOptions, flags migrateFlags) error {
	raw, err := os.ReadFile(flags.planFile)
	if err != nil {
		return fmt.Errorf("failed to read migration plan: %w", err)
	}

	app, err := newApplication(ctx, opts.cfg)
	if err != nil {
		return err
	}
	defer app.Close(context.WithoutCancel(ctx))

	if _, err := migration.ParsePlan(raw, app.registry); err != nil {
		return err
	}

	plan := &model.MigrationPlan{Plan: string(raw)}
	if err := app.store.CreateMigrationPlan(ctx, plan); err != nil {
		return err
	}

	queueCtx, stopQueue := context.WithCancel(ctx)
	defer stopQueue()

	queueErr := make(chan error, 1)

	go func() {
		queueErr <- app.queue.Run(queueCtx)
	}()

	task, contractErr := app.queue.Enqueue(
		ctx, migration.TaskName, []string{migration.ReservedResource},
		map[string]any{migration.KwargMigrationPlan: plan.ID, migration.KwargDryRun: flags.dryRun},
	)
	if contractErr != nil {
		return contractErr
	}

	if err := app.store.AddMigrationPlanTask(ctx, plan.ID, task.ID); err != nil {
		return err
	}

	finished, contractErr := app.queue.Wait(ctx, task.ID)
	if contractErr != nil {
		return contractErr
	}

	stopQueue()

	if err := <-queueErr; err != nil {
		return err
	}

	return printTask(cmd, opts, finished)
}

func printTask(cmd *cobra.Command, opts *rootOptions, task *model.Task) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(task.ToContract(opts.cfg.APIRoot)); err != nil {
		return fmt.Errorf("failed to print task: %w", err)
	}

	if task.State != contract.TaskStateCompleted {
		return fmt.Errorf("migration task %s finished in state %s", task.ID, task.State)
	}

	return nil
}
