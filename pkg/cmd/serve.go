package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/goosemania/pulp-2to3-migrate/pkg/server"
	"github.com/goosemania/pulp-2to3-migrate/pkg/service"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the migration API and run migration tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, opts)
		},
	}

	cmd.Flags().String("address", "", "Address the API listens on")
	cmd.Flags().String("api-root", "", "Path prefix of the API")

	return cmd
}

func serve(ctx context.Context, opts *rootOptions) error {
	app, err := newApplication(ctx, opts.cfg)
	if err != nil {
		return err
	}
	defer app.Close(context.WithoutCancel(ctx))

	if err := app.queue.FailOrphaned(ctx); err != nil {
		return err
	}

	migrationService := service.NewMigrationService(opts.cfg, app.store, app.queue, app.registry)

	httpApp, err := server.NewApp(opts.cfg, migrationService, app.metrics)
	if err != nil {
		return err
	}

	logrus.Infof("Starting pulp-2to3-migrate %s", opts.cfg.Version)

	return server.Launch(ctx, opts.cfg, httpApp, app.queue)
}
