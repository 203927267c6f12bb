package server

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/goosemania/pulp-2to3-migrate/pkg/config"
)

// Runner runs until its context is canceled, like the task queue workers.
type Runner interface {
	Run(ctx context.Context) error
}

func launchServer(ctx context.Context, cfg *config.Config, app *fiber.App) error {
	go func() {
		<-ctx.Done()

		if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout.Duration); err != nil {
			logrus.Errorf("Failed to gracefully shutdown the migration server: %v", err)
		}
	}()

	logrus.Infof("Listening on %s", cfg.Address)

	if err := app.Listen(cfg.Address); err != nil {
		return fmt.Errorf("failed to start the migration server: %w", err)
	}

	return nil
}

// Launch serves app and runs the workers. When either stops, the other one is stopped too.
func Launch(ctx context.Context, cfg *config.Config, app *fiber.App, workers Runner) error {
	var (
		errs []error
		mu   sync.Mutex
		wg   sync.WaitGroup
	)

	workersCtx, workersCancel := context.WithCancel(ctx)
	srvCtx, srvCancel := context.WithCancel(ctx)

	defer workersCancel()
	defer srvCancel()

	appendErr := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	wg.Add(1)

	go func() {
		defer wg.Done()

		if err := workers.Run(workersCtx); err != nil && workersCtx.Err() == nil {
			appendErr(err)
		}

		srvCancel()
	}()

	wg.Add(1)

	go func() {
		defer wg.Done()

		if err := launchServer(srvCtx, cfg, app); err != nil && srvCtx.Err() == nil {
			appendErr(err)
		}

		workersCancel()
	}()

	wg.Wait()

	return errors.Join(errs...)
}
