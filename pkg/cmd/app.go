package cmd

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/goosemania/pulp-2to3-migrate/pkg/artifact"
	"github.com/goosemania/pulp-2to3-migrate/pkg/config"
	"github.com/goosemania/pulp-2to3-migrate/pkg/metrics"
	"github.com/goosemania/pulp-2to3-migrate/pkg/migration"
	"github.com/goosemania/pulp-2to3-migrate/pkg/plugin"
	"github.com/goosemania/pulp-2to3-migrate/pkg/plugin/rpm"
	"github.com/goosemania/pulp-2to3-migrate/pkg/pulp2"
	"github.com/goosemania/pulp-2to3-migrate/pkg/store/sql"
	"github.com/goosemania/pulp-2to3-migrate/pkg/tasking"
)

// application wires the stores, the plugins and the task queue.
type application struct {
	cfg      *config.Config
	store    *sql.Store
	source   *pulp2.MongoSource
	registry *plugin.Registry
	metrics  *metrics.Metrics
	queue    *tasking.Queue
}

func newRegistry() (*plugin.Registry, error) {
	registry := plugin.NewRegistry()
	if err := rpm.Register(registry); err != nil {
		return nil, err
	}

	return registry, nil
}

func newApplication(ctx context.Context, cfg *config.Config) (*application, error) {
	registry, err := newRegistry()
	if err != nil {
		return nil, err
	}

	store, err := sql.NewSQLStore(logrus.StandardLogger(), cfg)
	if err != nil {
		return nil, fmt.Errorf("could not create new sql store: %w", err)
	}

	if err := store.Ping(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	storage, err := artifact.NewStorage(ctx, cfg.Storage)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	source, err := pulp2.Connect(ctx, cfg.MongoURL, cfg.MongoDatabase, cfg.MongoConnectTimeout.Duration)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	registerer := prometheus.NewRegistry()
	registerer.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	appMetrics := metrics.New(registerer)
	queue := tasking.NewQueue(store, cfg.Workers, appMetrics)

	migrator := migration.NewMigrator(store, source, registry, artifact.NewImporter(storage), appMetrics, migration.Options{
		BatchSize:   cfg.BatchSize,
		Concurrency: cfg.Concurrency,
	})
	queue.Register(migration.TaskName, migrator.Run)

	return &application{
		cfg:      cfg,
		store:    store,
		source:   source,
		registry: registry,
		metrics:  appMetrics,
		queue:    queue,
	}, nil
}

func (a *application) Close(ctx context.Context) {
	if err := a.source.Close(ctx); err != nil {
		logrus.Warnf("Failed to disconnect from Pulp 2 database: %v", err)
	}

	if err := a.store.Close(); err != nil {
		logrus.Warnf("Failed to close Pulp 3 database: %v", err)
	}
}
