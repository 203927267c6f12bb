// Package migration implements the migrate_from_pulp2 task.
package migration

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/goosemania/pulp-2to3-migrate/pkg/artifact"
	"github.com/goosemania/pulp-2to3-migrate/pkg/contract"
	"github.com/goosemania/pulp-2to3-migrate/pkg/metrics"
	"github.com/goosemania/pulp-2to3-migrate/pkg/plugin"
	"github.com/goosemania/pulp-2to3-migrate/pkg/pulp2"
	"github.com/goosemania/pulp-2to3-migrate/pkg/store"
	"github.com/goosemania/pulp-2to3-migrate/pkg/store/sql/model"
	"github.com/goosemania/pulp-2to3-migrate/pkg/tasking"
)

const (
	TaskName = "migrate_from_pulp2"
	// ReservedResource serializes migrations, only one runs at a time.
	ReservedResource = "pulp_2to3_migration"

	KwargMigrationPlan = "migration_plan_pk"
	KwargDryRun        = "dry_run"
)

type Options struct {
	BatchSize   int
	Concurrency int
}

type Migrator struct {
	store    store.MigrationStore
	source   pulp2.Source
	registry *plugin.Registry
	importer *artifact.Importer
	metrics  *metrics.Metrics
	options  Options
}

func NewMigrator(
	st store.MigrationStore,
	source pulp2.Source,
	registry *plugin.Registry,
	importer *artifact.Importer,
	m *metrics.Metrics,
	options Options,
) *Migrator {
	if options.BatchSize < 1 {
		options.BatchSize = 1000
	}

	if options.Concurrency < 1 {
		options.Concurrency = 1
	}

	return &Migrator{
		store:    st,
		source:   source,
		registry: registry,
		importer: importer,
		metrics:  m,
		options:  options,
	}
}

// Run is the body of the migrate_from_pulp2 task.
func (m *Migrator) Run(ctx context.Context, task *tasking.Task) error {
	planID, ok := task.Kwargs[KwargMigrationPlan].(string)
	if !ok || planID == "" {
		return fmt.Errorf("missing %s argument", KwargMigrationPlan)
	}

	dryRun, _ := task.Kwargs[KwargDryRun].(bool)

	stored, contractErr := m.store.GetMigrationPlan(ctx, planID)
	if contractErr != nil {
		return contractErr
	}

	plan, err := ParsePlan([]byte(stored.Plan), m.registry)
	if err != nil {
		return err
	}

	return m.Migrate(ctx, task, plan, dryRun)
}

func (m *Migrator) Migrate(ctx context.Context, task *tasking.Task, plan *Plan, dryRun bool) error {
	types := plan.contentTypes()
	logger := task.Logger().WithField("dry_run", dryRun)

	if dryRun {
		logger.Info("Counting Pulp 2 content to migrate")

		return m.countContent(ctx, task, types)
	}

	logger.Info("Pre-migrating Pulp 2 content")

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(m.options.Concurrency)

	for _, ct := range types {
		ct := ct
		group.Go(func() error {
			return m.preMigrate(groupCtx, task, ct)
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}

	logger.Info("Migrating content to Pulp 3")

	for _, ct := range types {
		if err := m.migrateContent(ctx, task, ct); err != nil {
			return err
		}
	}

	logger.Info("Migration finished")

	return nil
}

// countContent reports how many Pulp 2 units each content type would pre-migrate.
func (m *Migrator) countContent(ctx context.Context, task *tasking.Task, types []contentType) error {
	for _, ct := range types {
		since, err := m.store.LastUpdated(ctx, ct.typeID)
		if err != nil {
			return err
		}

		count, err := m.source.Count(ctx, ct.typeID, since)
		if err != nil {
			return fmt.Errorf("failed to count pulp 2 %s content: %w", ct.typeID, err)
		}

		progress, err := task.NewProgress(
			ctx, fmt.Sprintf("migrating.%s.dry_run", ct.typeID),
			fmt.Sprintf("Pulp 2 %s content to migrate", ct.typeID), count,
		)
		if err != nil {
			return err
		}

		if err := progress.Increment(ctx, int(count)); err != nil {
			return err
		}

		if err := progress.Finish(ctx, contract.TaskStateCompleted); err != nil {
			return err
		}
	}

	return nil
}

// preMigrate stages Pulp 2 units updated since the last staged unit of the type. Units of
// that last second are read again, staging ignores the ones already present.
func (m *Migrator) preMigrate(ctx context.Context, task *tasking.Task, ct contentType) error {
	since, err := m.store.LastUpdated(ctx, ct.typeID)
	if err != nil {
		return err
	}

	total, err := m.source.Count(ctx, ct.typeID, since)
	if err != nil {
		return fmt.Errorf("failed to count pulp 2 %s content: %w", ct.typeID, err)
	}

	progress, err := task.NewProgress(
		ctx, fmt.Sprintf("migrating.%s.pre_migration", ct.typeID),
		fmt.Sprintf("Pre-migrating Pulp 2 %s content", ct.typeID), total,
	)
	if err != nil {
		return err
	}

	err = m.source.Units(ctx, ct.typeID, since, m.options.BatchSize, func(units []pulp2.FileContentUnit) error {
		batch := make([]model.Pulp2Content, 0, len(units))
		for _, unit := range units {
			batch = append(batch, model.NewPulp2ContentFromUnit(unit))
		}

		// Staging and detail rows of a batch commit together.
		if err := m.store.InTransaction(ctx, func(st store.ContentStore) error {
			staged, err := st.CreatePulp2Content(ctx, batch)
			if err != nil {
				return err
			}

			if err := ct.detail.PreMigrateContentDetail(ctx, m.source, st, staged); err != nil {
				return fmt.Errorf("failed to pre-migrate %s content detail: %w", ct.typeID, err)
			}

			return nil
		}); err != nil {
			return err
		}

		m.metrics.ContentPremigrated(ct.typeID, len(units))

		return progress.Increment(ctx, len(units))
	})
	if err != nil {
		_ = progress.Finish(context.WithoutCancel(ctx), contract.TaskStateFailed)

		return err
	}

	return progress.Finish(ctx, contract.TaskStateCompleted)
}

// migrateContent creates Pulp 3 content for every staged unit of the type without one.
func (m *Migrator) migrateContent(ctx context.Context, task *tasking.Task, ct contentType) error {
	total, err := m.store.CountUnmigratedContent(ctx, ct.typeID)
	if err != nil {
		return err
	}

	progress, err := task.NewProgress(
		ctx, fmt.Sprintf("migrating.%s.content", ct.typeID),
		fmt.Sprintf("Migrating %s content to Pulp 3", ct.typeID), total,
	)
	if err != nil {
		return err
	}

	if err := m.migrateBatches(ctx, task.Logger().WithField("content_type", ct.typeID), ct, progress); err != nil {
		_ = progress.Finish(context.WithoutCancel(ctx), contract.TaskStateFailed)

		return err
	}

	return progress.Finish(ctx, contract.TaskStateCompleted)
}

func (m *Migrator) migrateBatches(
	ctx context.Context, logger *logrus.Entry, ct contentType, progress *tasking.Progress,
) error {
	after := ""

	for {
		batch, err := m.store.UnmigratedContent(ctx, ct.typeID, after, m.options.BatchSize)
		if err != nil {
			return err
		}

		if len(batch) == 0 {
			return nil
		}

		after = batch[len(batch)-1].ID

		pending, err := ct.detail.CreatePulp3Content(ctx, m.store, batch)
		if err != nil {
			return fmt.Errorf("failed to create pulp 3 %s content: %w", ct.typeID, err)
		}

		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(m.options.Concurrency)

		for _, content := range pending {
			content := content
			group.Go(func() error {
				return m.save(groupCtx, logger, content)
			})
		}

		if err := group.Wait(); err != nil {
			return err
		}

		m.metrics.ContentMigrated(ct.typeID, len(pending))

		if err := progress.Increment(ctx, len(batch)); err != nil {
			return err
		}
	}
}

// save imports the artifact of pending content, when its Pulp 2 file was downloaded, and saves
// the content. Files that are missing or don't match are left to be downloaded on demand.
func (m *Migrator) save(ctx context.Context, logger *logrus.Entry, pending plugin.PendingContent) error {
	var contentArtifacts []model.ContentArtifact

	if want := pending.Artifact; want != nil {
		contentArtifact := model.ContentArtifact{RelativePath: want.RelativePath}

		staged := pending.Staged
		if staged.Downloaded && staged.Pulp2StoragePath != nil && m.importer != nil {
			imported, err := m.importer.Import(ctx, *staged.Pulp2StoragePath, want.ExpectedDigests, want.ExpectedSize)

			switch {
			case err == nil:
				contentArtifact.Artifact = imported
			case artifact.IsOnDemand(err):
				logger.WithError(err).WithField("pulp2_id", staged.Pulp2ID).
					Warn("Content is migrated without its artifact")
			default:
				return fmt.Errorf("failed to import artifact of pulp 2 content %s: %w", staged.Pulp2ID, err)
			}
		}

		contentArtifacts = append(contentArtifacts, contentArtifact)
	}

	if _, err := m.store.SavePulp3Content(ctx, pending.Staged, pending.Content, contentArtifacts); err != nil {
		return fmt.Errorf("failed to save pulp 3 content for pulp 2 content %s: %w", pending.Staged.Pulp2ID, err)
	}

	return nil
}
