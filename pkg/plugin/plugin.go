// Package plugin defines how content type plugins take part in a migration.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/goosemania/pulp-2to3-migrate/pkg/pulp2"
	"github.com/goosemania/pulp-2to3-migrate/pkg/store"
	"github.com/goosemania/pulp-2to3-migrate/pkg/store/sql/model"
)

// ArtifactSpec describes the file a Pulp 3 content unit is backed by.
type ArtifactSpec struct {
	RelativePath    string
	ExpectedDigests map[string]string
	ExpectedSize    int64
}

// PendingContent is Pulp 3 content built from staged Pulp 2 content, not saved yet.
type PendingContent struct {
	Staged  model.Pulp2Content
	Content model.Pulp3Content
	// Artifact is nil for content without a file, like errata.
	Artifact *ArtifactSpec
}

// DetailModel stages the type specific fields of Pulp 2 units and turns them into Pulp 3 content.
type DetailModel interface {
	TypeID() string
	// PreMigrateContentDetail reads the Pulp 2 units of a batch of staged content and
	// bulk creates their detail rows, ignoring rows created before. Every unit of the batch
	// must still exist in Pulp 2.
	PreMigrateContentDetail(
		ctx context.Context, source pulp2.Source, st store.ContentStore, batch []model.Pulp2Content,
	) error
	// CreatePulp3Content builds Pulp 3 content for a batch of staged content, one per staged row.
	CreatePulp3Content(ctx context.Context, st store.ContentStore, batch []model.Pulp2Content) ([]PendingContent, error)
}

// Migrator is a plugin able to migrate one or more Pulp 2 content types.
type Migrator interface {
	Name() string
	// ContentTypes lists the Pulp 2 content types in migration order.
	ContentTypes() []string
	DetailModel(typeID string) (DetailModel, bool)
}

var (
	ErrRefusedMigrator   = errors.New("migrator is not supported")
	ErrDuplicateMigrator = errors.New("migrator already registered")
	// ErrMissingDetail reports staged content whose detail is missing, in Pulp 2 or in the staging tables.
	ErrMissingDetail = errors.New("missing content detail")
)

// refused lists plugin names that are known but cannot be migrated.
//
//nolint:gochecknoglobals
var refused = map[string]struct{}{
	"docker": {},
}

type Registry struct {
	mu        sync.RWMutex
	migrators map[string]Migrator
}

func NewRegistry() *Registry {
	return &Registry{migrators: make(map[string]Migrator)}
}

func (r *Registry) Register(migrator Migrator) error {
	name := migrator.Name()
	if _, ok := refused[name]; ok {
		return fmt.Errorf("%w: %s", ErrRefusedMigrator, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.migrators[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateMigrator, name)
	}

	r.migrators[name] = migrator

	return nil
}

//nolint:ireturn
func (r *Registry) Get(name string) (Migrator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	migrator, ok := r.migrators[name]

	return migrator, ok
}

// Names returns the registered migrator names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.migrators))
	for name := range r.migrators {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
