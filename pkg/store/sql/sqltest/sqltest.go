// Package sqltest opens throwaway SQLite stores for tests.
package sqltest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/goosemania/pulp-2to3-migrate/pkg/config"
	"github.com/goosemania/pulp-2to3-migrate/pkg/store/sql"
)

// NewStore returns a migrated store backed by a SQLite file in a temporary directory.
func NewStore(t *testing.T, batchSize int) *sql.Store {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	store, err := sql.NewSQLStore(logger, &config.Config{
		DatabaseURL: "sqlite://" + filepath.Join(t.TempDir(), "pulp.db"),
		BatchSize:   batchSize,
	})
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))

	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}
