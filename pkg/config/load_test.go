package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goosemania/pulp-2to3-migrate/pkg/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "/pulp/api/v3", cfg.APIRoot)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 1000, cfg.BatchSize)
	assert.Equal(t, 30*time.Second, cfg.MongoConnectTimeout.Duration)
	assert.Equal(t, config.StorageBackendFileSystem, cfg.Storage.Backend)
}

func TestLoadPrecedence(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
workers: 3
batch_size: 50
shutdown_timeout: 5s
storage:
  backend: s3
  s3_bucket: pulp
  s3_endpoint: http://localhost:9000
`), 0o600))

	t.Setenv("PULP_2TO3_BATCH_SIZE", "250")
	t.Setenv("PULP_2TO3_STORAGE_S3_PREFIX", "media")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("workers", 0, "")
	flags.String("api-root", "", "")
	flags.String("unrelated", "", "")
	require.NoError(t, flags.Parse([]string{"--workers", "8", "--api-root", "/api/v3", "--unrelated", "x"}))

	cfg, err := config.Load(file, flags)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "/api/v3", cfg.APIRoot)
	assert.Equal(t, 250, cfg.BatchSize)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout.Duration)
	assert.Equal(t, config.StorageBackendS3, cfg.Storage.Backend)
	assert.Equal(t, "pulp", cfg.Storage.S3Bucket)
	assert.Equal(t, "http://localhost:9000", cfg.Storage.S3Endpoint)
	assert.Equal(t, "media", cfg.Storage.S3Prefix)
}

func TestLoadInvalid(t *testing.T) {
	t.Setenv("PULP_2TO3_WORKERS", "0")
	t.Setenv("PULP_2TO3_STORAGE_BACKEND", "s3")

	_, err := config.Load("", nil)
	require.ErrorContains(t, err, "workers must be at least 1, got 0")
	require.ErrorContains(t, err, "storage.s3_bucket is required for the s3 backend")
}

func TestDurationUnmarshalJSON(t *testing.T) {
	var d config.Duration

	require.NoError(t, d.UnmarshalJSON([]byte(`"1m30s"`)))
	assert.Equal(t, 90*time.Second, d.Duration)

	require.NoError(t, d.UnmarshalJSON([]byte(`1000`)))
	assert.Equal(t, time.Microsecond, d.Duration)

	require.Error(t, d.UnmarshalJSON([]byte(`true`)))
}
