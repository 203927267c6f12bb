package sql

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ncruces/go-sqlite3/gormlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"

	// Embed the sqlite WASM build used by gormlite.
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/goosemania/pulp-2to3-migrate/pkg/config"
	"github.com/goosemania/pulp-2to3-migrate/pkg/store/sql/model"
)

type Store struct {
	config *config.Config
	db     *gorm.DB
}

const slowQueryThreshold = 500 * time.Millisecond

// getDialector picks the gorm dialect from the scheme of the database URL.
//
//nolint:ireturn
func getDialector(databaseURL string) (gorm.Dialector, error) {
	uri, err := url.Parse(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL %q: %w", databaseURL, err)
	}

	switch uri.Scheme {
	case "postgres", "postgresql":
		uri.Scheme = "postgres"

		return postgres.Open(uri.String()), nil
	case "mysql":
		query := uri.Query()
		query.Set("parseTime", "true")

		dsn := fmt.Sprintf("%s@tcp(%s)%s?%s", uri.User.String(), uri.Host, uri.Path, query.Encode())

		return mysql.Open(dsn), nil
	case "mssql", "sqlserver":
		uri.Scheme = "sqlserver"

		return sqlserver.Open(uri.String()), nil
	case "sqlite":
		path := strings.TrimPrefix(databaseURL, "sqlite://")
		if path == "" || path == ":memory:" {
			path = "file::memory:"
		}

		return gormlite.Open(path), nil
	default:
		return nil, fmt.Errorf("unsupported database scheme %q", uri.Scheme)
	}
}

// NewDatabase opens the database behind the URL, logging SQL through logrus.
func NewDatabase(logger *logrus.Logger, databaseURL string) (*gorm.DB, error) {
	dialector, err := getDialector(databaseURL)
	if err != nil {
		return nil, err
	}

	database, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: NewLoggerAdaptor(logger, LoggerAdaptorConfig{
			SlowThreshold:             slowQueryThreshold,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if dialector.Name() == "sqlite" {
		// sqlite allows a single writer; serialize through one connection.
		sqlDB, err := database.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database connection: %w", err)
		}

		sqlDB.SetMaxOpenConns(1)
	}

	return database, nil
}

func NewSQLStore(logger *logrus.Logger, config *config.Config) (*Store, error) {
	database, err := NewDatabase(logger, config.DatabaseURL)
	if err != nil {
		return nil, err
	}

	return &Store{config: config, db: database}, nil
}

// Migrate creates or updates the tables of every model.
func (s Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("failed to migrate database schema: %w", err)
	}

	return nil
}

// Ping checks the database connection is alive.
func (s Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (s Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}

	return sqlDB.Close()
}

func (s Store) batchSize() int {
	if s.config.BatchSize > 0 {
		return s.config.BatchSize
	}

	return 1000
}
