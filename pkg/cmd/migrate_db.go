package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/goosemania/pulp-2to3-migrate/pkg/store/sql"
)

func newMigrateDBCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-db",
		Short: "Create or upgrade the tables of the Pulp 3 database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := sql.NewSQLStore(logrus.StandardLogger(), opts.cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Migrate(cmd.Context()); err != nil {
				return err
			}

			logrus.Info("Database schema is up to date")

			return nil
		},
	}
}
