package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"campusattend/internal/store"
)

type migrateFlags struct {
	driver      string
	databaseURL string
	sqlitePath  string
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &migrateFlags{}
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Long: `Apply the attendance schema to the configured database.

Connection settings come from the environment (DB_DRIVER, DATABASE_URL,
SQLITE_PATH) unless overridden by flags. Safe to run repeatedly.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rootOpts.load()
			if flags.driver != "" {
				cfg.DBDriver = flags.driver
			}
			if flags.databaseURL != "" {
				cfg.DatabaseURL = flags.databaseURL
			}
			if flags.sqlitePath != "" {
				cfg.SQLitePath = flags.sqlitePath
			}

			db, err := store.Open(cfg.DBDriver, cfg.DatabaseURL, cfg.SQLitePath)
			if err != nil {
				_ = db.Close()
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			if err := db.Migrate(cmd.Context()); err != nil {
				return err
			}
			return write(cmd.OutOrStdout(), rootOpts.Format,
				map[string]string{"status": "ok", "dialect": string(db.Dialect)},
				fmt.Sprintf("✓ schema applied (%s)", db.Dialect))
		},
	}

	cmd.Flags().StringVar(&flags.driver, "driver", "", "database driver (postgres|sqlite)")
	cmd.Flags().StringVar(&flags.databaseURL, "database-url", "", "postgres connection string")
	cmd.Flags().StringVar(&flags.sqlitePath, "sqlite-path", "", "sqlite database file")

	return cmd
}
