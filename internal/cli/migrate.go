package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Shivanand-hulikatti/eventure/internal/config"
	"github.com/Shivanand-hulikatti/eventure/internal/database"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Long: `Apply the embedded PostgreSQL schema. Every statement is idempotent,
so running migrate against an up-to-date database changes nothing.

Connection settings come from DATABASE_URL or DB_HOST, DB_PORT, DB_USER,
DB_PASSWORD, DB_NAME and DB_SSLMODE.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log, err := setupLogger(rootOpts, cfg.LogLevel)
			if err != nil {
				return err
			}

			pool, err := database.NewPool(cmd.Context(), cfg.DB)
			if err != nil {
				return fmt.Errorf("database: %w", err)
			}
			defer pool.Close()

			if err := database.Migrate(cmd.Context(), pool); err != nil {
				return err
			}
			log.Info("schema applied", "statements", len(database.Statements()))
			return nil
		},
	}
}
