package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/tbourn/go-devflow-backend/internal/repo"
)

func newMigrateCmd(a *app) *cobra.Command {
	var (
		sqliteFile string
		dbWait     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Long: "Create or update the database schema of the configured database.\n" +
			"With --sqlite-file the schema is written to that SQLite file instead.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			open := opener(a.cfg, true)
			if sqliteFile != "" {
				open = func(ctx context.Context) (*gorm.DB, error) {
					db, err := repo.OpenSQLite(sqliteFile)
					if err != nil {
						return nil, err
					}
					if err := repo.AutoMigrate(db.WithContext(ctx)); err != nil {
						closeDB(db)
						return nil, fmt.Errorf("migrate: %w", err)
					}
					return db, nil
				}
			}

			conn := repo.NewConnector(open)
			if _, err := connectWithRetry(cmd.Context(), conn, dbWait); err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()

			log.Info().Int("models", len(repo.Models())).Msg("schema up to date")
			fmt.Fprintf(cmd.OutOrStdout(), "migrated %d models\n", len(repo.Models()))
			return nil
		},
	}

	cmd.Flags().StringVar(&sqliteFile, "sqlite-file", "", "Migrate this SQLite file instead of the configured database")
	cmd.Flags().DurationVar(&dbWait, "db-wait", defaultDBWait, "How long to wait for the database")
	return cmd
}
