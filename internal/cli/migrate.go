package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"livequiz/internal/config"
	"livequiz/internal/infra/postgres/migrations"
)

// newMigrateCmd applies the quizzes schema, targeting either the configured
// postgres URL or an explicit --dsn override.
func newMigrateCmd(flags *rootFlags) *cobra.Command {
	var dsn string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the quizzes schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dsn == "" {
				cfg, err := config.Load(flags.configPath)
				if err != nil {
					return err
				}
				dsn = cfg.Postgres.URL
			}
			return runMigrations(cmd.Context(), dsn)
		},
	}
	cmd.Flags().StringVar(&dsn, "dsn", "", "postgres url (overrides config)")
	return cmd
}

func runMigrations(ctx context.Context, dsn string) error {
	if dsn == "" {
		return fmt.Errorf("postgres url not configured")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return err
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return err
	}
	if group.IsZero() {
		log.Printf("database schema already up to date")
		return nil
	}
	log.Printf("migrated to %s", group)
	return nil
}
