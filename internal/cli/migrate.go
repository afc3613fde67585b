package cli

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"campusid/internal/platform/migrations"
	"campusid/internal/platform/postgres"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the Postgres schema",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.withDatabase(cmd, func(m migrator) error {
					if err := migrations.Up(cmd.Context(), m.db); err != nil {
						return err
					}
					return m.printVersion(cmd)
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.withDatabase(cmd, func(m migrator) error {
					if err := migrations.Down(cmd.Context(), m.db); err != nil {
						return err
					}
					return m.printVersion(cmd)
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.withDatabase(cmd, func(m migrator) error {
					return m.printVersion(cmd)
				})
			},
		},
	)
	return cmd
}

type migrator struct {
	db *sql.DB
}

func (m migrator) printVersion(cmd *cobra.Command) error {
	v, err := migrations.Version(cmd.Context(), m.db)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", v)
	return nil
}

func (a *app) withDatabase(cmd *cobra.Command, fn func(migrator) error) error {
	if err := requireDatabase(a.cfg); err != nil {
		return err
	}
	db, err := postgres.Open(cmd.Context(), a.cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(migrator{db: db})
}
