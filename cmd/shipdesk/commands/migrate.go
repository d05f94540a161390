package commands

import (
	"fmt"

	"github.com/smallbiznis/shipdesk/internal/config"
	"github.com/smallbiznis/shipdesk/internal/migration"
	"github.com/smallbiznis/shipdesk/internal/seed"
	"github.com/smallbiznis/shipdesk/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func migrateCmd() *cobra.Command {
	var skipSeed bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations and seed defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				conn   *gorm.DB
				cfg    config.Config
				seeder *seed.Seeder
			)
			app := fx.New(
				infra(),
				server.Services,
				fx.NopLogger,
				fx.Populate(&conn, &cfg, &seeder),
			)
			if err := app.Err(); err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := app.Start(ctx); err != nil {
				return err
			}
			defer app.Stop(ctx)

			if err := migration.Migrate(conn, cfg.DBType); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%s)\n", cfg.DBType)

			if skipSeed {
				return nil
			}
			return seeder.Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&skipSeed, "skip-seed", false, "do not create the bootstrap admin and default currency")
	return cmd
}
