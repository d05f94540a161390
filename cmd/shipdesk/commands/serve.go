package commands

import (
	"github.com/smallbiznis/shipdesk/internal/migration"
	"github.com/smallbiznis/shipdesk/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP admin API",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fx.New(
				infra(),
				migration.Module,
				server.Module,
			)
			if err := app.Err(); err != nil {
				return err
			}
			app.Run()
			return nil
		},
	}
}
