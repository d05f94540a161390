package commands

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/shipdesk/internal/authorization"
	"github.com/smallbiznis/shipdesk/internal/clock"
	"github.com/smallbiznis/shipdesk/internal/config"
	"github.com/smallbiznis/shipdesk/internal/migration"
	"github.com/smallbiznis/shipdesk/internal/observability"
	obscontext "github.com/smallbiznis/shipdesk/internal/observability/context"
	"github.com/smallbiznis/shipdesk/internal/seed"
	"github.com/smallbiznis/shipdesk/internal/server"
	"github.com/smallbiznis/shipdesk/pkg/db"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

const stopTimeout = 15 * time.Second

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "shipdesk",
		Short:         "Order tracking settings and admin backend",
		SilenceUsage: true,
	}

	root.AddCommand(
		serveCmd(),
		migrateCmd(),
		demoCmd(),
		exportCmd(),
		importCmd(),
		recoveryCmd(),
		cacheCmd(),
		settingsCmd(),
	)
	return root
}

// infra wires configuration, storage and telemetry shared by every command.
func infra() fx.Option {
	return fx.Options(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		seed.Module,
	)
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}

// startServices boots the domain services without the HTTP server and fills
// targets. Callers must invoke the returned stop func.
func startServices(ctx context.Context, targets ...any) (func(), error) {
	app := fx.New(
		infra(),
		server.Services,
		migration.Module,
		fx.NopLogger,
		fx.Populate(targets...),
	)
	if err := app.Err(); err != nil {
		return nil, err
	}
	if err := app.Start(ctx); err != nil {
		return nil, err
	}
	return func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		_ = app.Stop(stopCtx)
	}, nil
}

// operatorContext attributes CLI actions in the activity log.
func operatorContext(ctx context.Context) context.Context {
	return obscontext.WithActor(ctx, obscontext.Actor{
		Username: "cli",
		Role:     authorization.RoleAdmin,
	})
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
