package migration

import (
	"context"

	"github.com/smallbiznis/shipdesk/internal/config"
	"github.com/smallbiznis/shipdesk/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(lc fx.Lifecycle, conn *gorm.DB, cfg config.Config, seeder *seed.Seeder, log *zap.Logger) {
		if !cfg.MigrateOnStart {
			return
		}
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				if err := Migrate(conn, cfg.DBType); err != nil {
					return err
				}
				log.Info("database schema is up to date", zap.String("type", cfg.DBType))
				return seeder.Run(ctx)
			},
		})
	}),
)
