package cache

import "go.uber.org/fx"

var Module = fx.Module("settings.cache",
	fx.Provide(NewRedisClient),
	fx.Provide(NewSettingsCache),
)
