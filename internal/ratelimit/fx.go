package ratelimit

import "go.uber.org/fx"

var Module = fx.Module("ratelimit.guard",
	fx.Provide(NewGuard),
)
