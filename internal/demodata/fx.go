package demodata

import "go.uber.org/fx"

var Module = fx.Module("demodata",
	fx.Provide(New),
)
