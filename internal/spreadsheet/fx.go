package spreadsheet

import "go.uber.org/fx"

var Module = fx.Module("spreadsheet",
	fx.Provide(New),
)
