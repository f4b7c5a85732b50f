package sensorclient

import "go.uber.org/fx"

var Module = fx.Module("sensorclient",
	fx.Provide(New),
)
