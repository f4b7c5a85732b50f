package weather

import "go.uber.org/fx"

var Module = fx.Module("weather",
	fx.Provide(NewOpenWeather),
)
