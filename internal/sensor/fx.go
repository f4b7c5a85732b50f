package sensor

import (
	"github.com/smallbiznis/fieldwatch/internal/config"
	"github.com/smallbiznis/fieldwatch/internal/sensor/repository"
	"github.com/smallbiznis/fieldwatch/internal/sensor/service"
	"go.uber.org/fx"
)

var Module = fx.Module("sensor.service",
	fx.Provide(config.NewSensorsConfigHolder),
	fx.Provide(service.NewCatalog),
	fx.Provide(service.NewSampler),
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
