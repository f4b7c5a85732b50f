package pump

import (
	"github.com/smallbiznis/fieldwatch/internal/pump/repository"
	"github.com/smallbiznis/fieldwatch/internal/pump/service"
	"go.uber.org/fx"
)

var Module = fx.Module("pump.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
