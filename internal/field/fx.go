package field

import (
	"github.com/smallbiznis/fieldwatch/internal/field/repository"
	"github.com/smallbiznis/fieldwatch/internal/field/service"
	"go.uber.org/fx"
)

var Module = fx.Module("field.service",
	fx.Provide(repository.Provide),
	fx.Provide(repository.ProvideOverview),
	fx.Provide(service.New),
)
