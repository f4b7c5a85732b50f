package triggertask

import (
	"github.com/smallbiznis/fieldwatch/internal/triggertask/repository"
	"github.com/smallbiznis/fieldwatch/internal/triggertask/service"
	"go.uber.org/fx"
)

var Module = fx.Module("triggertask.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
