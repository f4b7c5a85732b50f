package checkpoint

import (
	"github.com/smallbiznis/fieldwatch/internal/checkpoint/repository"
	"github.com/smallbiznis/fieldwatch/internal/checkpoint/service"
	"go.uber.org/fx"
)

var Module = fx.Module("checkpoint.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
