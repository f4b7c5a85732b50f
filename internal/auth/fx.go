package auth

import (
	"github.com/smallbiznis/fieldwatch/internal/auth/repository"
	"github.com/smallbiznis/fieldwatch/internal/auth/service"
	"github.com/smallbiznis/fieldwatch/internal/auth/token"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(repository.New),
	fx.Provide(token.NewManager),
	fx.Provide(service.New),
)
