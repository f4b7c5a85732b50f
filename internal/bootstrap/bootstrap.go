// Package bootstrap assembles the fx graphs of the gateway and sensor deployables.
package bootstrap

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fieldwatch/internal/auth"
	authdomain "github.com/smallbiznis/fieldwatch/internal/auth/domain"
	"github.com/smallbiznis/fieldwatch/internal/authorization"
	"github.com/smallbiznis/fieldwatch/internal/checkpoint"
	checkpointdomain "github.com/smallbiznis/fieldwatch/internal/checkpoint/domain"
	"github.com/smallbiznis/fieldwatch/internal/clock"
	"github.com/smallbiznis/fieldwatch/internal/config"
	"github.com/smallbiznis/fieldwatch/internal/field"
	fielddomain "github.com/smallbiznis/fieldwatch/internal/field/domain"
	"github.com/smallbiznis/fieldwatch/internal/observability"
	"github.com/smallbiznis/fieldwatch/internal/pump"
	pumpdomain "github.com/smallbiznis/fieldwatch/internal/pump/domain"
	"github.com/smallbiznis/fieldwatch/internal/ratelimit"
	"github.com/smallbiznis/fieldwatch/internal/scheduler"
	"github.com/smallbiznis/fieldwatch/internal/sensor"
	sensordomain "github.com/smallbiznis/fieldwatch/internal/sensor/domain"
	"github.com/smallbiznis/fieldwatch/internal/sensorclient"
	"github.com/smallbiznis/fieldwatch/internal/server/gateway"
	sensorhttp "github.com/smallbiznis/fieldwatch/internal/server/sensor"
	"github.com/smallbiznis/fieldwatch/internal/triggertask"
	triggerdomain "github.com/smallbiznis/fieldwatch/internal/triggertask/domain"
	"github.com/smallbiznis/fieldwatch/internal/weather"
	"github.com/smallbiznis/fieldwatch/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	GatewayName = "fieldwatch-gateway"
	GatewayAddr = ":8000"
	SensorName  = sensorhttp.ServiceName
	SensorAddr  = ":8001"
)

// SnowflakeNode is the node id used by every deployable; ids only need to be unique per table.
const SnowflakeNode int64 = 1

func RegisterSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(SnowflakeNode)
}

func core(name, addr string) fx.Option {
	return fx.Options(
		config.Module,
		fx.Decorate(func(cfg config.Config) config.Config {
			return cfg.ForService(name, addr)
		}),
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
	)
}

// Gateway is the public API: accounts, authorization, weather and the sensor proxy.
func Gateway() fx.Option {
	return fx.Options(
		core(GatewayName, GatewayAddr),
		db.AsModels(&authdomain.User{}),

		auth.Module,
		authorization.Module,
		weather.Module,
		sensorclient.Module,
		ratelimit.Module,

		gateway.Module,
	)
}

func sensorDomain() fx.Option {
	return fx.Options(
		core(SensorName, SensorAddr),
		db.AsModels(
			&fielddomain.Field{},
			&checkpointdomain.Checkpoint{},
			&sensordomain.Sensor{},
			&pumpdomain.Pump{},
			&triggerdomain.TriggerTask{},
		),

		field.Module,
		checkpoint.Module,
		sensor.Module,
		pump.Module,
		triggertask.Module,
		ratelimit.Module,
	)
}

// Sensor serves the internal CRUD API and runs the periodic sensor refresh.
func Sensor() fx.Option {
	return fx.Options(
		sensorDomain(),
		scheduler.Module,
		sensorhttp.Module,
	)
}

// Refresh runs a single sensor refresh tick and stops the application.
func Refresh() fx.Option {
	return fx.Options(
		sensorDomain(),
		fx.Provide(scheduler.ProvideConfig),
		fx.Provide(scheduler.New),
		fx.Invoke(runRefreshOnce),
	)
}

type refreshParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Scheduler  *scheduler.Scheduler
	Log        *zap.Logger
}

func runRefreshOnce(p refreshParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				code := 0
				if err := p.Scheduler.RunOnce(context.Background()); err != nil {
					p.Log.Error("sensor refresh failed", zap.Error(err))
					code = 1
				}
				_ = p.Shutdowner.Shutdown(fx.ExitCode(code))
			}()
			return nil
		},
	})
}
