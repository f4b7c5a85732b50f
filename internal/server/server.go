package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/fieldwatch/internal/config"
	"github.com/smallbiznis/fieldwatch/internal/observability"
	obsmiddleware "github.com/smallbiznis/fieldwatch/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/fieldwatch/internal/observability/metrics"
	obstracing "github.com/smallbiznis/fieldwatch/internal/observability/tracing"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// NewEngine builds the gin engine shared by both services: recovery, request
// logging, tracing, HTTP metrics and error mapping, plus /health and /metrics.
func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics, health gin.H) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: ClassifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.Middleware())
	r.Use(ErrorHandlingMiddleware())

	if health == nil {
		health = gin.H{"status": "healthy"}
	}
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, health)
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type RunParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Config     config.Config
	Engine     *gin.Engine
	Log        *zap.Logger
}

// Run serves the engine on HTTP_ADDR for the lifetime of the fx app.
func Run(p RunParams) {
	log := p.Log.Named("http.server")
	srv := &http.Server{
		Addr:              p.Config.HTTPAddr,
		Handler:           p.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			log.Info("http server listening", zap.String("addr", ln.Addr().String()))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
					_ = p.Shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
