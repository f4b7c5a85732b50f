package gateway

import (
	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/fieldwatch/internal/auth/domain"
	"github.com/smallbiznis/fieldwatch/internal/authorization"
	"github.com/smallbiznis/fieldwatch/internal/observability"
	obsmetrics "github.com/smallbiznis/fieldwatch/internal/observability/metrics"
	"github.com/smallbiznis/fieldwatch/internal/ratelimit"
	"github.com/smallbiznis/fieldwatch/internal/sensorclient"
	"github.com/smallbiznis/fieldwatch/internal/server"
	"github.com/smallbiznis/fieldwatch/internal/weather"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.gateway",
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(server.Run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return server.NewEngine(obsCfg, httpMetrics, gin.H{"status": "healthy"})
}

type Server struct {
	engine     *gin.Engine
	log        *zap.Logger
	authsvc    authdomain.Service
	authzSvc   authorization.Service
	weather    weather.Provider
	limiter    *ratelimit.WeatherLimiter
	sensor     *sensorclient.Client
	obsMetrics *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Log        *zap.Logger
	Authsvc    authdomain.Service
	AuthzSvc   authorization.Service
	Weather    weather.Provider
	Sensor     *sensorclient.Client
	Limiter    *ratelimit.WeatherLimiter `optional:"true"`
	ObsMetrics *obsmetrics.Metrics       `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		log:        p.Log.Named("http.gateway"),
		authsvc:    p.Authsvc,
		authzSvc:   p.AuthzSvc,
		weather:    p.Weather,
		limiter:    p.Limiter,
		sensor:     p.Sensor,
		obsMetrics: p.ObsMetrics,
	}

	svc.registerAuthRoutes()
	svc.registerAPIRoutes()

	return svc
}

func (s *Server) registerAuthRoutes() {
	s.engine.POST("/signup", s.Signup)
	s.engine.POST("/token", s.Token)
	s.engine.GET("/me", s.AuthRequired(), s.Me)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/", s.AuthRequired())

	api.GET("/weather", s.authorize(authorization.ObjectWeather, authorization.ActionView), s.GetWeather)

	// -------- Fields --------
	api.GET("/fields", s.authorize(authorization.ObjectField, authorization.ActionView), s.ListFields)
	api.POST("/fields", s.authorize(authorization.ObjectField, authorization.ActionCreate), s.CreateField)
	api.PUT("/fields/:id", s.authorize(authorization.ObjectField, authorization.ActionUpdate), s.UpdateField)
	api.DELETE("/fields/:id", s.authorize(authorization.ObjectField, authorization.ActionDelete), s.DeleteField)

	// -------- Pumps --------
	api.POST("/pumps/:id/control", s.authorize(authorization.ObjectPump, authorization.ActionControl), s.ControlPump)

	// -------- Checkpoints --------
	api.POST("/checkpoints", s.authorize(authorization.ObjectCheckpoint, authorization.ActionCreate), s.CreateCheckpoint)
	api.PUT("/checkpoints/:id", s.authorize(authorization.ObjectCheckpoint, authorization.ActionUpdate), s.UpdateCheckpoint)
	api.DELETE("/checkpoints/:id", s.authorize(authorization.ObjectCheckpoint, authorization.ActionDelete), s.DeleteCheckpoint)

	// -------- Trigger Tasks --------
	api.GET("/trigger-tasks", s.authorize(authorization.ObjectTriggerTask, authorization.ActionView), s.ListTriggerTasks)
	api.POST("/trigger-tasks", s.authorize(authorization.ObjectTriggerTask, authorization.ActionCreate), s.CreateTriggerTask)
	api.PUT("/trigger-tasks/:id", s.authorize(authorization.ObjectTriggerTask, authorization.ActionUpdate), s.UpdateTriggerTask)
	api.DELETE("/trigger-tasks/:id", s.authorize(authorization.ObjectTriggerTask, authorization.ActionDelete), s.DeleteTriggerTask)
	api.POST("/trigger-tasks/:id/evaluate", s.authorize(authorization.ObjectTriggerTask, authorization.ActionEvaluate), s.EvaluateTriggerTask)
	api.POST("/trigger-tasks/:id/evaluate-live", s.authorize(authorization.ObjectTriggerTask, authorization.ActionEvaluate), s.EvaluateTriggerTaskLive)
}
