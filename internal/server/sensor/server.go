package sensor

import (
	"github.com/gin-gonic/gin"
	checkpointdomain "github.com/smallbiznis/fieldwatch/internal/checkpoint/domain"
	fielddomain "github.com/smallbiznis/fieldwatch/internal/field/domain"
	"github.com/smallbiznis/fieldwatch/internal/observability"
	obsmetrics "github.com/smallbiznis/fieldwatch/internal/observability/metrics"
	pumpdomain "github.com/smallbiznis/fieldwatch/internal/pump/domain"
	"github.com/smallbiznis/fieldwatch/internal/server"
	triggerdomain "github.com/smallbiznis/fieldwatch/internal/triggertask/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const ServiceName = "irrigation-sensor-microservice"

var Module = fx.Module("http.sensor",
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(server.Run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return server.NewEngine(obsCfg, httpMetrics, gin.H{
		"status":  "healthy",
		"service": ServiceName,
	})
}

type Server struct {
	engine        *gin.Engine
	log           *zap.Logger
	fieldSvc      fielddomain.Service
	checkpointSvc checkpointdomain.Service
	pumpSvc       pumpdomain.Service
	triggerSvc    triggerdomain.Service
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Log           *zap.Logger
	FieldSvc      fielddomain.Service
	CheckpointSvc checkpointdomain.Service
	PumpSvc       pumpdomain.Service
	TriggerSvc    triggerdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		log:           p.Log.Named("http.sensor"),
		fieldSvc:      p.FieldSvc,
		checkpointSvc: p.CheckpointSvc,
		pumpSvc:       p.PumpSvc,
		triggerSvc:    p.TriggerSvc,
	}
	svc.registerRoutes()
	return svc
}

func (s *Server) registerRoutes() {
	r := s.engine

	// -------- Fields --------
	r.GET("/fields", s.ListFields)
	r.POST("/fields", s.CreateField)
	r.PUT("/fields/:id", s.UpdateField)
	r.DELETE("/fields/:id", s.DeleteField)

	// -------- Checkpoints --------
	r.POST("/checkpoints", s.CreateCheckpoint)
	r.PUT("/checkpoints/:id", s.UpdateCheckpoint)
	r.DELETE("/checkpoints/:id", s.DeleteCheckpoint)

	// -------- Pumps --------
	r.GET("/pumps", s.ListPumps)
	r.POST("/pumps/:id/control", s.ControlPump)

	// -------- Trigger Tasks --------
	r.GET("/trigger-tasks", s.ListTriggerTasks)
	r.POST("/trigger-tasks", s.CreateTriggerTask)
	r.PUT("/trigger-tasks/:id", s.UpdateTriggerTask)
	r.DELETE("/trigger-tasks/:id", s.DeleteTriggerTask)
	r.POST("/trigger-tasks/:id/evaluate", s.EvaluateTriggerTask)
}

func userIDParam(c *gin.Context) string {
	return c.Query("user_id")
}

func deleted(message string) gin.H {
	return gin.H{"data": gin.H{"message": message}}
}
