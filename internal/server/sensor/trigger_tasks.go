package sensor

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/fieldwatch/internal/server"
	triggerdomain "github.com/smallbiznis/fieldwatch/internal/triggertask/domain"
	"github.com/smallbiznis/fieldwatch/internal/triggertask/rule"
)

type createTriggerTaskRequest struct {
	Name          string      `json:"name"`
	FieldID       json.Number `json:"field_id"`
	WeatherMetric string      `json:"weather_metric"`
	Condition     string      `json:"condition"`
	Threshold     *float64    `json:"threshold"`
	Action        string      `json:"action"`
	IsActive      *bool       `json:"is_active"`
}

type updateTriggerTaskRequest struct {
	Name          *string  `json:"name"`
	WeatherMetric *string  `json:"weather_metric"`
	Condition     *string  `json:"condition"`
	Threshold     *float64 `json:"threshold"`
	Action        *string  `json:"action"`
	IsActive      *bool    `json:"is_active"`
}

func (s *Server) ListTriggerTasks(c *gin.Context) {
	resp, err := s.triggerSvc.List(c.Request.Context(), triggerdomain.ListTriggerTasksRequest{
		UserID:  userIDParam(c),
		FieldID: c.Query("field_id"),
	})
	if err != nil {
		server.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateTriggerTask(c *gin.Context) {
	var req createTriggerTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.AbortWithError(c, server.InvalidRequestError())
		return
	}
	if req.Threshold == nil {
		server.AbortWithError(c, server.NewValidationError("threshold", "required", "threshold is required"))
		return
	}

	resp, err := s.triggerSvc.Create(c.Request.Context(), triggerdomain.CreateTriggerTaskRequest{
		UserID:        userIDParam(c),
		FieldID:       server.IDString(req.FieldID),
		Name:          req.Name,
		WeatherMetric: req.WeatherMetric,
		Condition:     req.Condition,
		Threshold:     *req.Threshold,
		Action:        req.Action,
		IsActive:      req.IsActive,
	})
	if err != nil {
		server.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) UpdateTriggerTask(c *gin.Context) {
	var req updateTriggerTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.AbortWithError(c, server.InvalidRequestError())
		return
	}

	resp, err := s.triggerSvc.Update(c.Request.Context(), triggerdomain.UpdateTriggerTaskRequest{
		ID:            c.Param("id"),
		UserID:        userIDParam(c),
		Name:          req.Name,
		WeatherMetric: req.WeatherMetric,
		Condition:     req.Condition,
		Threshold:     req.Threshold,
		Action:        req.Action,
		IsActive:      req.IsActive,
	})
	if err != nil {
		server.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteTriggerTask(c *gin.Context) {
	if err := s.triggerSvc.Delete(c.Request.Context(), c.Param("id"), userIDParam(c)); err != nil {
		server.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, deleted("Trigger task deleted successfully"))
}

func (s *Server) EvaluateTriggerTask(c *gin.Context) {
	var payload map[string]json.RawMessage
	if err := c.ShouldBindJSON(&payload); err != nil {
		server.AbortWithError(c, server.InvalidRequestError())
		return
	}

	resp, err := s.triggerSvc.Evaluate(c.Request.Context(), c.Param("id"), rule.FromJSON(payload))
	if err != nil {
		server.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
