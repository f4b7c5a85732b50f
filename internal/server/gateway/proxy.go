package gateway

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/fieldwatch/internal/sensorclient"
	"github.com/smallbiznis/fieldwatch/internal/server"
)

type createFieldRequest struct {
	Name string `json:"name"`
	City string `json:"city,omitempty"`
}

type sensorFieldRequest struct {
	Name   string `json:"name"`
	City   string `json:"city,omitempty"`
	UserID string `json:"user_id"`
}

type updateFieldRequest struct {
	Name *string `json:"name,omitempty"`
	City *string `json:"city,omitempty"`
}

type controlPumpRequest struct {
	IsOn *bool `json:"is_on"`
}

type createCheckpointRequest struct {
	Name    string      `json:"name"`
	FieldID json.Number `json:"field_id"`
}

type updateCheckpointRequest struct {
	Name *string `json:"name,omitempty"`
}

type createTriggerTaskRequest struct {
	Name          string      `json:"name"`
	FieldID       json.Number `json:"field_id"`
	WeatherMetric string      `json:"weather_metric"`
	Condition     string      `json:"condition"`
	Threshold     *float64    `json:"threshold"`
	Action        string      `json:"action"`
	IsActive      *bool       `json:"is_active,omitempty"`
}

type updateTriggerTaskRequest struct {
	Name          *string  `json:"name,omitempty"`
	WeatherMetric *string  `json:"weather_metric,omitempty"`
	Condition     *string  `json:"condition,omitempty"`
	Threshold     *float64 `json:"threshold,omitempty"`
	Action        *string  `json:"action,omitempty"`
	IsActive      *bool    `json:"is_active,omitempty"`
}

// relay forwards req to the sensor service and writes its reply unchanged.
func (s *Server) relay(c *gin.Context, req sensorclient.Request) {
	c.Set("upstream", "sensor-service")
	resp, err := s.sensor.Do(c.Request.Context(), req)
	if err != nil {
		server.AbortWithError(c, err)
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	c.Data(resp.Status, contentType, resp.Body)
}

func (s *Server) currentUserID(c *gin.Context) (string, bool) {
	user, ok := server.CurrentUser(c)
	if !ok {
		server.AbortWithError(c, server.ErrUnauthorized)
		return "", false
	}
	return user.ID.String(), true
}

func userQuery(userID string) url.Values {
	return url.Values{"user_id": []string{userID}}
}

func resourcePath(prefix string, c *gin.Context, suffix ...string) string {
	parts := append([]string{prefix, url.PathEscape(strings.TrimSpace(c.Param("id")))}, suffix...)
	return strings.Join(parts, "/")
}

// -------- Fields --------

func (s *Server) ListFields(c *gin.Context) {
	userID, ok := s.currentUserID(c)
	if !ok {
		return
	}
	s.relay(c, sensorclient.Request{Method: http.MethodGet, Path: "/fields", Query: userQuery(userID)})
}

func (s *Server) CreateField(c *gin.Context) {
	userID, ok := s.currentUserID(c)
	if !ok {
		return
	}
	var req createFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.AbortWithError(c, server.InvalidRequestError())
		return
	}
	s.relay(c, sensorclient.Request{
		Method: http.MethodPost,
		Path:   "/fields",
		Body:   sensorFieldRequest{Name: req.Name, City: req.City, UserID: userID},
	})
}

func (s *Server) UpdateField(c *gin.Context) {
	userID, ok := s.currentUserID(c)
	if !ok {
		return
	}
	var req updateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.AbortWithError(c, server.InvalidRequestError())
		return
	}
	s.relay(c, sensorclient.Request{
		Method: http.MethodPut,
		Path:   resourcePath("/fields", c),
		Query:  userQuery(userID),
		Body:   req,
	})
}

func (s *Server) DeleteField(c *gin.Context) {
	userID, ok := s.currentUserID(c)
	if !ok {
		return
	}
	s.relay(c, sensorclient.Request{Method: http.MethodDelete, Path: resourcePath("/fields", c), Query: userQuery(userID)})
}

// -------- Pumps --------

func (s *Server) ControlPump(c *gin.Context) {
	var req controlPumpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.AbortWithError(c, server.InvalidRequestError())
		return
	}
	if req.IsOn == nil {
		server.AbortWithError(c, server.NewValidationError("is_on", "required", "is_on is required"))
		return
	}
	s.relay(c, sensorclient.Request{Method: http.MethodPost, Path: resourcePath("/pumps", c, "control"), Body: req})
}

// -------- Checkpoints --------

func (s *Server) CreateCheckpoint(c *gin.Context) {
	userID, ok := s.currentUserID(c)
	if !ok {
		return
	}
	var req createCheckpointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.AbortWithError(c, server.InvalidRequestError())
		return
	}
	s.relay(c, sensorclient.Request{Method: http.MethodPost, Path: "/checkpoints", Query: userQuery(userID), Body: req})
}

func (s *Server) UpdateCheckpoint(c *gin.Context) {
	userID, ok := s.currentUserID(c)
	if !ok {
		return
	}
	var req updateCheckpointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.AbortWithError(c, server.InvalidRequestError())
		return
	}
	s.relay(c, sensorclient.Request{Method: http.MethodPut, Path: resourcePath("/checkpoints", c), Query: userQuery(userID), Body: req})
}

func (s *Server) DeleteCheckpoint(c *gin.Context) {
	userID, ok := s.currentUserID(c)
	if !ok {
		return
	}
	s.relay(c, sensorclient.Request{Method: http.MethodDelete, Path: resourcePath("/checkpoints", c), Query: userQuery(userID)})
}

// -------- Trigger Tasks --------

func (s *Server) ListTriggerTasks(c *gin.Context) {
	userID, ok := s.currentUserID(c)
	if !ok {
		return
	}
	query := userQuery(userID)
	if fieldID := strings.TrimSpace(c.Query("field_id")); fieldID != "" {
		query.Set("field_id", fieldID)
	}
	s.relay(c, sensorclient.Request{Method: http.MethodGet, Path: "/trigger-tasks", Query: query})
}

func (s *Server) CreateTriggerTask(c *gin.Context) {
	userID, ok := s.currentUserID(c)
	if !ok {
		return
	}
	var req createTriggerTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.AbortWithError(c, server.InvalidRequestError())
		return
	}
	s.relay(c, sensorclient.Request{Method: http.MethodPost, Path: "/trigger-tasks", Query: userQuery(userID), Body: req})
}

func (s *Server) UpdateTriggerTask(c *gin.Context) {
	userID, ok := s.currentUserID(c)
	if !ok {
		return
	}
	var req updateTriggerTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.AbortWithError(c, server.InvalidRequestError())
		return
	}
	s.relay(c, sensorclient.Request{Method: http.MethodPut, Path: resourcePath("/trigger-tasks", c), Query: userQuery(userID), Body: req})
}

func (s *Server) DeleteTriggerTask(c *gin.Context) {
	userID, ok := s.currentUserID(c)
	if !ok {
		return
	}
	s.relay(c, sensorclient.Request{Method: http.MethodDelete, Path: resourcePath("/trigger-tasks", c), Query: userQuery(userID)})
}

func (s *Server) EvaluateTriggerTask(c *gin.Context) {
	var payload map[string]json.RawMessage
	if err := c.ShouldBindJSON(&payload); err != nil {
		server.AbortWithError(c, server.InvalidRequestError())
		return
	}
	s.relay(c, sensorclient.Request{Method: http.MethodPost, Path: resourcePath("/trigger-tasks", c, "evaluate"), Body: payload})
}

// EvaluateTriggerTaskLive evaluates a task against the current weather for ?city=.
func (s *Server) EvaluateTriggerTaskLive(c *gin.Context) {
	report, err := s.fetchWeather(c, c.Query("city"))
	if err != nil {
		server.AbortWithError(c, err)
		return
	}
	s.relay(c, sensorclient.Request{Method: http.MethodPost, Path: resourcePath("/trigger-tasks", c, "evaluate"), Body: report.Metrics()})
}
