package sensor

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	checkpointdomain "github.com/smallbiznis/fieldwatch/internal/checkpoint/domain"
	fielddomain "github.com/smallbiznis/fieldwatch/internal/field/domain"
	pumpdomain "github.com/smallbiznis/fieldwatch/internal/pump/domain"
	"github.com/smallbiznis/fieldwatch/internal/server"
	triggerdomain "github.com/smallbiznis/fieldwatch/internal/triggertask/domain"
	"github.com/smallbiznis/fieldwatch/internal/triggertask/rule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeFieldService struct {
	lastCreate fielddomain.CreateFieldRequest
	createErr  error
	deleteErr  error
	listUser   string
}

func (f *fakeFieldService) List(ctx context.Context, userID string) ([]fielddomain.Overview, error) {
	f.listUser = userID
	return []fielddomain.Overview{{ID: snowflake.ID(1), Name: "North", City: "Dublin", Checkpoints: []fielddomain.CheckpointOverview{}}}, nil
}

func (f *fakeFieldService) Create(ctx context.Context, req fielddomain.CreateFieldRequest) (fielddomain.Field, error) {
	f.lastCreate = req
	if f.createErr != nil {
		return fielddomain.Field{}, f.createErr
	}
	return fielddomain.Field{ID: snowflake.ID(10), Name: req.Name, City: req.City}, nil
}

func (f *fakeFieldService) Update(ctx context.Context, req fielddomain.UpdateFieldRequest) (fielddomain.Field, error) {
	return fielddomain.Field{}, fielddomain.ErrNotFound
}

func (f *fakeFieldService) Delete(ctx context.Context, id, userID string) error {
	return f.deleteErr
}

type fakeCheckpointService struct {
	lastCreate checkpointdomain.CreateCheckpointRequest
}

func (f *fakeCheckpointService) Create(ctx context.Context, req checkpointdomain.CreateCheckpointRequest) (checkpointdomain.Provisioned, error) {
	f.lastCreate = req
	return checkpointdomain.Provisioned{Checkpoint: checkpointdomain.Checkpoint{ID: snowflake.ID(20), Name: req.Name}}, nil
}

func (f *fakeCheckpointService) Update(ctx context.Context, req checkpointdomain.UpdateCheckpointRequest) (checkpointdomain.Checkpoint, error) {
	return checkpointdomain.Checkpoint{}, checkpointdomain.ErrNotFound
}

func (f *fakeCheckpointService) Delete(ctx context.Context, id, userID string) error {
	return nil
}

type fakePumpService struct {
	lastControl pumpdomain.Control
	called      bool
}

func (f *fakePumpService) Control(ctx context.Context, id string, req pumpdomain.Control) (pumpdomain.State, error) {
	f.called = true
	f.lastControl = req
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	return pumpdomain.State{ID: snowflake.ID(30), Name: "Pump Gate", IsOn: req.IsOn, LastActivated: &now}, nil
}

func (f *fakePumpService) List(ctx context.Context) ([]pumpdomain.Pump, error) {
	return []pumpdomain.Pump{}, nil
}

func (f *fakePumpService) SwitchCheckpoints(ctx context.Context, tx *gorm.DB, checkpointIDs []snowflake.ID, isOn bool) (int, error) {
	return 0, nil
}

type fakeTriggerService struct {
	lastCreate  triggerdomain.CreateTriggerTaskRequest
	lastWeather rule.WeatherData
	evaluateErr error
	// taskMetric, when set, is looked up the way the engine does.
	taskMetric  rule.Metric
}

func (f *fakeTriggerService) List(ctx context.Context, req triggerdomain.ListTriggerTasksRequest) ([]triggerdomain.TriggerTask, error) {
	return nil, nil
}

func (f *fakeTriggerService) Create(ctx context.Context, req triggerdomain.CreateTriggerTaskRequest) (triggerdomain.TriggerTask, error) {
	f.lastCreate = req
	return triggerdomain.TriggerTask{ID: snowflake.ID(40), Name: req.Name}, nil
}

func (f *fakeTriggerService) Update(ctx context.Context, req triggerdomain.UpdateTriggerTaskRequest) (triggerdomain.TriggerTask, error) {
	return triggerdomain.TriggerTask{}, nil
}

func (f *fakeTriggerService) Delete(ctx context.Context, id, userID string) error {
	return triggerdomain.ErrNotFound
}

func (f *fakeTriggerService) Evaluate(ctx context.Context, id string, weather rule.WeatherData) (triggerdomain.EvaluationResult, error) {
	f.lastWeather = weather
	if f.evaluateErr != nil {
		return triggerdomain.EvaluationResult{}, f.evaluateErr
	}
	if f.taskMetric != "" {
		if _, ok := weather.Lookup(f.taskMetric); !ok {
			return triggerdomain.EvaluationResult{}, &triggerdomain.MissingMetricError{Metric: f.taskMetric}
		}
	}
	return triggerdomain.EvaluationResult{TaskID: snowflake.ID(40), Message: triggerdomain.MessageNotMet}, nil
}

type fixture struct {
	router     *gin.Engine
	fields     *fakeFieldService
	checkpoint *fakeCheckpointService
	pumps      *fakePumpService
	triggers   *fakeTriggerService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &fixture{
		router:     gin.New(),
		fields:     &fakeFieldService{},
		checkpoint: &fakeCheckpointService{},
		pumps:      &fakePumpService{},
		triggers:   &fakeTriggerService{},
	}
	f.router.Use(server.ErrorHandlingMiddleware())
	f.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": ServiceName})
	})
	NewServer(ServerParams{
		Gin:           f.router,
		Log:           zap.NewNop(),
		FieldSvc:      f.fields,
		CheckpointSvc: f.checkpoint,
		PumpSvc:       f.pumps,
		TriggerSvc:    f.triggers,
	})
	return f
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body == "" {
		reader = &bytes.Buffer{}
	} else {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, req)
	return resp
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) (string, string) {
	t.Helper()
	var body struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	return body.Error.Type, body.Error.Message
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	resp := f.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"irrigation-sensor-microservice"}`, resp.Body.String())
}

func TestCreateFieldAcceptsNumericUserID(t *testing.T) {
	f := newFixture(t)

	resp := f.do(http.MethodPost, "/fields", `{"name":"North","city":"Cork","user_id":42}`)
	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, "42", f.fields.lastCreate.UserID)

	resp = f.do(http.MethodPost, "/fields", `{"name":"South","user_id":"43"}`)
	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, "43", f.fields.lastCreate.UserID)
}

func TestCreateFieldDuplicateName(t *testing.T) {
	f := newFixture(t)
	f.fields.createErr = fielddomain.ErrDuplicateName

	resp := f.do(http.MethodPost, "/fields", `{"name":"North","user_id":42}`)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	typ, msg := decodeError(t, resp)
	assert.Equal(t, "validation_error", typ)
	assert.Equal(t, "Field with this name already exists for this user", msg)
}

func TestListFieldsPassesUserID(t *testing.T) {
	f := newFixture(t)

	resp := f.do(http.MethodGet, "/fields?user_id=42", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "42", f.fields.listUser)
	assert.Contains(t, resp.Body.String(), `"id":"1"`)
}

func TestUpdateFieldNotOwned(t *testing.T) {
	f := newFixture(t)

	resp := f.do(http.MethodPut, "/fields/1?user_id=2", `{"name":"x"}`)
	require.Equal(t, http.StatusNotFound, resp.Code)
	_, msg := decodeError(t, resp)
	assert.Equal(t, "Field not found", msg)
}

func TestCreateCheckpointReturnsCreated(t *testing.T) {
	f := newFixture(t)

	resp := f.do(http.MethodPost, "/checkpoints?user_id=42", `{"name":"Gate","field_id":"7"}`)
	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, "7", f.checkpoint.lastCreate.FieldID)
	assert.Equal(t, "42", f.checkpoint.lastCreate.UserID)
}

func TestControlPumpRequiresIsOn(t *testing.T) {
	f := newFixture(t)

	resp := f.do(http.MethodPost, "/pumps/30/control", `{}`)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.False(t, f.pumps.called)

	resp = f.do(http.MethodPost, "/pumps/30/control", `{"is_on":true}`)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, f.pumps.lastControl.IsOn)
	assert.Contains(t, resp.Body.String(), `"is_on":true`)
}

func TestCreateTriggerTaskRequiresThreshold(t *testing.T) {
	f := newFixture(t)

	resp := f.do(http.MethodPost, "/trigger-tasks?user_id=42", `{"name":"Heat","field_id":7,"weather_metric":"temperature","condition":"greater_than","action":"power_on_all_pumps"}`)
	require.Equal(t, http.StatusBadRequest, resp.Code)

	resp = f.do(http.MethodPost, "/trigger-tasks?user_id=42", `{"name":"Heat","field_id":7,"weather_metric":"temperature","condition":"greater_than","threshold":30,"action":"power_on_all_pumps"}`)
	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, 30.0, f.triggers.lastCreate.Threshold)
	assert.Nil(t, f.triggers.lastCreate.IsActive)
}

func TestDeleteTriggerTaskNotFound(t *testing.T) {
	f := newFixture(t)

	resp := f.do(http.MethodDelete, "/trigger-tasks/40?user_id=42", "")
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestEvaluateMissingMetricReturns400(t *testing.T) {
	f := newFixture(t)
	f.triggers.evaluateErr = &triggerdomain.MissingMetricError{Metric: rule.MetricHumidity}

	resp := f.do(http.MethodPost, "/trigger-tasks/40/evaluate", `{"temperature":25}`)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	_, msg := decodeError(t, resp)
	assert.Equal(t, "Weather metric humidity not found in weather data", msg)
	assert.Equal(t, 25.0, f.triggers.lastWeather[rule.MetricTemperature])
}

func TestEvaluateNullMetricIsMissing(t *testing.T) {
	f := newFixture(t)
	f.triggers.taskMetric = rule.MetricTemperature

	resp := f.do(http.MethodPost, "/trigger-tasks/40/evaluate", `{"temperature":null,"humidity":0}`)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	_, msg := decodeError(t, resp)
	assert.Equal(t, "Weather metric temperature not found in weather data", msg)
	require.NotNil(t, f.triggers.lastWeather)
	_, ok := f.triggers.lastWeather.Lookup(rule.MetricTemperature)
	assert.False(t, ok)
	v, ok := f.triggers.lastWeather.Lookup(rule.MetricHumidity)
	assert.True(t, ok)
	assert.Equal(t, 0.0, v)
}

func TestEvaluateAcceptsWeatherReportShape(t *testing.T) {
	f := newFixture(t)

	resp := f.do(http.MethodPost, "/trigger-tasks/40/evaluate", `{"city":"London","temperature":30,"description":"clear","humidity":70,"wind_speed":3.5}`)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, rule.WeatherData{
		rule.MetricTemperature: 30,
		rule.MetricHumidity:    70,
		rule.MetricWindSpeed:   3.5,
	}, f.triggers.lastWeather)
}

func TestEvaluateRejectsNonObjectPayload(t *testing.T) {
	f := newFixture(t)

	resp := f.do(http.MethodPost, "/trigger-tasks/40/evaluate", `[1,2]`)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Nil(t, f.triggers.lastWeather)
}
