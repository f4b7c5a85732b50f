package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/smallbiznis/fieldwatch/internal/triggertask/rule"
)

type CreateTriggerTaskRequest struct {
	UserID        string
	FieldID       string
	Name          string
	WeatherMetric string
	Condition     string
	Threshold     float64
	Action        string
	IsActive      *bool
}

type UpdateTriggerTaskRequest struct {
	ID            string
	UserID        string
	Name          *string
	WeatherMetric *string
	Condition     *string
	Threshold     *float64
	Action        *string
	IsActive      *bool
}

type ListTriggerTasksRequest struct {
	UserID  string
	FieldID string
}

type Service interface {
	List(ctx context.Context, req ListTriggerTasksRequest) ([]TriggerTask, error)
	Create(ctx context.Context, req CreateTriggerTaskRequest) (TriggerTask, error)
	Update(ctx context.Context, req UpdateTriggerTaskRequest) (TriggerTask, error)
	Delete(ctx context.Context, id, userID string) error
	Evaluate(ctx context.Context, id string, weather rule.WeatherData) (EvaluationResult, error)
}

var (
	ErrInvalidID        = errors.New("invalid_id")
	ErrInvalidUser      = errors.New("invalid_user_id")
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidThreshold = errors.New("invalid_threshold")
	ErrFieldNotFound    = errors.New("field_not_found")
	ErrNotFound         = errors.New("not_found")

	ErrInvalidMetric    = rule.ErrInvalidMetric
	ErrInvalidCondition = rule.ErrInvalidCondition
	ErrInvalidAction    = rule.ErrInvalidAction
)

// MissingMetricError is returned when an observation lacks the task's metric.
type MissingMetricError struct {
	Metric rule.Metric
}

func (e *MissingMetricError) Error() string {
	return fmt.Sprintf("Weather metric %s not found in weather data", e.Metric)
}

// ErrMissingMetric matches any *MissingMetricError via errors.Is.
var ErrMissingMetric = errors.New("missing_weather_metric")

func (e *MissingMetricError) Is(target error) bool {
	return target == ErrMissingMetric
}
