package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fieldwatch/internal/triggertask/rule"
	"gorm.io/datatypes"
)

type TriggerTask struct {
	ID            snowflake.ID      `gorm:"primaryKey" json:"id"`
	FieldID       snowflake.ID      `gorm:"not null;index" json:"field_id"`
	Name          string            `gorm:"not null" json:"name"`
	WeatherMetric rule.Metric       `gorm:"type:varchar(32);not null" json:"weather_metric"`
	Condition     rule.Condition    `gorm:"column:trigger_condition;type:varchar(32);not null" json:"condition"`
	Threshold     float64           `gorm:"not null" json:"threshold"`
	Action        rule.Action       `gorm:"type:varchar(64);not null" json:"action"`
	IsActive      bool              `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time         `gorm:"not null" json:"created_at"`
	LastTriggered *time.Time        `json:"last_triggered"`
	LastWeather   datatypes.JSONMap `json:"last_weather,omitempty"`
}

func (TriggerTask) TableName() string { return "trigger_tasks" }

// EvaluationResult reports whether a task fired and what it did.
type EvaluationResult struct {
	TaskID        snowflake.ID `json:"task_id"`
	Triggered     bool         `json:"triggered"`
	Message       string       `json:"message"`
	WeatherValue  *float64     `json:"weather_value,omitempty"`
	Threshold     *float64     `json:"threshold,omitempty"`
	PumpsAffected *int         `json:"pumps_affected,omitempty"`
}

const (
	MessageInactive     = "Task is not active"
	MessageConditionMet = "Action %s executed for %d pumps"
	MessageNotMet       = "Condition not met"
)
