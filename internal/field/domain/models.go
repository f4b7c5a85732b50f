package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// DefaultCity is applied when a field is created without a city.
const DefaultCity = "Dublin"

type Field struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"not null;uniqueIndex:ux_fields_user_name" json:"name"`
	City      string       `gorm:"not null;default:Dublin" json:"city"`
	UserID    snowflake.ID `gorm:"not null;uniqueIndex:ux_fields_user_name;index" json:"user_id"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null" json:"updated_at"`
}

func (Field) TableName() string { return "fields" }

// Overview is the nested read model returned by the field listing.
type Overview struct {
	ID          snowflake.ID         `json:"id"`
	Name        string               `json:"name"`
	City        string               `json:"city"`
	CreatedAt   time.Time            `json:"created_at"`
	Checkpoints []CheckpointOverview `json:"checkpoints"`
}

type CheckpointOverview struct {
	ID      snowflake.ID             `json:"id"`
	Name    string                   `json:"name"`
	Sensors map[string]SensorReading `json:"sensors"`
	Pump    *PumpOverview            `json:"pump"`
}

type SensorReading struct {
	Value     float64   `json:"value"`
	Unit      string    `json:"unit"`
	Timestamp time.Time `json:"timestamp"`
}

type PumpOverview struct {
	ID            snowflake.ID `json:"id"`
	Name          string       `json:"name"`
	IsOn          bool         `json:"is_on"`
	LastActivated *time.Time   `json:"last_activated"`
}
