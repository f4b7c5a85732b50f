package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type SensorType string

const (
	SensorTypeSoilMoisture SensorType = "soil_moisture"
	SensorTypeTemperature  SensorType = "temperature"
	SensorTypeHumidity     SensorType = "humidity"
	SensorTypeLight        SensorType = "light"
)

// SensorTypes lists every type a checkpoint carries, in display order.
var SensorTypes = []SensorType{
	SensorTypeSoilMoisture,
	SensorTypeTemperature,
	SensorTypeHumidity,
	SensorTypeLight,
}

func (t SensorType) Valid() bool {
	switch t {
	case SensorTypeSoilMoisture, SensorTypeTemperature, SensorTypeHumidity, SensorTypeLight:
		return true
	default:
		return false
	}
}

type Sensor struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	CheckpointID snowflake.ID `gorm:"not null;uniqueIndex:ux_sensors_checkpoint_type" json:"checkpoint_id"`
	SensorType   SensorType   `gorm:"type:varchar(32);not null;uniqueIndex:ux_sensors_checkpoint_type" json:"sensor_type"`
	Value        float64      `gorm:"not null" json:"value"`
	Unit         string       `gorm:"type:varchar(16);not null" json:"unit"`
	ReadAt       time.Time    `gorm:"column:read_at;not null" json:"timestamp"`
}

func (Sensor) TableName() string { return "sensors" }

// Spec describes the synthetic value range of one sensor type.
type Spec struct {
	Type SensorType
	Min  float64
	Max  float64
	Unit string
}

// DefaultSpecs is the catalogue used when no sensors.yml is present.
var DefaultSpecs = []Spec{
	{Type: SensorTypeSoilMoisture, Min: 20, Max: 80, Unit: "%"},
	{Type: SensorTypeTemperature, Min: 15, Max: 35, Unit: "°C"},
	{Type: SensorTypeHumidity, Min: 40, Max: 90, Unit: "%"},
	{Type: SensorTypeLight, Min: 0, Max: 1000, Unit: "lux"},
}

// RefreshResult summarises one refresh tick.
type RefreshResult struct {
	Checkpoints int `json:"checkpoints"`
	Updated     int `json:"updated"`
	Created     int `json:"created"`
}
