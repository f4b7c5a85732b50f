package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Pump struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	CheckpointID  snowflake.ID `gorm:"not null;uniqueIndex" json:"checkpoint_id"`
	Name          string       `gorm:"not null" json:"name"`
	IsOn          bool         `gorm:"not null;default:false" json:"is_on"`
	LastActivated *time.Time   `json:"last_activated"`
}

func (Pump) TableName() string { return "pumps" }

// NameFor derives the pump name provisioned with a checkpoint.
func NameFor(checkpointName string) string {
	return "Pump " + checkpointName
}

// Control is the requested pump state.
type Control struct {
	IsOn bool `json:"is_on"`
}

// State is the control response.
type State struct {
	ID            snowflake.ID `json:"id"`
	Name          string       `json:"name"`
	IsOn          bool         `json:"is_on"`
	LastActivated *time.Time   `json:"last_activated"`
}
