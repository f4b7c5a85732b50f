package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	pumpdomain "github.com/smallbiznis/fieldwatch/internal/pump/domain"
	sensordomain "github.com/smallbiznis/fieldwatch/internal/sensor/domain"
)

type Checkpoint struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	FieldID   snowflake.ID `gorm:"not null;index" json:"field_id"`
	Name      string       `gorm:"not null" json:"name"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null" json:"updated_at"`
}

func (Checkpoint) TableName() string { return "checkpoints" }

// Provisioned is a checkpoint together with the rows created alongside it.
type Provisioned struct {
	Checkpoint
	Sensors []*sensordomain.Sensor `json:"sensors"`
	Pump    *pumpdomain.Pump       `json:"pump"`
}
