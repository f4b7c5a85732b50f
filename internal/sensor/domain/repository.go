package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertBatch(ctx context.Context, db *gorm.DB, sensors []*Sensor) error
	ListByCheckpointIDs(ctx context.Context, db *gorm.DB, checkpointIDs []snowflake.ID) ([]*Sensor, error)
	UpdateReading(ctx context.Context, db *gorm.DB, id snowflake.ID, value float64, unit string, readAt time.Time) error
	DeleteByCheckpointIDs(ctx context.Context, db *gorm.DB, checkpointIDs []snowflake.ID) error
}
