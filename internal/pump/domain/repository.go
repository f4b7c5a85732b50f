package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, pump *Pump) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Pump, error)
	List(ctx context.Context, db *gorm.DB) ([]*Pump, error)
	ListByCheckpointIDs(ctx context.Context, db *gorm.DB, checkpointIDs []snowflake.ID) ([]*Pump, error)
	// SetState switches the given pumps; activatedAt is written only when non-nil.
	SetState(ctx context.Context, db *gorm.DB, ids []snowflake.ID, isOn bool, activatedAt *time.Time) error
	DeleteByCheckpointIDs(ctx context.Context, db *gorm.DB, checkpointIDs []snowflake.ID) error
}
