package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ListFilter struct {
	UserID  snowflake.ID
	FieldID *snowflake.ID
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, task *TriggerTask) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*TriggerTask, error)
	FindOwned(ctx context.Context, db *gorm.DB, id, userID snowflake.ID) (*TriggerTask, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*TriggerTask, error)
	Update(ctx context.Context, db *gorm.DB, task *TriggerTask) error
	MarkTriggered(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time, weather datatypes.JSONMap) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	DeleteByFieldID(ctx context.Context, db *gorm.DB, fieldID snowflake.ID) error
}
