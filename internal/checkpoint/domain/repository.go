package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, checkpoint *Checkpoint) error
	// FindOwned resolves a checkpoint only when its field belongs to userID.
	FindOwned(ctx context.Context, db *gorm.DB, id, userID snowflake.ID) (*Checkpoint, error)
	ListIDs(ctx context.Context, db *gorm.DB) ([]snowflake.ID, error)
	ListIDsByField(ctx context.Context, db *gorm.DB, fieldID snowflake.ID) ([]snowflake.ID, error)
	UpdateName(ctx context.Context, db *gorm.DB, checkpoint *Checkpoint) error
	DeleteByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) error
}
