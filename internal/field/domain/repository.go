package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, field *Field) error
	FindOwned(ctx context.Context, db *gorm.DB, id, userID snowflake.ID) (*Field, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Field, error)
	NameTaken(ctx context.Context, db *gorm.DB, userID snowflake.ID, name string, excludeID snowflake.ID) (bool, error)
	Update(ctx context.Context, db *gorm.DB, field *Field) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}

// OverviewReader assembles the nested field listing outside of gorm.
type OverviewReader interface {
	ListOverview(ctx context.Context, userID snowflake.ID) ([]Overview, error)
}
