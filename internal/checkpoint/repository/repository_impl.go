package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fieldwatch/internal/checkpoint/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, checkpoint *domain.Checkpoint) error {
	return db.WithContext(ctx).Create(checkpoint).Error
}

func (r *repo) FindOwned(ctx context.Context, db *gorm.DB, id, userID snowflake.ID) (*domain.Checkpoint, error) {
	var checkpoint domain.Checkpoint
	err := db.WithContext(ctx).
		Table("checkpoints").
		Select("checkpoints.*").
		Joins("JOIN fields ON fields.id = checkpoints.field_id").
		Where("checkpoints.id = ? AND fields.user_id = ?", id, userID).
		Take(&checkpoint).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &checkpoint, nil
}

func (r *repo) ListIDs(ctx context.Context, db *gorm.DB) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := db.WithContext(ctx).
		Model(&domain.Checkpoint{}).
		Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repo) ListIDsByField(ctx context.Context, db *gorm.DB, fieldID snowflake.ID) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := db.WithContext(ctx).
		Model(&domain.Checkpoint{}).
		Where("field_id = ?", fieldID).
		Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repo) UpdateName(ctx context.Context, db *gorm.DB, checkpoint *domain.Checkpoint) error {
	return db.WithContext(ctx).
		Model(&domain.Checkpoint{}).
		Where("id = ?", checkpoint.ID).
		Updates(map[string]any{
			"name":       checkpoint.Name,
			"updated_at": checkpoint.UpdatedAt,
		}).Error
}

func (r *repo) DeleteByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) error {
	if len(ids) == 0 {
		return nil
	}
	return db.WithContext(ctx).Where("id IN ?", ids).Delete(&domain.Checkpoint{}).Error
}
