package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fieldwatch/internal/pump/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, pump *domain.Pump) error {
	// Select keeps gorm from skipping the zero-valued is_on column.
	return db.WithContext(ctx).Select("*").Create(pump).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Pump, error) {
	var pump domain.Pump
	err := db.WithContext(ctx).Where("id = ?", id).Take(&pump).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pump, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]*domain.Pump, error) {
	var pumps []*domain.Pump
	if err := db.WithContext(ctx).Order("id").Find(&pumps).Error; err != nil {
		return nil, err
	}
	return pumps, nil
}

func (r *repo) ListByCheckpointIDs(ctx context.Context, db *gorm.DB, checkpointIDs []snowflake.ID) ([]*domain.Pump, error) {
	if len(checkpointIDs) == 0 {
		return nil, nil
	}
	var pumps []*domain.Pump
	err := db.WithContext(ctx).
		Where("checkpoint_id IN ?", checkpointIDs).
		Order("id").
		Find(&pumps).Error
	if err != nil {
		return nil, err
	}
	return pumps, nil
}

func (r *repo) SetState(ctx context.Context, db *gorm.DB, ids []snowflake.ID, isOn bool, activatedAt *time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	updates := map[string]any{"is_on": isOn}
	if activatedAt != nil {
		updates["last_activated"] = *activatedAt
	}
	return db.WithContext(ctx).
		Model(&domain.Pump{}).
		Where("id IN ?", ids).
		Updates(updates).Error
}

func (r *repo) DeleteByCheckpointIDs(ctx context.Context, db *gorm.DB, checkpointIDs []snowflake.ID) error {
	if len(checkpointIDs) == 0 {
		return nil
	}
	return db.WithContext(ctx).
		Where("checkpoint_id IN ?", checkpointIDs).
		Delete(&domain.Pump{}).Error
}
