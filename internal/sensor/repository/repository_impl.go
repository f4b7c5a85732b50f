package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fieldwatch/internal/sensor/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertBatch(ctx context.Context, db *gorm.DB, sensors []*domain.Sensor) error {
	if len(sensors) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&sensors).Error
}

func (r *repo) ListByCheckpointIDs(ctx context.Context, db *gorm.DB, checkpointIDs []snowflake.ID) ([]*domain.Sensor, error) {
	if len(checkpointIDs) == 0 {
		return nil, nil
	}
	var sensors []*domain.Sensor
	err := db.WithContext(ctx).
		Where("checkpoint_id IN ?", checkpointIDs).
		Order("checkpoint_id, sensor_type").
		Find(&sensors).Error
	if err != nil {
		return nil, err
	}
	return sensors, nil
}

func (r *repo) UpdateReading(ctx context.Context, db *gorm.DB, id snowflake.ID, value float64, unit string, readAt time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.Sensor{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"value":   value,
			"unit":    unit,
			"read_at": readAt,
		}).Error
}

func (r *repo) DeleteByCheckpointIDs(ctx context.Context, db *gorm.DB, checkpointIDs []snowflake.ID) error {
	if len(checkpointIDs) == 0 {
		return nil
	}
	return db.WithContext(ctx).
		Where("checkpoint_id IN ?", checkpointIDs).
		Delete(&domain.Sensor{}).Error
}
