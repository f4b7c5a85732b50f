package repository

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fieldwatch/internal/triggertask/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

var taskColumns = []string{
	"t.id",
	"t.field_id",
	"t.name",
	"t.weather_metric",
	"t.trigger_condition",
	"t.threshold",
	"t.action",
	"t.is_active",
	"t.created_at",
	"t.last_triggered",
	"t.last_weather",
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, task *domain.TriggerTask) error {
	// Select keeps an explicit is_active=false from being replaced by the column default.
	return db.WithContext(ctx).Select("*").Create(task).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.TriggerTask, error) {
	var task domain.TriggerTask
	err := db.WithContext(ctx).Where("id = ?", id).Take(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *repo) FindOwned(ctx context.Context, db *gorm.DB, id, userID snowflake.ID) (*domain.TriggerTask, error) {
	tasks, err := r.query(ctx, db, ownedQuery(userID).Where(sq.Eq{"t.id": id}))
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, nil
	}
	return tasks[0], nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.TriggerTask, error) {
	builder := ownedQuery(filter.UserID)
	if filter.FieldID != nil {
		builder = builder.Where(sq.Eq{"t.field_id": *filter.FieldID})
	}
	return r.query(ctx, db, builder.OrderBy("t.created_at", "t.id"))
}

func ownedQuery(userID snowflake.ID) sq.SelectBuilder {
	return sq.Select(taskColumns...).
		From("trigger_tasks t").
		Join("fields f ON f.id = t.field_id").
		Where(sq.Eq{"f.user_id": userID})
}

func (r *repo) query(ctx context.Context, db *gorm.DB, builder sq.SelectBuilder) ([]*domain.TriggerTask, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	var tasks []*domain.TriggerTask
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, task *domain.TriggerTask) error {
	return db.WithContext(ctx).
		Model(&domain.TriggerTask{}).
		Where("id = ?", task.ID).
		Updates(map[string]any{
			"name":              task.Name,
			"weather_metric":    task.WeatherMetric,
			"trigger_condition": task.Condition,
			"threshold":         task.Threshold,
			"action":            task.Action,
			"is_active":         task.IsActive,
		}).Error
}

func (r *repo) MarkTriggered(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time, weather datatypes.JSONMap) error {
	return db.WithContext(ctx).
		Model(&domain.TriggerTask{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_triggered": at,
			"last_weather":   weather,
		}).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Where("id = ?", id).Delete(&domain.TriggerTask{}).Error
}

func (r *repo) DeleteByFieldID(ctx context.Context, db *gorm.DB, fieldID snowflake.ID) error {
	return db.WithContext(ctx).Where("field_id = ?", fieldID).Delete(&domain.TriggerTask{}).Error
}
