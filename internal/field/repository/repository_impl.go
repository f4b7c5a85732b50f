package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fieldwatch/internal/field/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, field *domain.Field) error {
	return db.WithContext(ctx).Create(field).Error
}

func (r *repo) FindOwned(ctx context.Context, db *gorm.DB, id, userID snowflake.ID) (*domain.Field, error) {
	var field domain.Field
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Take(&field).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &field, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Field, error) {
	var field domain.Field
	err := db.WithContext(ctx).Where("id = ?", id).Take(&field).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &field, nil
}

func (r *repo) NameTaken(ctx context.Context, db *gorm.DB, userID snowflake.ID, name string, excludeID snowflake.ID) (bool, error) {
	var count int64
	stmt := db.WithContext(ctx).
		Model(&domain.Field{}).
		Where("user_id = ? AND name = ?", userID, name)
	if excludeID != 0 {
		stmt = stmt.Where("id <> ?", excludeID)
	}
	if err := stmt.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, field *domain.Field) error {
	return db.WithContext(ctx).
		Model(&domain.Field{}).
		Where("id = ?", field.ID).
		Updates(map[string]any{
			"name":       field.Name,
			"city":       field.City,
			"updated_at": field.UpdatedAt,
		}).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Field{}).Error
}
