package domain

import (
	"context"
	"errors"
)

type CreateFieldRequest struct {
	Name   string
	City   string
	UserID string
}

type UpdateFieldRequest struct {
	ID     string
	UserID string
	Name   *string
	City   *string
}

type Service interface {
	List(ctx context.Context, userID string) ([]Overview, error)
	Create(ctx context.Context, req CreateFieldRequest) (Field, error)
	Update(ctx context.Context, req UpdateFieldRequest) (Field, error)
	Delete(ctx context.Context, id, userID string) error
}

var (
	ErrInvalidID     = errors.New("invalid_id")
	ErrInvalidUser   = errors.New("invalid_user_id")
	ErrInvalidName   = errors.New("invalid_name")
	ErrDuplicateName = errors.New("duplicate_field_name")
	ErrNotFound      = errors.New("not_found")
)
