package domain

import (
	"context"
	"errors"
)

type CreateCheckpointRequest struct {
	Name    string
	FieldID string
	UserID  string
}

type UpdateCheckpointRequest struct {
	ID     string
	UserID string
	Name   *string
}

type Service interface {
	Create(ctx context.Context, req CreateCheckpointRequest) (Provisioned, error)
	Update(ctx context.Context, req UpdateCheckpointRequest) (Checkpoint, error)
	Delete(ctx context.Context, id, userID string) error
}

var (
	ErrInvalidID     = errors.New("invalid_id")
	ErrInvalidUser   = errors.New("invalid_user_id")
	ErrInvalidName   = errors.New("invalid_name")
	ErrFieldNotFound = errors.New("field_not_found")
	ErrNotFound      = errors.New("not_found")
)
