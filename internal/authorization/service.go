package authorization

import (
	"context"
	"errors"
)

var (
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidActor  = errors.New("invalid_actor")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
)

type Service interface {
	// Authorize returns ErrForbidden when actor may not perform action on object.
	Authorize(ctx context.Context, actor string, object string, action string) error
	// EnsureRole groups actor into the default role.
	EnsureRole(ctx context.Context, actor string) error
}
