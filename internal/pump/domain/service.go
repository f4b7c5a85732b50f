package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Service interface {
	Control(ctx context.Context, id string, req Control) (State, error)
	List(ctx context.Context) ([]Pump, error)
	// SwitchCheckpoints sets every pump attached to checkpointIDs inside tx and
	// returns how many pumps were resolved.
	SwitchCheckpoints(ctx context.Context, tx *gorm.DB, checkpointIDs []snowflake.ID, isOn bool) (int, error)
}

var (
	ErrInvalidID = errors.New("invalid_id")
	ErrNotFound  = errors.New("not_found")
)
