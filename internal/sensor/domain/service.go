package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Catalog resolves the current range for each sensor type.
type Catalog interface {
	Specs() []Spec
	Spec(t SensorType) (Spec, bool)
}

// Sampler draws one synthetic reading for a spec.
type Sampler interface {
	Sample(spec Spec) float64
}

type Service interface {
	// Refresh rewrites every checkpoint's readings in a single transaction.
	Refresh(ctx context.Context) (RefreshResult, error)
	// SeedCheckpoint creates the initial readings of a new checkpoint inside tx.
	SeedCheckpoint(ctx context.Context, tx *gorm.DB, checkpointID snowflake.ID) ([]*Sensor, error)
}

var ErrEmptyCatalog = errors.New("empty_sensor_catalog")
