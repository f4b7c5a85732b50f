package clock

import (
	"time"

	"go.uber.org/fx"
)

var Module = fx.Provide(func() Clock { return SystemClock{} })

// Clock abstracts wall time so refresh ticks and pump stamps are testable.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
