package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock abstracts wall time so services can be tested against fixed dates.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

func NewSystemClock() Clock { return systemClock{} }

var Module = fx.Provide(NewSystemClock)
