package driven

import (
	"time"

	"github.com/ericfisherdev/rivianctl/internal/domain/model"
)

// Reporter renders poll output. Implementations decide the format.
type Reporter interface {
	// Line reports one sample.
	Line(at time.Time, key model.ComparableKey)
	// Offline reports that the telemetry source is unavailable.
	Offline(at time.Time)
	// Notice reports a scheduler status message.
	Notice(at time.Time, msg string)
}
