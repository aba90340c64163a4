// Package clock supplies the effective "today" used by schedule and status
// computations. The provider is injected everywhere a default reference date
// is needed, so the whole engine can run against a simulated date.
package clock

import (
	"time"

	"github.com/tanzhaus/backoffice-api/pkg/dates"
)

// Provider yields the current reference date at day granularity.
type Provider interface {
	Today() time.Time
}

// System reads the wall clock. Used only at the application edge.
type System struct{}

// Today returns the current UTC date.
func (System) Today() time.Time {
	return dates.Day(time.Now().UTC())
}

// Fixed always returns the same date. Used for simulated-time workflows and
// tests.
type Fixed struct {
	Date time.Time
}

// Today returns the configured date.
func (f Fixed) Today() time.Time {
	return dates.Day(f.Date)
}
