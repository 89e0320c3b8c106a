// Package valuation decides when cached position prices are stale,
// refreshes them from the quote feed, and totals a user's portfolio.
// Refreshes are strictly caller-triggered; there is no background
// scheduling.
package valuation

import "time"

// Clock supplies the current time. Injected so staleness decisions
// are deterministic under test.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }
