package valuation

import "time"

// NeedsRefresh reports whether a cached quote retrieved at
// lastRetrieved is stale at now. A quote is stale when it has never
// been retrieved or when its retrieval calendar date differs from
// today's, which bounds the system to one successful feed call per
// position per day no matter how often the portfolio is viewed.
func NeedsRefresh(lastRetrieved *time.Time, now time.Time) bool {
	if lastRetrieved == nil {
		return true
	}
	y1, m1, d1 := lastRetrieved.Date()
	y2, m2, d2 := now.Date()
	return y1 != y2 || m1 != m2 || d1 != d2
}
