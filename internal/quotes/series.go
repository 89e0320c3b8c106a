package quotes

import (
	"sort"
	"time"

	"github.com/cfletch1/portfolio-service/internal/money"
)

// chartWindow is how far back a position chart reaches when the
// purchase predates it.
const chartWindow = 12 * 7 * 24 * time.Hour

// Point is one dated closing price.
type Point struct {
	Date  time.Time    `json:"date"`
	Close money.Amount `json:"close"`
}

// Series is a closing price series as fetched from the feed, newest
// first.
type Series []Point

// Windowed trims the series to the window relevant to a position's
// chart: entries strictly after max(purchaseDate, today-12 weeks),
// reordered oldest first for charting.
func (s Series) Windowed(purchaseDate, today time.Time) Series {
	start := today.Add(-chartWindow)
	if purchaseDate.After(start) {
		start = purchaseDate
	}

	out := make(Series, 0, len(s))
	for _, p := range s {
		if p.Date.After(start) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
