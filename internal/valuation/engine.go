package valuation

import (
	"context"

	"github.com/cfletch1/portfolio-service/internal/models"
	"github.com/cfletch1/portfolio-service/internal/quotes"
)

// Quoter is the slice of the quote feed the engine needs.
type Quoter interface {
	FetchDaily(ctx context.Context, symbol string) quotes.Result
}

// Status classifies the outcome of one refresh attempt.
type Status int

const (
	// StatusNotNeeded means the cached quote was already fresh; no
	// feed call was made and nothing was mutated.
	StatusNotNeeded Status = iota
	// StatusRefreshed means a new quote was fetched and applied.
	StatusRefreshed
	// StatusFailed means the feed did not produce a usable quote; the
	// cached fields were left untouched.
	StatusFailed
)

// Outcome is the result of RefreshIfStale for a single position.
type Outcome struct {
	Status Status
	Reason string
}

// Engine refreshes stale position quotes. Its dependencies are
// explicit constructor arguments, never package state.
type Engine struct {
	feed  Quoter
	clock Clock
}

// NewEngine creates a valuation engine.
func NewEngine(feed Quoter, clock Clock) *Engine {
	return &Engine{feed: feed, clock: clock}
}

// RefreshIfStale fetches a fresh daily quote for the position when
// its cached one is stale, applying price, retrieval timestamp and
// derived value in one step. On any feed failure the cached fields
// are left exactly as they were. Calling it twice in one calendar day
// makes exactly one feed call: the second call short-circuits on the
// timestamp the first one wrote.
func (e *Engine) RefreshIfStale(ctx context.Context, p *models.Position) Outcome {
	if !NeedsRefresh(p.CurrentPriceRetrievedOn, e.clock.Now()) {
		return Outcome{Status: StatusNotNeeded}
	}

	res := e.feed.FetchDaily(ctx, p.Symbol)
	if !res.IsSuccess() {
		return Outcome{Status: StatusFailed, Reason: res.Reason}
	}

	p.ApplyQuote(res.Price, res.AsOf)
	return Outcome{Status: StatusRefreshed}
}
