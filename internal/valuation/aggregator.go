package valuation

import (
	"context"

	"github.com/cfletch1/portfolio-service/internal/models"
	"github.com/cfletch1/portfolio-service/internal/money"
)

// AggregateResult reports how a portfolio revaluation pass ended.
type AggregateResult struct {
	// Failed is set when a position's refresh failed and iteration
	// stopped there. The total covers only the positions before it.
	Failed       bool
	FailedSymbol string
	Reason       string
	// Refreshed holds the positions whose cached quote changed during
	// the pass. The caller persists them.
	Refreshed []*models.Position
}

// RevaluePortfolio runs the refresh engine over a user's positions in
// their stored (creation) order and totals their values. The first
// failed refresh stops the pass: the partial total and the failure
// reason are returned, and later positions are not evaluated. A
// single flaky quote aborting the pass beats silently omitting a row.
func (e *Engine) RevaluePortfolio(ctx context.Context, positions []*models.Position) (money.Amount, AggregateResult) {
	var total money.Amount
	var res AggregateResult

	for _, p := range positions {
		out := e.RefreshIfStale(ctx, p)
		switch out.Status {
		case StatusRefreshed:
			res.Refreshed = append(res.Refreshed, p)
			total += p.PositionValue
		case StatusNotNeeded:
			total += p.PositionValue
		case StatusFailed:
			res.Failed = true
			res.FailedSymbol = p.Symbol
			res.Reason = out.Reason
			return total, res
		}
	}
	return total, res
}
