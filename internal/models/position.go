package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cfletch1/portfolio-service/internal/money"
)

// Position represents one purchased stock holding belonging to a user.
//
// CurrentPrice, CurrentPriceRetrievedOn and PositionValue form the
// cached quote: they are written together by ApplyQuote and by nothing
// else. A failed refresh never touches them.
type Position struct {
	ID                      int          `json:"id"`
	OwnerID                 uuid.UUID    `json:"owner_id"`
	Symbol                  string       `json:"symbol"`
	Shares                  int64        `json:"shares"`
	PurchasePrice           money.Amount `json:"purchase_price"`
	PurchaseDate            time.Time    `json:"purchase_date"`
	CurrentPrice            money.Amount `json:"current_price"`
	CurrentPriceRetrievedOn *time.Time   `json:"current_price_retrieved_on,omitempty"`
	PositionValue           money.Amount `json:"position_value"`
	CreatedAt               time.Time    `json:"created_at"`
	UpdatedAt               time.Time    `json:"updated_at"`
}

// Validate checks the user-supplied fields of a position.
func (p *Position) Validate() error {
	if p.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if p.Symbol != strings.ToUpper(p.Symbol) {
		return fmt.Errorf("symbol must be uppercase: %q", p.Symbol)
	}
	if p.Shares <= 0 {
		return fmt.Errorf("shares must be positive: %d", p.Shares)
	}
	if p.PurchaseDate.IsZero() {
		return fmt.Errorf("purchase date is required")
	}
	return nil
}

// ApplyQuote records a successful quote refresh. It is the sole
// mutator of the cached quote: price, retrieval timestamp and derived
// position value change together or not at all.
func (p *Position) ApplyQuote(price money.Amount, asOf time.Time) {
	p.CurrentPrice = price
	p.CurrentPriceRetrievedOn = &asOf
	p.PositionValue = price.MulShares(p.Shares)
}

// UpdateHolding applies a user edit of the purchased fields. The
// derived position value is recomputed from the cached price so it
// never goes stale relative to the new share count.
func (p *Position) UpdateHolding(shares int64, purchasePrice money.Amount, purchaseDate time.Time) {
	p.Shares = shares
	p.PurchasePrice = purchasePrice
	p.PurchaseDate = purchaseDate
	if p.CurrentPriceRetrievedOn != nil {
		p.PositionValue = p.CurrentPrice.MulShares(p.Shares)
	}
}

// HasQuote reports whether the position holds a priced quote. It
// panics on the impossible state of a retrieval timestamp with a zero
// price, which indicates a bug in whatever wrote the position.
func (p *Position) HasQuote() bool {
	if p.CurrentPriceRetrievedOn == nil {
		return false
	}
	if p.CurrentPrice == 0 {
		panic(fmt.Sprintf("position %d (%s): retrieval timestamp set with zero price", p.ID, p.Symbol))
	}
	return true
}

// GainLoss returns the unrealized profit or loss against the purchase
// price, zero when no quote has been retrieved yet.
func (p *Position) GainLoss() money.Amount {
	if p.CurrentPriceRetrievedOn == nil {
		return 0
	}
	return p.PositionValue - p.PurchasePrice.MulShares(p.Shares)
}

// GainLossRatio returns the unrealized gain as a percentage of cost
// basis, zero when no quote has been retrieved or the cost basis is
// zero.
func (p *Position) GainLossRatio() money.Ratio {
	cost := p.PurchasePrice.MulShares(p.Shares)
	if p.CurrentPriceRetrievedOn == nil || cost == 0 {
		return 0
	}
	gain := int64(p.PositionValue - cost)
	// percent of cost at ratio scale 10000
	return money.Ratio(gain * 100 * 10000 / int64(cost))
}
