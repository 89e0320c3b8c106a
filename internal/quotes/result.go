// Package quotes talks to the external market data feed and turns its
// responses into exact fixed-point prices. Expected feed failures are
// values, not errors: every fetch classifies into success, rate
// limited, unavailable or malformed, and callers handle all four.
package quotes

import (
	"time"

	"github.com/cfletch1/portfolio-service/internal/money"
)

// Kind classifies the outcome of a feed request.
type Kind int

const (
	// KindSuccess means a price was retrieved and parsed.
	KindSuccess Kind = iota
	// KindRateLimited means the feed signalled quota exhaustion. The
	// feed does this by omitting the documented top-level key from an
	// otherwise valid 200 response. Retry later, never immediately.
	KindRateLimited
	// KindUnavailable covers transport failures and unexpected HTTP
	// statuses.
	KindUnavailable
	// KindMalformed means the feed answered but the payload could not
	// be interpreted.
	KindMalformed
)

// Result is the outcome of a daily quote request.
type Result struct {
	Kind   Kind
	Price  money.Amount
	AsOf   time.Time
	Reason string
}

// Success builds a successful daily quote result.
func Success(price money.Amount, asOf time.Time) Result {
	return Result{Kind: KindSuccess, Price: price, AsOf: asOf}
}

// RateLimited builds a quota-exhausted result.
func RateLimited(reason string) Result {
	return Result{Kind: KindRateLimited, Reason: reason}
}

// Unavailable builds a transport-failure result.
func Unavailable(reason string) Result {
	return Result{Kind: KindUnavailable, Reason: reason}
}

// Malformed builds an uninterpretable-payload result.
func Malformed(reason string) Result {
	return Result{Kind: KindMalformed, Reason: reason}
}

// IsSuccess reports whether the request produced a usable price.
func (r Result) IsSuccess() bool { return r.Kind == KindSuccess }

// SeriesResult is the outcome of a weekly series request.
type SeriesResult struct {
	Kind   Kind
	Series Series
	Reason string
}

// IsSuccess reports whether the request produced a usable series.
func (r SeriesResult) IsSuccess() bool { return r.Kind == KindSuccess }

// GlobalQuote is the feed's snapshot quote for a symbol, used to
// decorate watchlist rows. Analytics fields are optional in the feed
// and default to zero.
type GlobalQuote struct {
	Symbol           string       `json:"symbol"`
	Price            money.Amount `json:"price"`
	PreviousClose    money.Amount `json:"previous_close"`
	ChangePercent    money.Ratio  `json:"change_percent"`
	LatestTradingDay string       `json:"latest_trading_day"`
}

// GlobalQuoteResult is the outcome of a snapshot quote request.
type GlobalQuoteResult struct {
	Kind   Kind
	Quote  GlobalQuote
	Reason string
}

// IsSuccess reports whether the request produced a usable quote.
func (r GlobalQuoteResult) IsSuccess() bool { return r.Kind == KindSuccess }
