package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/cfletch1/portfolio-service/internal/money"
)

// Feed names in the provider's query protocol.
const (
	functionDaily       = "TIME_SERIES_DAILY"
	functionWeekly      = "TIME_SERIES_WEEKLY_ADJUSTED"
	functionGlobalQuote = "GLOBAL_QUOTE"

	keyDaily       = "Time Series (Daily)"
	keyWeekly      = "Weekly Adjusted Time Series"
	keyGlobalQuote = "Global Quote"

	closeField = "4. close"
)

// Feed is the quote feed as seen by the rest of the system. *Client
// and *CachingClient both implement it.
type Feed interface {
	FetchDaily(ctx context.Context, symbol string) Result
	FetchWeeklySeries(ctx context.Context, symbol string) SeriesResult
	FetchGlobalQuote(ctx context.Context, symbol string) GlobalQuoteResult
}

// Config holds the provider endpoint settings.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client issues one HTTP GET per fetch against the market data feed.
// It never retries: retrying a rate-limited feed must be rate-aware,
// and that belongs to the caller.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates a feed client. The API key is validated at
// startup by config.Validate, not here.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
	}
}

// FetchDaily retrieves the latest daily closing price for a symbol.
// The feed returns multiple dated entries; the entries are sorted by
// date descending and the most recent close wins, regardless of the
// JSON ordering the feed happened to use.
func (c *Client) FetchDaily(ctx context.Context, symbol string) Result {
	env, kind, reason := c.fetch(ctx, functionDaily, symbol)
	if kind != KindSuccess {
		return Result{Kind: kind, Reason: reason}
	}

	entries, kind, reason := datedEntries(env, keyDaily)
	if kind != KindSuccess {
		return Result{Kind: kind, Reason: reason}
	}

	latest := entries[0]
	price, err := money.ParseRequired(latest.fields[closeField])
	if err != nil {
		return Malformed(fmt.Sprintf("daily close for %s: %v", latest.date.Format("2006-01-02"), err))
	}
	return Success(price, time.Now())
}

// FetchWeeklySeries retrieves the weekly closing price series for a
// symbol, newest first.
func (c *Client) FetchWeeklySeries(ctx context.Context, symbol string) SeriesResult {
	env, kind, reason := c.fetch(ctx, functionWeekly, symbol)
	if kind != KindSuccess {
		return SeriesResult{Kind: kind, Reason: reason}
	}

	entries, kind, reason := datedEntries(env, keyWeekly)
	if kind != KindSuccess {
		return SeriesResult{Kind: kind, Reason: reason}
	}

	series := make(Series, 0, len(entries))
	for _, e := range entries {
		price, err := money.ParseRequired(e.fields[closeField])
		if err != nil {
			return SeriesResult{Kind: KindMalformed, Reason: fmt.Sprintf("weekly close for %s: %v", e.date.Format("2006-01-02"), err)}
		}
		series = append(series, Point{Date: e.date, Close: price})
	}
	return SeriesResult{Kind: KindSuccess, Series: series}
}

// FetchGlobalQuote retrieves the feed's snapshot quote for a symbol.
// Change and previous-close are analytics fields the feed may report
// as "None" or "-", which parse to zero.
func (c *Client) FetchGlobalQuote(ctx context.Context, symbol string) GlobalQuoteResult {
	env, kind, reason := c.fetch(ctx, functionGlobalQuote, symbol)
	if kind != KindSuccess {
		return GlobalQuoteResult{Kind: kind, Reason: reason}
	}

	raw, ok := env[keyGlobalQuote]
	if !ok {
		return GlobalQuoteResult{Kind: KindRateLimited, Reason: quotaReason(keyGlobalQuote)}
	}
	var fields map[string]string
	if err := json.Unmarshal(raw, &fields); err != nil {
		return GlobalQuoteResult{Kind: KindMalformed, Reason: fmt.Sprintf("decoding %q: %v", keyGlobalQuote, err)}
	}

	price, err := money.ParseRequired(fields["05. price"])
	if err != nil {
		return GlobalQuoteResult{Kind: KindMalformed, Reason: fmt.Sprintf("quote price: %v", err)}
	}
	return GlobalQuoteResult{
		Kind: KindSuccess,
		Quote: GlobalQuote{
			Symbol:           symbol,
			Price:            price,
			PreviousClose:    money.ParseOptionalOrZero(fields["08. previous close"]),
			ChangePercent:    money.ParseRatioOptionalOrZero(fields["10. change percent"]),
			LatestTradingDay: fields["07. latest trading day"],
		},
	}
}

// fetch issues the HTTP GET and classifies transport-level outcomes.
func (c *Client) fetch(ctx context.Context, function, symbol string) (map[string]json.RawMessage, Kind, string) {
	q := url.Values{}
	q.Set("function", function)
	q.Set("symbol", symbol)
	q.Set("apikey", c.apiKey)
	addr := c.baseURL + "/query?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, KindUnavailable, "network: " + err.Error()
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, KindUnavailable, "network: " + err.Error()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, KindUnavailable, fmt.Sprintf("http status %d", resp.StatusCode)
	}

	var env map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, KindMalformed, "invalid json: " + err.Error()
	}
	return env, KindSuccess, ""
}

type datedEntry struct {
	date   time.Time
	fields map[string]string
}

// datedEntries extracts and date-sorts the entries under a time
// series key, newest first. A missing key is the feed's documented
// quota-exhaustion signal.
func datedEntries(env map[string]json.RawMessage, key string) ([]datedEntry, Kind, string) {
	raw, ok := env[key]
	if !ok {
		return nil, KindRateLimited, quotaReason(key)
	}
	var bucket map[string]map[string]string
	if err := json.Unmarshal(raw, &bucket); err != nil {
		return nil, KindMalformed, fmt.Sprintf("decoding %q: %v", key, err)
	}
	if len(bucket) == 0 {
		return nil, KindMalformed, fmt.Sprintf("empty %q", key)
	}

	entries := make([]datedEntry, 0, len(bucket))
	for ds, fields := range bucket {
		d, err := time.Parse("2006-01-02", ds)
		if err != nil {
			return nil, KindMalformed, fmt.Sprintf("entry date %q: %v", ds, err)
		}
		entries = append(entries, datedEntry{date: d, fields: fields})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].date.After(entries[j].date) })
	return entries, KindSuccess, ""
}

func quotaReason(key string) string {
	return fmt.Sprintf("missing key %q, API quota exceeded", key)
}
