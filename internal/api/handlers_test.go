package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cfletch1/portfolio-service/internal/models"
	"github.com/cfletch1/portfolio-service/internal/money"
	"github.com/cfletch1/portfolio-service/internal/quotes"
	"github.com/cfletch1/portfolio-service/internal/valuation"
)

// MockStore implements the Store interface for testing
type MockStore struct {
	positions map[int]*models.Position
	watchlist map[string]*models.WatchlistEntry // key: owner:symbol
	nextID    int

	UpdatePositionCalls int
}

func NewMockStore() *MockStore {
	return &MockStore{
		positions: make(map[int]*models.Position),
		watchlist: make(map[string]*models.WatchlistEntry),
		nextID:    1,
	}
}

func (m *MockStore) CreatePosition(p *models.Position) error {
	p.ID = m.nextID
	m.nextID++
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.positions[p.ID] = p
	return nil
}

func (m *MockStore) GetPositionByID(id int) (*models.Position, error) {
	p, ok := m.positions[id]
	if !ok {
		return nil, fmt.Errorf("position not found: %d", id)
	}
	return p, nil
}

func (m *MockStore) GetPositionsByOwner(ownerID uuid.UUID) ([]*models.Position, error) {
	var out []*models.Position
	for id := 1; id < m.nextID; id++ {
		if p, ok := m.positions[id]; ok && p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MockStore) UpdatePosition(p *models.Position) error {
	m.UpdatePositionCalls++
	if _, ok := m.positions[p.ID]; !ok {
		return fmt.Errorf("position not found: %d", p.ID)
	}
	m.positions[p.ID] = p
	return nil
}

func (m *MockStore) DeletePosition(id int) error {
	if _, ok := m.positions[id]; !ok {
		return fmt.Errorf("position not found: %d", id)
	}
	delete(m.positions, id)
	return nil
}

func (m *MockStore) AddWatchlistEntry(e *models.WatchlistEntry) error {
	if e.AddedAt.IsZero() {
		e.AddedAt = time.Now()
	}
	m.watchlist[e.OwnerID.String()+":"+e.Symbol] = e
	return nil
}

func (m *MockStore) RemoveWatchlistEntry(ownerID uuid.UUID, symbol string) error {
	key := ownerID.String() + ":" + symbol
	if _, ok := m.watchlist[key]; !ok {
		return fmt.Errorf("watchlist entry not found: %s", symbol)
	}
	delete(m.watchlist, key)
	return nil
}

func (m *MockStore) GetWatchlistByOwner(ownerID uuid.UUID) ([]*models.WatchlistEntry, error) {
	var out []*models.WatchlistEntry
	for _, e := range m.watchlist {
		if e.OwnerID == ownerID {
			out = append(out, e)
		}
	}
	return out, nil
}

// stubFeed returns canned feed results per symbol.
type stubFeed struct {
	daily  map[string]quotes.Result
	weekly map[string]quotes.SeriesResult
	global map[string]quotes.GlobalQuoteResult
}

func newStubFeed() *stubFeed {
	return &stubFeed{
		daily:  map[string]quotes.Result{},
		weekly: map[string]quotes.SeriesResult{},
		global: map[string]quotes.GlobalQuoteResult{},
	}
}

func (s *stubFeed) FetchDaily(ctx context.Context, symbol string) quotes.Result {
	return s.daily[symbol]
}

func (s *stubFeed) FetchWeeklySeries(ctx context.Context, symbol string) quotes.SeriesResult {
	return s.weekly[symbol]
}

func (s *stubFeed) FetchGlobalQuote(ctx context.Context, symbol string) quotes.GlobalQuoteResult {
	return s.global[symbol]
}

type fixedClock struct {
	now time.Time
}

func (f *fixedClock) Now() time.Time { return f.now }

func newTestHandler(store Store, feed *stubFeed, now time.Time) *Handler {
	clock := &fixedClock{now: now}
	engine := valuation.NewEngine(feed, clock)
	return NewHandler(store, engine, feed, clock, nil)
}

func doRequest(h *Handler, method, path string, owner uuid.UUID, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if owner != uuid.Nil {
		req.Header.Set("X-User-ID", owner.String())
	}
	rec := httptest.NewRecorder()
	SetupRoutes(h).ServeHTTP(rec, req)
	return rec
}

func TestGetPortfolio(t *testing.T) {
	now := time.Date(2021, 3, 10, 10, 0, 0, 0, time.UTC)
	owner := uuid.New()

	t.Run("revalues and persists refreshed positions", func(t *testing.T) {
		store := NewMockStore()
		feed := newStubFeed()
		feed.daily["AAPL"] = quotes.Success(14834, now)
		feed.daily["MSFT"] = quotes.Success(30000, now)
		h := newTestHandler(store, feed, now)

		require.NoError(t, store.CreatePosition(&models.Position{OwnerID: owner, Symbol: "AAPL", Shares: 16, PurchasePrice: 40678, PurchaseDate: now}))
		require.NoError(t, store.CreatePosition(&models.Position{OwnerID: owner, Symbol: "MSFT", Shares: 5, PurchasePrice: 20000, PurchaseDate: now}))

		rec := doRequest(h, http.MethodGet, "/api/v1/portfolio", owner, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp portfolioResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, money.Amount(237344+150000), resp.TotalValue)
		assert.Equal(t, "$3,873.44", resp.TotalValueDisplay)
		assert.Empty(t, resp.Error)
		require.Len(t, resp.Positions, 2)
		assert.Equal(t, "148.34", resp.Positions[0].CurrentPriceDisplay)
		assert.Equal(t, 2, store.UpdatePositionCalls)
	})

	t.Run("first feed failure yields partial total and message", func(t *testing.T) {
		store := NewMockStore()
		feed := newStubFeed()
		retrieved := now.Add(-time.Hour)
		feed.daily["FAIL"] = quotes.Unavailable("network")
		h := newTestHandler(store, feed, now)

		fresh := &models.Position{OwnerID: owner, Symbol: "AAPL", Shares: 1, PurchasePrice: 900, PurchaseDate: now}
		require.NoError(t, store.CreatePosition(fresh))
		fresh.CurrentPrice = 1000
		fresh.CurrentPriceRetrievedOn = &retrieved
		fresh.PositionValue = 1000
		require.NoError(t, store.CreatePosition(&models.Position{OwnerID: owner, Symbol: "FAIL", Shares: 1, PurchasePrice: 900, PurchaseDate: now}))

		rec := doRequest(h, http.MethodGet, "/api/v1/portfolio", owner, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp portfolioResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, money.Amount(1000), resp.TotalValue)
		assert.Contains(t, resp.Error, "problem retrieving stock data for FAIL")
		assert.Contains(t, resp.Error, "network")
	})

	t.Run("requires identity header", func(t *testing.T) {
		h := newTestHandler(NewMockStore(), newStubFeed(), now)

		rec := doRequest(h, http.MethodGet, "/api/v1/portfolio", uuid.Nil, nil)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestCreatePosition(t *testing.T) {
	now := time.Date(2021, 3, 10, 10, 0, 0, 0, time.UTC)
	owner := uuid.New()

	t.Run("creates a valid position", func(t *testing.T) {
		store := NewMockStore()
		h := newTestHandler(store, newStubFeed(), now)

		rec := doRequest(h, http.MethodPost, "/api/v1/positions", owner, positionRequest{
			Symbol: "AAPL", Shares: 16, Price: "406.78", PurchaseDate: "2020-07-18",
		})

		require.Equal(t, http.StatusCreated, rec.Code)
		var created models.Position
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		assert.Equal(t, money.Amount(40678), created.PurchasePrice)
		assert.Equal(t, owner, created.OwnerID)
		assert.NotZero(t, created.ID)
	})

	t.Run("unparsable price is a validation failure", func(t *testing.T) {
		h := newTestHandler(NewMockStore(), newStubFeed(), now)

		rec := doRequest(h, http.MethodPost, "/api/v1/positions", owner, positionRequest{
			Symbol: "AAPL", Shares: 16, Price: "lots", PurchaseDate: "2020-07-18",
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects invalid symbol and shares", func(t *testing.T) {
		h := newTestHandler(NewMockStore(), newStubFeed(), now)

		rec := doRequest(h, http.MethodPost, "/api/v1/positions", owner, positionRequest{
			Symbol: "aapl", Shares: 16, Price: "406.78", PurchaseDate: "2020-07-18",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = doRequest(h, http.MethodPost, "/api/v1/positions", owner, positionRequest{
			Symbol: "AAPL", Shares: 0, Price: "406.78", PurchaseDate: "2020-07-18",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestUpdateAndDeletePosition(t *testing.T) {
	now := time.Date(2021, 3, 10, 10, 0, 0, 0, time.UTC)
	owner := uuid.New()
	stranger := uuid.New()

	setup := func(t *testing.T) (*MockStore, *Handler, *models.Position) {
		store := NewMockStore()
		h := newTestHandler(store, newStubFeed(), now)
		pos := &models.Position{OwnerID: owner, Symbol: "AAPL", Shares: 16, PurchasePrice: 40678, PurchaseDate: now}
		require.NoError(t, store.CreatePosition(pos))
		return store, h, pos
	}

	t.Run("edit recomputes value from cached price", func(t *testing.T) {
		store, h, pos := setup(t)
		pos.ApplyQuote(14834, now)

		rec := doRequest(h, http.MethodPut, fmt.Sprintf("/api/v1/positions/%d", pos.ID), owner, positionRequest{
			Symbol: "AAPL", Shares: 10, Price: "400.00", PurchaseDate: "2020-07-18",
		})

		require.Equal(t, http.StatusOK, rec.Code)
		updated, err := store.GetPositionByID(pos.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(10), updated.Shares)
		assert.Equal(t, money.Amount(148340), updated.PositionValue)
	})

	t.Run("other users cannot touch the position", func(t *testing.T) {
		_, h, pos := setup(t)

		rec := doRequest(h, http.MethodPut, fmt.Sprintf("/api/v1/positions/%d", pos.ID), stranger, positionRequest{
			Symbol: "AAPL", Shares: 1, Price: "1.00", PurchaseDate: "2020-07-18",
		})
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = doRequest(h, http.MethodDelete, fmt.Sprintf("/api/v1/positions/%d", pos.ID), stranger, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("delete removes the position", func(t *testing.T) {
		store, h, pos := setup(t)

		rec := doRequest(h, http.MethodDelete, fmt.Sprintf("/api/v1/positions/%d", pos.ID), owner, nil)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		_, err := store.GetPositionByID(pos.ID)
		require.Error(t, err)
	})
}

func TestGetPositionChart(t *testing.T) {
	now := time.Date(2020, 7, 25, 10, 0, 0, 0, time.UTC)
	owner := uuid.New()

	day := func(s string) time.Time {
		d, err := time.Parse("2006-01-02", s)
		require.NoError(t, err)
		return d
	}

	t.Run("returns the windowed series oldest first", func(t *testing.T) {
		store := NewMockStore()
		feed := newStubFeed()
		feed.weekly["AAPL"] = quotes.SeriesResult{
			Kind: quotes.KindSuccess,
			Series: quotes.Series{
				{Date: day("2020-07-24"), Close: 37046},
				{Date: day("2020-07-20"), Close: 38500},
				{Date: day("2020-03-27"), Close: 24745},
				{Date: day("2020-03-20"), Close: 22937},
			},
		}
		h := newTestHandler(store, feed, now)

		pos := &models.Position{OwnerID: owner, Symbol: "AAPL", Shares: 16, PurchasePrice: 40678, PurchaseDate: day("2020-07-18")}
		require.NoError(t, store.CreatePosition(pos))

		rec := doRequest(h, http.MethodGet, fmt.Sprintf("/api/v1/positions/%d/chart", pos.ID), owner, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Symbol string       `json:"symbol"`
			Points []chartPoint `json:"points"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Points, 2)
		assert.Equal(t, "2020-07-20", resp.Points[0].Date)
		assert.Equal(t, "2020-07-24", resp.Points[1].Date)
	})

	t.Run("feed failure is a bad gateway with a message", func(t *testing.T) {
		store := NewMockStore()
		feed := newStubFeed()
		feed.weekly["AAPL"] = quotes.SeriesResult{Kind: quotes.KindRateLimited, Reason: "quota exceeded"}
		h := newTestHandler(store, feed, now)

		pos := &models.Position{OwnerID: owner, Symbol: "AAPL", Shares: 16, PurchasePrice: 40678, PurchaseDate: day("2020-07-18")}
		require.NoError(t, store.CreatePosition(pos))

		rec := doRequest(h, http.MethodGet, fmt.Sprintf("/api/v1/positions/%d/chart", pos.ID), owner, nil)

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Contains(t, rec.Body.String(), "quota exceeded")
	})
}

func TestWatchlist(t *testing.T) {
	now := time.Date(2021, 3, 10, 10, 0, 0, 0, time.UTC)
	owner := uuid.New()

	t.Run("add, list with quotes, remove", func(t *testing.T) {
		store := NewMockStore()
		feed := newStubFeed()
		feed.global["AAPL"] = quotes.GlobalQuoteResult{
			Kind:  quotes.KindSuccess,
			Quote: quotes.GlobalQuote{Symbol: "AAPL", Price: 14834, ChangePercent: 3784},
		}
		h := newTestHandler(store, feed, now)

		rec := doRequest(h, http.MethodPost, "/api/v1/watchlist", owner, map[string]string{"symbol": "AAPL"})
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = doRequest(h, http.MethodGet, "/api/v1/watchlist", owner, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var rows []watchlistRow
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
		require.Len(t, rows, 1)
		assert.Equal(t, "148.34", rows[0].PriceDisplay)
		assert.Equal(t, "0.38%", rows[0].ChangePercent)

		rec = doRequest(h, http.MethodDelete, "/api/v1/watchlist/AAPL", owner, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("quote failure marks the row but the list renders", func(t *testing.T) {
		store := NewMockStore()
		feed := newStubFeed()
		feed.global["MSFT"] = quotes.GlobalQuoteResult{Kind: quotes.KindUnavailable, Reason: "network"}
		h := newTestHandler(store, feed, now)

		doRequest(h, http.MethodPost, "/api/v1/watchlist", owner, map[string]string{"symbol": "MSFT"})
		rec := doRequest(h, http.MethodGet, "/api/v1/watchlist", owner, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var rows []watchlistRow
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
		require.Len(t, rows, 1)
		assert.Equal(t, "network", rows[0].QuoteError)
		assert.Empty(t, rows[0].PriceDisplay)
	})

	t.Run("rejects empty symbol", func(t *testing.T) {
		h := newTestHandler(NewMockStore(), newStubFeed(), now)

		rec := doRequest(h, http.MethodPost, "/api/v1/watchlist", owner, map[string]string{})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
