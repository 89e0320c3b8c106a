package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/cfletch1/portfolio-service/internal/kafka"
	"github.com/cfletch1/portfolio-service/internal/models"
	"github.com/cfletch1/portfolio-service/internal/money"
	"github.com/cfletch1/portfolio-service/internal/quotes"
	"github.com/cfletch1/portfolio-service/internal/valuation"
)

// Store is the persistence surface the handlers need.
type Store interface {
	CreatePosition(p *models.Position) error
	GetPositionByID(id int) (*models.Position, error)
	GetPositionsByOwner(ownerID uuid.UUID) ([]*models.Position, error)
	UpdatePosition(p *models.Position) error
	DeletePosition(id int) error
	AddWatchlistEntry(e *models.WatchlistEntry) error
	RemoveWatchlistEntry(ownerID uuid.UUID, symbol string) error
	GetWatchlistByOwner(ownerID uuid.UUID) ([]*models.WatchlistEntry, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	store    Store
	engine   *valuation.Engine
	feed     quotes.Feed
	clock    valuation.Clock
	producer *kafka.Producer
}

// NewHandler creates a new Handler
func NewHandler(store Store, engine *valuation.Engine, feed quotes.Feed, clock valuation.Clock, producer *kafka.Producer) *Handler {
	return &Handler{
		store:    store,
		engine:   engine,
		feed:     feed,
		clock:    clock,
		producer: producer,
	}
}

// ownerID extracts the authenticated user from the request. Session
// handling lives in front of this service; it forwards the identity
// in a header.
func ownerID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.Header.Get("X-User-ID"))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

type portfolioPosition struct {
	*models.Position
	PurchasePriceDisplay string `json:"purchase_price_display"`
	CurrentPriceDisplay  string `json:"current_price_display"`
	PositionValueDisplay string `json:"position_value_display"`
	GainLossDisplay      string `json:"gain_loss_display"`
}

type portfolioResponse struct {
	Positions         []portfolioPosition `json:"positions"`
	TotalValue        money.Amount        `json:"total_value"`
	TotalValueDisplay string              `json:"total_value_display"`
	Error             string              `json:"error,omitempty"`
}

// GetPortfolio handles GET /portfolio. Viewing the portfolio is what
// triggers quote refreshes; a failed quote becomes a message in the
// response alongside the partial total, never a 5xx.
func (h *Handler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		http.Error(w, "missing or invalid X-User-ID header", http.StatusUnauthorized)
		return
	}

	positions, err := h.store.GetPositionsByOwner(owner)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	total, res := h.engine.RevaluePortfolio(r.Context(), positions)

	for _, p := range res.Refreshed {
		if err := h.store.UpdatePosition(p); err != nil {
			log.Printf("persisting refreshed quote for %s: %v", p.Symbol, err)
		}
	}

	if h.producer != nil {
		if err := h.producer.PublishPortfolioRevalued(r.Context(), owner, total, len(res.Refreshed)); err != nil {
			log.Printf("publishing revaluation event: %v", err)
		}
	}

	resp := portfolioResponse{
		Positions:         make([]portfolioPosition, 0, len(positions)),
		TotalValue:        total,
		TotalValueDisplay: money.FormatUSD(total),
	}
	for _, p := range positions {
		resp.Positions = append(resp.Positions, portfolioPosition{
			Position:             p,
			PurchasePriceDisplay: money.FormatDisplay(p.PurchasePrice),
			CurrentPriceDisplay:  money.FormatDisplay(p.CurrentPrice),
			PositionValueDisplay: money.FormatDisplay(p.PositionValue),
			GainLossDisplay:      money.FormatDisplay(p.GainLoss()),
		})
	}
	if res.Failed {
		resp.Error = "problem retrieving stock data for " + res.FailedSymbol + ": " + res.Reason
	}

	respondJSON(w, http.StatusOK, resp)
}

type positionRequest struct {
	Symbol       string `json:"symbol"`
	Shares       int64  `json:"shares"`
	Price        string `json:"price"`
	PurchaseDate string `json:"purchase_date"`
}

// CreatePosition handles POST /positions
func (h *Handler) CreatePosition(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		http.Error(w, "missing or invalid X-User-ID header", http.StatusUnauthorized)
		return
	}

	var req positionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	price, err := money.ParseRequired(req.Price)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	purchaseDate, err := time.Parse("2006-01-02", req.PurchaseDate)
	if err != nil {
		http.Error(w, "purchase_date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	position := &models.Position{
		OwnerID:       owner,
		Symbol:        req.Symbol,
		Shares:        req.Shares,
		PurchasePrice: price,
		PurchaseDate:  purchaseDate,
	}
	if err := position.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.store.CreatePosition(position); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if h.producer != nil {
		if err := h.producer.PublishPositionAdded(r.Context(), position); err != nil {
			log.Printf("publishing position added event: %v", err)
		}
	}

	respondJSON(w, http.StatusCreated, position)
}

// loadOwnedPosition fetches the path position and enforces ownership.
func (h *Handler) loadOwnedPosition(w http.ResponseWriter, r *http.Request) (*models.Position, bool) {
	owner, ok := ownerID(r)
	if !ok {
		http.Error(w, "missing or invalid X-User-ID header", http.StatusUnauthorized)
		return nil, false
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid position id", http.StatusBadRequest)
		return nil, false
	}

	position, err := h.store.GetPositionByID(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return nil, false
	}
	if position.OwnerID != owner {
		// do not reveal that the position exists
		http.Error(w, "position not found", http.StatusNotFound)
		return nil, false
	}
	return position, true
}

// UpdatePosition handles PUT /positions/{id}
func (h *Handler) UpdatePosition(w http.ResponseWriter, r *http.Request) {
	position, ok := h.loadOwnedPosition(w, r)
	if !ok {
		return
	}

	var req positionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	price, err := money.ParseRequired(req.Price)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	purchaseDate, err := time.Parse("2006-01-02", req.PurchaseDate)
	if err != nil {
		http.Error(w, "purchase_date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	if req.Shares <= 0 {
		http.Error(w, "shares must be positive", http.StatusBadRequest)
		return
	}

	position.UpdateHolding(req.Shares, price, purchaseDate)
	if err := h.store.UpdatePosition(position); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, position)
}

// DeletePosition handles DELETE /positions/{id}
func (h *Handler) DeletePosition(w http.ResponseWriter, r *http.Request) {
	position, ok := h.loadOwnedPosition(w, r)
	if !ok {
		return
	}

	if err := h.store.DeletePosition(position.ID); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if h.producer != nil {
		if err := h.producer.PublishPositionRemoved(r.Context(), position.OwnerID, position.Symbol); err != nil {
			log.Printf("publishing position removed event: %v", err)
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

type chartPoint struct {
	Date  string       `json:"date"`
	Close money.Amount `json:"close"`
}

// GetPositionChart handles GET /positions/{id}/chart. The weekly
// series is trimmed to the window since purchase, capped at twelve
// weeks, oldest first.
func (h *Handler) GetPositionChart(w http.ResponseWriter, r *http.Request) {
	position, ok := h.loadOwnedPosition(w, r)
	if !ok {
		return
	}

	res := h.feed.FetchWeeklySeries(r.Context(), position.Symbol)
	if !res.IsSuccess() {
		respondJSON(w, http.StatusBadGateway, map[string]string{
			"error": "problem retrieving stock data for " + position.Symbol + ": " + res.Reason,
		})
		return
	}

	windowed := res.Series.Windowed(position.PurchaseDate, h.clock.Now())
	points := make([]chartPoint, 0, len(windowed))
	for _, p := range windowed {
		points = append(points, chartPoint{Date: p.Date.Format("2006-01-02"), Close: p.Close})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": position.Symbol,
		"points": points,
	})
}

type watchlistRow struct {
	Symbol        string       `json:"symbol"`
	AddedAt       time.Time    `json:"added_at"`
	Price         money.Amount `json:"price,omitempty"`
	PriceDisplay  string       `json:"price_display,omitempty"`
	ChangePercent string       `json:"change_percent,omitempty"`
	QuoteError    string       `json:"quote_error,omitempty"`
}

// GetWatchlist handles GET /watchlist, decorating each entry with a
// snapshot quote. A quote failure marks the row and moves on; the
// watchlist itself always renders.
func (h *Handler) GetWatchlist(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		http.Error(w, "missing or invalid X-User-ID header", http.StatusUnauthorized)
		return
	}

	entries, err := h.store.GetWatchlistByOwner(owner)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	rows := make([]watchlistRow, 0, len(entries))
	for _, e := range entries {
		row := watchlistRow{Symbol: e.Symbol, AddedAt: e.AddedAt}
		res := h.feed.FetchGlobalQuote(r.Context(), e.Symbol)
		if res.IsSuccess() {
			row.Price = res.Quote.Price
			row.PriceDisplay = money.FormatDisplay(res.Quote.Price)
			row.ChangePercent = money.FormatRatio(res.Quote.ChangePercent)
		} else {
			row.QuoteError = res.Reason
		}
		rows = append(rows, row)
	}

	respondJSON(w, http.StatusOK, rows)
}

// AddToWatchlist handles POST /watchlist
func (h *Handler) AddToWatchlist(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		http.Error(w, "missing or invalid X-User-ID header", http.StatusUnauthorized)
		return
	}

	var req struct {
		Symbol string `json:"symbol"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}

	entry := &models.WatchlistEntry{OwnerID: owner, Symbol: req.Symbol}
	if err := h.store.AddWatchlistEntry(entry); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusCreated, entry)
}

// RemoveFromWatchlist handles DELETE /watchlist/{symbol}
func (h *Handler) RemoveFromWatchlist(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		http.Error(w, "missing or invalid X-User-ID header", http.StatusUnauthorized)
		return
	}

	if err := h.store.RemoveWatchlistEntry(owner, mux.Vars(r)["symbol"]); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
