package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/cfletch1/portfolio-service/internal/money"
)

// PortfolioEvent represents a Kafka event for portfolio changes.
type PortfolioEvent struct {
	EventType  string       `json:"event_type"`
	OwnerID    uuid.UUID    `json:"owner_id"`
	Symbol     string       `json:"symbol,omitempty"`
	Position   *Position    `json:"position,omitempty"`
	TotalValue money.Amount `json:"total_value,omitempty"`
	Refreshed  int          `json:"refreshed,omitempty"`
	Timestamp  time.Time    `json:"timestamp"`
}
