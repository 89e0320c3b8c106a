package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/cfletch1/portfolio-service/internal/models"
	"github.com/cfletch1/portfolio-service/internal/money"
)

// Producer handles publishing portfolio events to Kafka
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Producer{
		writer: writer,
		topic:  topic,
	}
}

// PublishPositionAdded publishes a position added event
func (p *Producer) PublishPositionAdded(ctx context.Context, pos *models.Position) error {
	event := models.PortfolioEvent{
		EventType: "POSITION_ADDED",
		OwnerID:   pos.OwnerID,
		Symbol:    pos.Symbol,
		Position:  pos,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, pos.Symbol, event)
}

// PublishPositionRemoved publishes a position removed event
func (p *Producer) PublishPositionRemoved(ctx context.Context, ownerID uuid.UUID, symbol string) error {
	event := models.PortfolioEvent{
		EventType: "POSITION_REMOVED",
		OwnerID:   ownerID,
		Symbol:    symbol,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, symbol, event)
}

// PublishPortfolioRevalued publishes the result of a revaluation pass
func (p *Producer) PublishPortfolioRevalued(ctx context.Context, ownerID uuid.UUID, total money.Amount, refreshed int) error {
	event := models.PortfolioEvent{
		EventType:  "PORTFOLIO_REVALUED",
		OwnerID:    ownerID,
		TotalValue: total,
		Refreshed:  refreshed,
		Timestamp:  time.Now(),
	}
	return p.publish(ctx, ownerID.String(), event)
}

func (p *Producer) publish(ctx context.Context, key string, event models.PortfolioEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}
