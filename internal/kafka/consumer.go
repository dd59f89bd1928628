package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/jphelps/day-trading-api/internal/logger"
	"github.com/jphelps/day-trading-api/internal/models"
	"github.com/jphelps/day-trading-api/internal/service"
)

// TradeRecorder is the slice of the service the consumer needs to record
// trades arriving from a broker feed.
type TradeRecorder interface {
	RecordTrade(ctx context.Context, req service.TradeRequest) (*models.Trade, error)
}

// Consumer ingests TRADE_SUBMITTED events from a broker feed topic and
// records them through the same path as HTTP submissions, so ledger append
// and position update semantics are identical.
type Consumer struct {
	reader   *kafka.Reader
	recorder TradeRecorder
	log      *logger.Logger
}

// NewConsumer creates a new Kafka consumer for the broker feed
func NewConsumer(brokers []string, topic, groupID string, recorder TradeRecorder, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: time.Second,
	})

	return &Consumer{
		reader:   reader,
		recorder: recorder,
		log:      log,
	}
}

// Start consumes messages until ctx is cancelled, then closes the reader.
// Malformed or rejected events are logged and skipped; the feed keeps flowing.
func (c *Consumer) Start(ctx context.Context) error {
	c.log.Info("starting broker feed consumer", logger.String("topic", c.reader.Config().Topic))
	defer c.reader.Close()

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.log.Info("broker feed consumer shutting down")
				return nil
			}
			c.log.Error("error reading message", logger.Error(err))
			continue
		}

		if err := c.processMessage(ctx, msg); err != nil {
			c.log.Error("error processing message",
				logger.String("key", string(msg.Key)),
				logger.Error(err))
		}
	}
}

// processMessage records a single feed event. A validation rejection is not
// an error worth retrying, so it is logged here and swallowed.
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) error {
	var event models.TradeSubmittedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal trade event: %w", err)
	}

	if event.EventType != "TRADE_SUBMITTED" {
		return nil
	}

	req, err := convertSubmission(event.Data)
	if err != nil {
		return fmt.Errorf("failed to convert submission: %w", err)
	}

	trade, err := c.recorder.RecordTrade(ctx, req)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			c.log.Warn("rejected feed trade",
				logger.String("source", event.Source),
				logger.String("symbol", event.Data.Symbol),
				logger.String("reason", verr.Message))
			return nil
		}
		return fmt.Errorf("failed to record feed trade: %w", err)
	}

	c.log.Info("recorded feed trade",
		logger.String("trade_id", trade.ID),
		logger.String("symbol", trade.Symbol),
		logger.String("source", event.Source))
	return nil
}

func convertSubmission(data models.TradeSubmission) (service.TradeRequest, error) {
	req := service.TradeRequest{
		Symbol: data.Symbol,
		Side:   data.Side,
	}

	if data.Quantity != "" {
		quantity, err := decimal.NewFromString(data.Quantity)
		if err != nil {
			return service.TradeRequest{}, fmt.Errorf("invalid quantity %q: %w", data.Quantity, err)
		}
		req.Quantity = &quantity
	}

	if data.Price != "" {
		price, err := decimal.NewFromString(data.Price)
		if err != nil {
			return service.TradeRequest{}, fmt.Errorf("invalid price %q: %w", data.Price, err)
		}
		req.Price = &price
	}

	return req, nil
}

// Close closes the Kafka consumer
func (c *Consumer) Close() error {
	return c.reader.Close()
}
