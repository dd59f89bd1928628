package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jphelps/day-trading-api/internal/models"
	"github.com/jphelps/day-trading-api/internal/store"
)

const tradesKey = "trades"

// tradeRecord is the storage encoding of a trade. RecordedAt is excluded
// from API JSON but needed for ordering, so it gets its own field here.
type tradeRecord struct {
	models.Trade
	RecordedAt time.Time `json:"recorded_at"`
}

// AppendTrade pushes a trade onto the ledger list. RPUSH gives every
// concurrent append its own slot.
func (c *Client) AppendTrade(ctx context.Context, t *models.Trade) error {
	data, err := json.Marshal(tradeRecord{Trade: *t, RecordedAt: t.RecordedAt})
	if err != nil {
		return fmt.Errorf("failed to encode trade %s: %w", t.ID, err)
	}
	if err := c.rdb.RPush(ctx, tradesKey, data).Err(); err != nil {
		return wrapErr("failed to append trade", err)
	}
	return nil
}

// GetAllTrades retrieves the full ledger, newest date first and most
// recently recorded first within a date.
func (c *Client) GetAllTrades(ctx context.Context) ([]*models.Trade, error) {
	entries, err := c.rdb.LRange(ctx, tradesKey, 0, -1).Result()
	if err != nil {
		return nil, wrapErr("failed to read trades", err)
	}

	trades := make([]*models.Trade, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		var rec tradeRecord
		if err := json.Unmarshal([]byte(entries[i]), &rec); err != nil {
			return nil, fmt.Errorf("failed to decode trade: %w", err)
		}
		t := rec.Trade
		t.RecordedAt = rec.RecordedAt
		trades = append(trades, &t)
	}
	store.SortTradesDesc(trades)
	return trades, nil
}
