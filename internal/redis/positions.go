package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/jphelps/day-trading-api/internal/models"
	"github.com/jphelps/day-trading-api/internal/store"
)

// Watch retries before an optimistic position update gives up.
const maxUpdateRetries = 100

// GetPosition retrieves the position for a symbol. Returns store.ErrNotFound
// when no position exists.
func (c *Client) GetPosition(ctx context.Context, symbol string) (*models.Position, error) {
	data, err := c.rdb.Get(ctx, positionKey(symbol)).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("%s: %w", symbol, store.ErrNotFound)
	}
	if err != nil {
		return nil, wrapErr("failed to get position", err)
	}

	var p models.Position
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode position %s: %w", symbol, err)
	}
	return &p, nil
}

// UpsertPosition replaces (or creates) the position for p.Symbol.
func (c *Client) UpsertPosition(ctx context.Context, p *models.Position) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode position %s: %w", p.Symbol, err)
	}
	if err := c.rdb.Set(ctx, positionKey(p.Symbol), data, 0).Err(); err != nil {
		return wrapErr("failed to upsert position", err)
	}
	return nil
}

// GetAllPositions retrieves every position, sorted by symbol.
func (c *Client) GetAllPositions(ctx context.Context) ([]*models.Position, error) {
	var positions []*models.Position

	iter := c.rdb.Scan(ctx, 0, positionKey("*"), 0).Iterator()
	for iter.Next(ctx) {
		data, err := c.rdb.Get(ctx, iter.Val()).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, wrapErr("failed to get position", err)
		}
		var p models.Position
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("failed to decode position %s: %w", iter.Val(), err)
		}
		positions = append(positions, &p)
	}
	if err := iter.Err(); err != nil {
		return nil, wrapErr("failed to scan positions", err)
	}

	sort.Slice(positions, func(i, j int) bool {
		return positions[i].Symbol < positions[j].Symbol
	})
	return positions, nil
}

// UpdatePosition runs fn on the current position for symbol and writes the
// result under an optimistic WATCH transaction, retrying when another writer
// touches the key first. fn receives nil when no position exists yet.
func (c *Client) UpdatePosition(ctx context.Context, symbol string, fn func(*models.Position) (*models.Position, error)) error {
	key := positionKey(symbol)

	txf := func(tx *redis.Tx) error {
		var pos *models.Position
		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case err == redis.Nil:
		case err != nil:
			return err
		default:
			var p models.Position
			if err := json.Unmarshal(data, &p); err != nil {
				return fmt.Errorf("failed to decode position %s: %w", symbol, err)
			}
			pos = &p
		}

		next, err := fn(pos)
		if err != nil {
			return err
		}
		payload, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("failed to encode position %s: %w", symbol, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := c.rdb.Watch(ctx, txf, key)
		if err == nil {
			return nil
		}
		if err == redis.TxFailedErr {
			continue
		}
		return wrapErr("failed to update position", err)
	}
	return fmt.Errorf("failed to update position %s: too many concurrent writers", symbol)
}
