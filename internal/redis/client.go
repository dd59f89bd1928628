package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jphelps/day-trading-api/internal/config"
	"github.com/jphelps/day-trading-api/internal/store"
)

// Client is a Redis-backed position store and trade ledger. Positions live
// as JSON values under position:<symbol>; the ledger is a Redis list.
type Client struct {
	rdb *redis.Client
}

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

func positionKey(symbol string) string {
	return "position:" + symbol
}

// wrapErr marks connectivity and timeout failures as store.ErrUnavailable.
func wrapErr(op string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) {
		return fmt.Errorf("%s: %v: %w", op, err, store.ErrUnavailable)
	}
	return fmt.Errorf("%s: %w", op, err)
}
