package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jphelps/day-trading-api/internal/config"
	"github.com/jphelps/day-trading-api/internal/models"
	"github.com/jphelps/day-trading-api/internal/store"
)

// setupTestClient starts a Redis container and returns a connected client
func setupTestClient(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Errorf("failed to terminate container: %v", err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("failed to get redis endpoint: %v", err)
	}

	client, err := NewClient(ctx, config.RedisConfig{Addr: endpoint})
	if err != nil {
		t.Fatalf("failed to connect to test redis: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return client
}

func TestRedisPositions(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	client := setupTestClient(t)
	ctx := context.Background()

	t.Run("GetPosition returns ErrNotFound for unknown symbol", func(t *testing.T) {
		_, err := client.GetPosition(ctx, "UNKNOWN")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("UpsertPosition round-trips", func(t *testing.T) {
		require.NoError(t, client.UpsertPosition(ctx, &models.Position{
			Symbol: "AAPL", Quantity: 10, AvgCost: decimal.RequireFromString("150.50"),
		}))

		pos, err := client.GetPosition(ctx, "AAPL")
		require.NoError(t, err)
		assert.Equal(t, int64(10), pos.Quantity)
		assert.True(t, decimal.RequireFromString("150.50").Equal(pos.AvgCost))
	})

	t.Run("GetAllPositions returns every symbol sorted", func(t *testing.T) {
		for _, symbol := range []string{"TSLA", "MSFT"} {
			require.NoError(t, client.UpsertPosition(ctx, &models.Position{
				Symbol: symbol, Quantity: 1, AvgCost: decimal.RequireFromString("100"),
			}))
		}

		positions, err := client.GetAllPositions(ctx)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(positions), 2)
		for i := 1; i < len(positions); i++ {
			assert.Less(t, positions[i-1].Symbol, positions[i].Symbol)
		}
	})

	t.Run("concurrent UpdatePosition calls on one symbol all land", func(t *testing.T) {
		const n = 20
		var wg sync.WaitGroup
		wg.Add(n)
		for i := 0; i < n; i++ {
			go func() {
				defer wg.Done()
				err := client.UpdatePosition(ctx, "NVDA", func(pos *models.Position) (*models.Position, error) {
					next := &models.Position{Symbol: "NVDA", Quantity: 1, AvgCost: decimal.RequireFromString("500")}
					if pos != nil {
						next.Quantity = pos.Quantity + 1
					}
					return next, nil
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		pos, err := client.GetPosition(ctx, "NVDA")
		require.NoError(t, err)
		assert.Equal(t, int64(n), pos.Quantity)
	})
}

func TestRedisLedger(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	client := setupTestClient(t)
	ctx := context.Background()

	t.Run("AppendTrade and GetAllTrades round-trip with ordering", func(t *testing.T) {
		base := time.Date(2025, 7, 20, 12, 0, 0, 0, time.UTC)
		older := &models.Trade{
			ID: uuid.NewString(), Symbol: "AAPL", Side: models.SideBuy, Quantity: 10,
			Price: decimal.RequireFromString("150"), Date: "2025-07-20", RecordedAt: base,
		}
		newer := &models.Trade{
			ID: uuid.NewString(), Symbol: "TSLA", Side: models.SideSell, Quantity: 5,
			Price: decimal.RequireFromString("250"), Date: "2025-07-21", RecordedAt: base.Add(time.Hour),
		}
		require.NoError(t, client.AppendTrade(ctx, older))
		require.NoError(t, client.AppendTrade(ctx, newer))

		trades, err := client.GetAllTrades(ctx)
		require.NoError(t, err)
		require.Len(t, trades, 2)
		assert.Equal(t, newer.ID, trades[0].ID)
		assert.Equal(t, older.ID, trades[1].ID)
		assert.Equal(t, "2025-07-21", trades[0].Date)
		assert.True(t, trades[0].RecordedAt.Equal(newer.RecordedAt))
	})
}
