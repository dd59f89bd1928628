package database

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jphelps/day-trading-api/internal/models"
	"github.com/jphelps/day-trading-api/internal/store"
)

func TestPositionsStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)
	ctx := context.Background()

	t.Run("GetPosition returns ErrNotFound for unknown symbol", func(t *testing.T) {
		testDB.TruncateAll(t)

		_, err := testDB.GetPosition(ctx, "AAPL")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("UpsertPosition creates then replaces", func(t *testing.T) {
		testDB.TruncateAll(t)

		require.NoError(t, testDB.UpsertPosition(ctx, &models.Position{
			Symbol: "AAPL", Quantity: 10, AvgCost: decimal.RequireFromString("150"),
		}))
		require.NoError(t, testDB.UpsertPosition(ctx, &models.Position{
			Symbol: "AAPL", Quantity: 15, AvgCost: decimal.RequireFromString("160"),
		}))

		pos, err := testDB.GetPosition(ctx, "AAPL")
		require.NoError(t, err)
		assert.Equal(t, int64(15), pos.Quantity)
		assert.True(t, decimal.RequireFromString("160").Equal(pos.AvgCost))
	})

	t.Run("GetAllPositions is sorted by symbol", func(t *testing.T) {
		testDB.TruncateAll(t)

		for _, symbol := range []string{"TSLA", "AAPL", "MSFT"} {
			require.NoError(t, testDB.UpsertPosition(ctx, &models.Position{
				Symbol: symbol, Quantity: 1, AvgCost: decimal.RequireFromString("100"),
			}))
		}

		positions, err := testDB.GetAllPositions(ctx)
		require.NoError(t, err)
		require.Len(t, positions, 3)
		assert.Equal(t, "AAPL", positions[0].Symbol)
		assert.Equal(t, "MSFT", positions[1].Symbol)
		assert.Equal(t, "TSLA", positions[2].Symbol)
	})

	t.Run("UpdatePosition passes nil for a fresh symbol", func(t *testing.T) {
		testDB.TruncateAll(t)

		err := testDB.UpdatePosition(ctx, "AAPL", func(pos *models.Position) (*models.Position, error) {
			require.Nil(t, pos)
			return &models.Position{
				Symbol: "AAPL", Quantity: 10, AvgCost: decimal.RequireFromString("150"),
			}, nil
		})
		require.NoError(t, err)

		pos, err := testDB.GetPosition(ctx, "AAPL")
		require.NoError(t, err)
		assert.Equal(t, int64(10), pos.Quantity)
	})

	t.Run("concurrent UpdatePosition calls on a fresh symbol all land", func(t *testing.T) {
		testDB.TruncateAll(t)

		const n = 10
		var wg sync.WaitGroup
		wg.Add(n)
		for i := 0; i < n; i++ {
			go func() {
				defer wg.Done()
				err := testDB.UpdatePosition(ctx, "TSLA", func(pos *models.Position) (*models.Position, error) {
					next := &models.Position{Symbol: "TSLA", Quantity: 1, AvgCost: decimal.RequireFromString("250")}
					if pos != nil {
						next.Quantity = pos.Quantity + 1
					}
					return next, nil
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		pos, err := testDB.GetPosition(ctx, "TSLA")
		require.NoError(t, err)
		assert.Equal(t, int64(n), pos.Quantity)
	})

	t.Run("concurrent UpdatePosition calls on one symbol all land", func(t *testing.T) {
		testDB.TruncateAll(t)

		require.NoError(t, testDB.UpsertPosition(ctx, &models.Position{
			Symbol: "AAPL", Quantity: 0, AvgCost: decimal.Zero,
		}))

		const n = 10
		var wg sync.WaitGroup
		wg.Add(n)
		for i := 0; i < n; i++ {
			go func() {
				defer wg.Done()
				err := testDB.UpdatePosition(ctx, "AAPL", func(pos *models.Position) (*models.Position, error) {
					next := &models.Position{Symbol: "AAPL", Quantity: 1, AvgCost: decimal.RequireFromString("100")}
					if pos != nil {
						next.Quantity = pos.Quantity + 1
					}
					return next, nil
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		pos, err := testDB.GetPosition(ctx, "AAPL")
		require.NoError(t, err)
		assert.Equal(t, int64(n), pos.Quantity)
	})
}
