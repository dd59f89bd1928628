package database

import (
	"context"
	"time"

	"github.com/jphelps/day-trading-api/internal/models"
)

// AppendTrade inserts a trade into the ledger. Ledger rows are never updated
// or deleted.
func (db *DB) AppendTrade(ctx context.Context, t *models.Trade) error {
	query := `
		INSERT INTO trades (id, symbol, side, quantity, price, trade_date, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := db.conn.ExecContext(ctx, query,
		t.ID, t.Symbol, t.Side, t.Quantity, t.Price, t.Date, t.RecordedAt,
	)
	if err != nil {
		return wrapErr("failed to append trade", err)
	}
	return nil
}

// GetAllTrades retrieves the full ledger, newest date first and most
// recently recorded first within a date.
func (db *DB) GetAllTrades(ctx context.Context) ([]*models.Trade, error) {
	query := `
		SELECT id, symbol, side, quantity, price, trade_date, recorded_at
		FROM trades
		ORDER BY trade_date DESC, recorded_at DESC
	`
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapErr("failed to query trades", err)
	}
	defer rows.Close()

	var trades []*models.Trade
	for rows.Next() {
		var t models.Trade
		var tradeDate time.Time

		err := rows.Scan(&t.ID, &t.Symbol, &t.Side, &t.Quantity, &t.Price, &tradeDate, &t.RecordedAt)
		if err != nil {
			return nil, wrapErr("failed to scan trade", err)
		}
		t.Date = tradeDate.Format(models.DateLayout)
		trades = append(trades, &t)
	}

	return trades, nil
}
