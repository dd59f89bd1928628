package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jphelps/day-trading-api/internal/models"
	"github.com/jphelps/day-trading-api/internal/store"
)

// GetPosition retrieves the position for a symbol. Returns store.ErrNotFound
// when the symbol has never been bought.
func (db *DB) GetPosition(ctx context.Context, symbol string) (*models.Position, error) {
	query := `SELECT symbol, quantity, avg_cost FROM positions WHERE symbol = $1`

	var p models.Position
	err := db.conn.QueryRowContext(ctx, query, symbol).Scan(&p.Symbol, &p.Quantity, &p.AvgCost)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%s: %w", symbol, store.ErrNotFound)
	}
	if err != nil {
		return nil, wrapErr("failed to get position", err)
	}
	return &p, nil
}

// UpsertPosition replaces (or creates) the position for p.Symbol.
func (db *DB) UpsertPosition(ctx context.Context, p *models.Position) error {
	query := `
		INSERT INTO positions (symbol, quantity, avg_cost, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (symbol) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			avg_cost = EXCLUDED.avg_cost,
			updated_at = EXCLUDED.updated_at
	`
	_, err := db.conn.ExecContext(ctx, query, p.Symbol, p.Quantity, p.AvgCost)
	if err != nil {
		return wrapErr("failed to upsert position", err)
	}
	return nil
}

// GetAllPositions retrieves every position, sorted by symbol.
func (db *DB) GetAllPositions(ctx context.Context) ([]*models.Position, error) {
	query := `SELECT symbol, quantity, avg_cost FROM positions ORDER BY symbol ASC`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapErr("failed to query positions", err)
	}
	defer rows.Close()

	var positions []*models.Position
	for rows.Next() {
		var p models.Position
		if err := rows.Scan(&p.Symbol, &p.Quantity, &p.AvgCost); err != nil {
			return nil, wrapErr("failed to scan position", err)
		}
		positions = append(positions, &p)
	}

	return positions, nil
}

// UpdatePosition runs fn on the current position for symbol and writes the
// result inside one transaction. An advisory lock on the symbol serializes
// writers on other connections even when no row exists yet to lock.
// fn receives nil when no position exists yet.
func (db *DB) UpdatePosition(ctx context.Context, symbol string, fn func(*models.Position) (*models.Position, error)) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, symbol); err != nil {
		return wrapErr("failed to lock symbol", err)
	}

	var pos *models.Position
	var p models.Position
	row := tx.QueryRowContext(ctx,
		`SELECT symbol, quantity, avg_cost FROM positions WHERE symbol = $1 FOR UPDATE`, symbol)
	err = row.Scan(&p.Symbol, &p.Quantity, &p.AvgCost)
	switch {
	case err == sql.ErrNoRows:
		pos = nil
	case err != nil:
		return wrapErr("failed to lock position", err)
	default:
		pos = &p
	}

	next, err := fn(pos)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO positions (symbol, quantity, avg_cost, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (symbol) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			avg_cost = EXCLUDED.avg_cost,
			updated_at = EXCLUDED.updated_at
	`, next.Symbol, next.Quantity, next.AvgCost)
	if err != nil {
		return wrapErr("failed to write position", err)
	}

	if err := tx.Commit(); err != nil {
		return wrapErr("failed to commit position update", err)
	}
	return nil
}
