package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jphelps/day-trading-api/internal/models"
)

// MemoryStore keeps positions and the trade ledger in process memory. It
// implements both the position store and trade ledger contracts and is the
// default backend when no external store is configured.
type MemoryStore struct {
	mu        sync.RWMutex
	positions map[string]models.Position
	trades    []models.Trade
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		positions: make(map[string]models.Position),
	}
}

// GetPosition returns the position for symbol, or ErrNotFound if the symbol
// has never been bought.
func (s *MemoryStore) GetPosition(ctx context.Context, symbol string) (*models.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.positions[symbol]
	if !ok {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNotFound)
	}
	// copy so callers never alias the stored value
	return &p, nil
}

// UpsertPosition replaces (or creates) the position for p.Symbol.
func (s *MemoryStore) UpsertPosition(ctx context.Context, p *models.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.positions[p.Symbol] = *p
	return nil
}

// GetAllPositions returns a snapshot of every position, sorted by symbol.
func (s *MemoryStore) GetAllPositions(ctx context.Context) ([]*models.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	positions := make([]*models.Position, 0, len(s.positions))
	for _, p := range s.positions {
		p := p
		positions = append(positions, &p)
	}
	sort.Slice(positions, func(i, j int) bool {
		return positions[i].Symbol < positions[j].Symbol
	})
	return positions, nil
}

// AppendTrade appends a trade to the ledger. Concurrent appends each get
// their own slot; entries are never dropped or overwritten.
func (s *MemoryStore) AppendTrade(ctx context.Context, t *models.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.trades = append(s.trades, *t)
	return nil
}

// GetAllTrades returns the ledger sorted by date descending, most recently
// recorded first.
func (s *MemoryStore) GetAllTrades(ctx context.Context) ([]*models.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trades := make([]*models.Trade, 0, len(s.trades))
	for i := len(s.trades) - 1; i >= 0; i-- {
		t := s.trades[i]
		trades = append(trades, &t)
	}
	SortTradesDesc(trades)
	return trades, nil
}
