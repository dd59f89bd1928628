package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jphelps/day-trading-api/internal/logger"
	"github.com/jphelps/day-trading-api/internal/models"
	"github.com/jphelps/day-trading-api/internal/store"
)

// PositionStore is the key-value store holding one position per symbol.
// GetPosition signals an absent position with store.ErrNotFound.
type PositionStore interface {
	GetPosition(ctx context.Context, symbol string) (*models.Position, error)
	UpsertPosition(ctx context.Context, p *models.Position) error
	GetAllPositions(ctx context.Context) ([]*models.Position, error)
}

// AtomicPositionStore is implemented by stores that can run a
// read-modify-write update under their own concurrency control (row lock,
// WATCH/CAS). fn receives nil when the position does not exist yet.
type AtomicPositionStore interface {
	UpdatePosition(ctx context.Context, symbol string, fn func(*models.Position) (*models.Position, error)) error
}

// TradeLedger is the append-only record of all trades ever recorded.
type TradeLedger interface {
	AppendTrade(ctx context.Context, t *models.Trade) error
	GetAllTrades(ctx context.Context) ([]*models.Trade, error)
}

// TradeRequest carries a trade submission before validation. Quantity and
// Price are pointers so a missing field can be told apart from a zero value.
type TradeRequest struct {
	Symbol   string
	Side     string
	Quantity *decimal.Decimal
	Price    *decimal.Decimal
}

// Service validates trade requests, appends them to the ledger and applies
// BUY trades to the position store. Position updates for a single symbol are
// serialized so concurrent trades never lose each other's writes.
type Service struct {
	positions PositionStore
	ledger    TradeLedger
	log       *logger.Logger
	timeout   time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a Service. timeout bounds every store round trip; zero means
// no bound.
func New(positions PositionStore, ledger TradeLedger, log *logger.Logger, timeout time.Duration) *Service {
	return &Service{
		positions: positions,
		ledger:    ledger,
		log:       log,
		timeout:   timeout,
		locks:     make(map[string]*sync.Mutex),
	}
}

// RecordTrade validates the request, assigns identity and date, appends the
// trade to the ledger and, for BUY trades, folds it into the position for
// its symbol. A trade whose ledger append fails is not recorded at all; a
// trade whose position update fails stays in the ledger and the error is
// reported with Ledgered set.
func (s *Service) RecordTrade(ctx context.Context, req TradeRequest) (*models.Trade, error) {
	symbol, side, quantity, price, err := validate(req)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	trade := &models.Trade{
		ID:         uuid.NewString(),
		Symbol:     symbol,
		Side:       side,
		Quantity:   quantity,
		Price:      price,
		Date:       now.Format(models.DateLayout),
		RecordedAt: now,
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.ledger.AppendTrade(ctx, trade); err != nil {
		return nil, &PersistenceError{Op: "append trade", Err: err}
	}

	if side == models.SideBuy {
		if err := s.applyBuy(ctx, trade); err != nil {
			// The trade is already ledgered; the portfolio lags until a
			// reconciliation pass replays it.
			s.log.Error("position update failed for ledgered trade",
				logger.String("trade_id", trade.ID),
				logger.String("symbol", trade.Symbol),
				logger.Error(err))
			return nil, &PersistenceError{Op: "update position", Ledgered: true, Err: err}
		}
	}

	s.log.Info("trade recorded",
		logger.String("trade_id", trade.ID),
		logger.String("symbol", trade.Symbol),
		logger.String("side", trade.Side),
		logger.Int64("quantity", trade.Quantity))
	return trade, nil
}

// applyBuy folds a BUY trade into the position for its symbol. The symbol
// lock serializes updates in-process; stores with their own concurrency
// control additionally guard against other writers on the same backend.
func (s *Service) applyBuy(ctx context.Context, t *models.Trade) error {
	update := func(pos *models.Position) (*models.Position, error) {
		var oldQty int64
		oldCost := decimal.Zero
		if pos != nil {
			oldQty = pos.Quantity
			oldCost = pos.AvgCost
		}
		newQty := oldQty + t.Quantity
		total := oldCost.Mul(decimal.NewFromInt(oldQty)).
			Add(t.Price.Mul(decimal.NewFromInt(t.Quantity)))
		return &models.Position{
			Symbol:   t.Symbol,
			Quantity: newQty,
			AvgCost:  total.Div(decimal.NewFromInt(newQty)),
		}, nil
	}

	lock := s.symbolLock(t.Symbol)
	lock.Lock()
	defer lock.Unlock()

	if atomic, ok := s.positions.(AtomicPositionStore); ok {
		return atomic.UpdatePosition(ctx, t.Symbol, update)
	}

	pos, err := s.positions.GetPosition(ctx, t.Symbol)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		pos = nil
	}
	next, err := update(pos)
	if err != nil {
		return err
	}
	return s.positions.UpsertPosition(ctx, next)
}

// ListPortfolio returns all open positions and their combined value at
// average cost. Positions whose quantity has reached zero are omitted.
func (s *Service) ListPortfolio(ctx context.Context) ([]*models.Position, decimal.Decimal, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	all, err := s.positions.GetAllPositions(ctx)
	if err != nil {
		return nil, decimal.Zero, &PersistenceError{Op: "list positions", Err: err}
	}

	positions := make([]*models.Position, 0, len(all))
	total := decimal.Zero
	for _, p := range all {
		if p.Quantity <= 0 {
			continue
		}
		positions = append(positions, p)
		total = total.Add(p.MarketValue())
	}
	return positions, total, nil
}

// ListTrades returns the full ledger, most recent date first.
func (s *Service) ListTrades(ctx context.Context) ([]*models.Trade, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	trades, err := s.ledger.GetAllTrades(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "list trades", Err: err}
	}
	return trades, nil
}

func (s *Service) symbolLock(symbol string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[symbol]
	if !ok {
		l = &sync.Mutex{}
		s.locks[symbol] = l
	}
	return l
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// maxTradeQuantity bounds quantities to what IntPart can represent;
// beyond int64 range its result wraps.
var maxTradeQuantity = decimal.NewFromInt(math.MaxInt64)

func validate(req TradeRequest) (symbol, side string, quantity int64, price decimal.Decimal, err error) {
	if req.Symbol == "" || req.Side == "" || req.Quantity == nil || req.Price == nil {
		return "", "", 0, decimal.Zero,
			&ValidationError{Message: "Missing required fields: symbol, type, quantity, price"}
	}

	side = strings.ToUpper(req.Side)
	if side != models.SideBuy && side != models.SideSell {
		return "", "", 0, decimal.Zero,
			&ValidationError{Message: "Type must be BUY or SELL"}
	}

	if !req.Quantity.IsInteger() || !req.Quantity.IsPositive() || req.Quantity.GreaterThan(maxTradeQuantity) {
		return "", "", 0, decimal.Zero,
			&ValidationError{Message: "Quantity must be a positive integer"}
	}

	if !req.Price.IsPositive() {
		return "", "", 0, decimal.Zero,
			&ValidationError{Message: "Price must be a positive number"}
	}

	return strings.ToUpper(req.Symbol), side, req.Quantity.IntPart(), *req.Price, nil
}
