package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade side constants
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// DateLayout is the calendar date format used for trade dates (UTC).
const DateLayout = "2006-01-02"

// Trade is a single entry in the trade ledger. Trades are immutable once
// recorded; the ledger is append-only.
type Trade struct {
	ID         string          `json:"id"`
	Symbol     string          `json:"symbol"`
	Side       string          `json:"side"`
	Quantity   int64           `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Date       string          `json:"date"`
	RecordedAt time.Time       `json:"-"`
}
