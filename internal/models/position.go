package models

import (
	"github.com/shopspring/decimal"
)

// Position represents the aggregated holding for one symbol. AvgCost is the
// volume-weighted average entry price of the currently held quantity.
type Position struct {
	Symbol   string          `json:"symbol"`
	Quantity int64           `json:"quantity"`
	AvgCost  decimal.Decimal `json:"avgCost"`
}

// MarketValue returns quantity * average cost.
func (p *Position) MarketValue() decimal.Decimal {
	return p.AvgCost.Mul(decimal.NewFromInt(p.Quantity))
}
