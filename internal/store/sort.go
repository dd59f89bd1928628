package store

import (
	"sort"

	"github.com/jphelps/day-trading-api/internal/models"
)

// SortTradesDesc orders trades by date descending, then by recording time
// descending. The sort is stable, so callers that pass trades newest-first
// keep that order for trades recorded within the same instant. Backends
// without server-side ordering (memory, redis) share this so all listings
// agree.
func SortTradesDesc(trades []*models.Trade) {
	sort.SliceStable(trades, func(i, j int) bool {
		if trades[i].Date != trades[j].Date {
			return trades[i].Date > trades[j].Date
		}
		return trades[i].RecordedAt.After(trades[j].RecordedAt)
	})
}
