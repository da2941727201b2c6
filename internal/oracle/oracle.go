// Package oracle resolves a stock reference to its final observed price.
// Prices are exogenous to the game: the engine never fetches them itself,
// it only consumes whatever the configured oracle reports.
package oracle

import (
	"context"
	"errors"
	"sync"
)

// ErrPriceNotAnnounced is returned when no final price has been recorded for
// the requested stock reference.
var ErrPriceNotAnnounced = errors.New("final price not announced")

// PriceOracle reports the final price for a stock reference, in integer
// cents.
type PriceOracle interface {
	GetFinalPrice(ctx context.Context, stockRef string) (int64, error)
}

// ManualOracle is a PriceOracle fed by explicit announcements, typically from
// the game creator at the end of a round.
type ManualOracle struct {
	mu     sync.RWMutex
	prices map[string]int64
}

func NewManualOracle() *ManualOracle {
	return &ManualOracle{prices: make(map[string]int64)}
}

// Announce records the final price for a stock reference, overwriting any
// earlier announcement.
func (o *ManualOracle) Announce(stockRef string, priceCents int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.prices[stockRef] = priceCents
}

func (o *ManualOracle) GetFinalPrice(ctx context.Context, stockRef string) (int64, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	price, ok := o.prices[stockRef]
	if !ok {
		return 0, ErrPriceNotAnnounced
	}
	return price, nil
}
