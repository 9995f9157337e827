// Package valuation computes per-purchase and portfolio-level profit/loss
// for the ledger against a resolved reference price.
package valuation

import (
	"math"
	"time"
)

// Basis identifies which price convention a per-gram figure was derived
// under. Spot is the raw market price; buy-back is the estimated price a
// bank pays the holder, market price minus a fixed per-ounce spread.
type Basis string

const (
	BasisSpot    Basis = "spot"
	BasisBuyBack Basis = "buyback"
)

// PriceContext carries the resolved reference price into a valuation along
// with its provenance. The engine never fetches or caches prices itself; it
// only reads this struct.
type PriceContext struct {
	// PerGram is the reference price in currency per gram. Zero means the
	// price is unknown (first run, feed down with an empty cache) and the
	// report renders placeholders instead of figures.
	PerGram float64 `json:"per_gram"`
	Basis   Basis   `json:"basis,omitempty"`
	// Stale marks a price served from the persisted cache after a failed
	// live fetch.
	Stale bool      `json:"stale"`
	AsOf  time.Time `json:"as_of,omitempty"`
}

// Known reports whether the context holds a usable price.
func (p PriceContext) Known() bool {
	return p.PerGram > 0
}

// Direction classifies a profit/loss figure. It drives display styling but
// is part of the report contract, not a rendering detail.
type Direction string

const (
	DirectionProfit  Direction = "profit"
	DirectionLoss    Direction = "loss"
	DirectionNeutral Direction = "neutral"
	DirectionUnknown Direction = "unknown"
)

// classify maps a profit/loss figure to its direction. A nil figure means
// the reference price was unknown.
func classify(profitLoss *float64) Direction {
	switch {
	case profitLoss == nil:
		return DirectionUnknown
	case *profitLoss > 0:
		return DirectionProfit
	case *profitLoss < 0:
		return DirectionLoss
	default:
		return DirectionNeutral
	}
}

// holdingAgeDays returns the whole days between the purchase date and now.
// The difference is taken absolute so a future-dated record does not come
// out negative.
func holdingAgeDays(date, now time.Time) int {
	diff := now.Sub(date)
	if diff < 0 {
		diff = -diff
	}
	return int(math.Floor(diff.Hours() / 24))
}
