// Package pricing owns the reference-price lifecycle: fetching from the
// feed, deriving the spot and buy-back per-gram figures, caching them in the
// settings store, and serving the cache when the feed is down.
package pricing

import (
	"context"
	"strconv"
	"time"

	"github.com/yusy4code/gold-tracker-ai/internal/config"
	"github.com/yusy4code/gold-tracker-ai/internal/goldapi"
	"github.com/yusy4code/gold-tracker-ai/internal/store"
	"github.com/yusy4code/gold-tracker-ai/internal/units"
	"github.com/yusy4code/gold-tracker-ai/internal/valuation"
	"go.uber.org/zap"
)

// Settings keys for the persisted price cache. The basis tag is stored
// alongside each number so a cached value is never misread under the wrong
// convention after a fallback.
const (
	keySpotPerGram    = "price.spot_per_gram"
	keyBuyBackPerGram = "price.buyback_per_gram"
	keyBasis          = "price.basis"
	keyChange         = "price.change"
	keyChangePercent  = "price.change_percent"
	keyUpdatedAt      = "price.updated_at"
)

// Service resolves the reference price used for valuation.
type Service struct {
	feed      goldapi.ClientInterface
	settings  *store.SettingsStore
	buySpread float64
	logger    *zap.Logger
}

// NewService creates a pricing service.
func NewService(feed goldapi.ClientInterface, settings *store.SettingsStore, cfg *config.Pricing, logger *zap.Logger) *Service {
	return &Service{
		feed:      feed,
		settings:  settings,
		buySpread: cfg.BuySpread,
		logger:    logger,
	}
}

// Refresh attempts one live fetch and returns a resolved price context.
//
// On success both the raw spot per-gram price and the buy-back per-gram
// price (per-ounce price minus the configured spread, then converted) are
// persisted, and the buy-back figure is returned as the authoritative
// valuation price. On failure the last persisted price is served instead,
// marked stale; an empty cache yields an unknown price, not an error. No
// automatic retries beyond the client's own transport-level ones.
func (s *Service) Refresh(ctx context.Context) valuation.PriceContext {
	quote, err := s.feed.GetPrice(ctx)
	if err != nil {
		s.logger.Warn("Price fetch failed, falling back to cached price", zap.Error(err))
		return s.Cached()
	}

	spotPerGram := quote.Price / units.GramsPerOunce
	buyBackPerGram := (quote.Price - s.buySpread) / units.GramsPerOunce
	if buyBackPerGram < 0 {
		// A spread larger than the price itself would make the bank pay
		// a negative amount; clamp rather than value holdings below zero.
		s.logger.Warn("Buy spread exceeds market price, clamping buy-back price to zero",
			zap.Float64("price", quote.Price),
			zap.Float64("spread", s.buySpread),
		)
		buyBackPerGram = 0
	}
	now := time.Now().UTC()

	s.persist(spotPerGram, buyBackPerGram, quote, now)

	return valuation.PriceContext{
		PerGram: buyBackPerGram,
		Basis:   valuation.BasisBuyBack,
		Stale:   false,
		AsOf:    now,
	}
}

// persist writes the freshly derived prices to the settings store. A cache
// write failure is logged and swallowed: the fetched price is still good for
// this session, it just will not survive a restart.
func (s *Service) persist(spotPerGram, buyBackPerGram float64, quote *goldapi.PriceQuote, now time.Time) {
	entries := map[string]string{
		keySpotPerGram:    strconv.FormatFloat(spotPerGram, 'f', -1, 64),
		keyBuyBackPerGram: strconv.FormatFloat(buyBackPerGram, 'f', -1, 64),
		keyBasis:          string(valuation.BasisBuyBack),
		keyChange:         strconv.FormatFloat(quote.Change, 'f', -1, 64),
		keyChangePercent:  strconv.FormatFloat(quote.ChangePercent, 'f', -1, 64),
		keyUpdatedAt:      now.Format(time.RFC3339),
	}
	for key, value := range entries {
		if err := s.settings.Put(key, value); err != nil {
			s.logger.Error("Failed to persist price cache entry", zap.String("key", key), zap.Error(err))
		}
	}
}

// Cached resolves a price context from the settings store without touching
// the feed. Used at startup and as the fallback after a failed refresh.
// Preference order: last buy-back price, then last spot price (older
// sessions only persisted spot), then unknown.
func (s *Service) Cached() valuation.PriceContext {
	if perGram, ok := s.cachedFloat(keyBuyBackPerGram); ok && perGram > 0 {
		return valuation.PriceContext{
			PerGram: perGram,
			Basis:   valuation.BasisBuyBack,
			Stale:   true,
			AsOf:    s.cachedTime(),
		}
	}

	if perGram, ok := s.cachedFloat(keySpotPerGram); ok && perGram > 0 {
		return valuation.PriceContext{
			PerGram: perGram,
			Basis:   valuation.BasisSpot,
			Stale:   true,
			AsOf:    s.cachedTime(),
		}
	}

	return valuation.PriceContext{}
}

func (s *Service) cachedFloat(key string) (float64, bool) {
	raw, ok, err := s.settings.Get(key)
	if err != nil {
		s.logger.Error("Failed to read price cache entry", zap.String("key", key), zap.Error(err))
		return 0, false
	}
	if !ok {
		return 0, false
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		s.logger.Error("Corrupt price cache entry", zap.String("key", key), zap.String("value", raw), zap.Error(err))
		return 0, false
	}
	return value, true
}

func (s *Service) cachedTime() time.Time {
	raw, ok, err := s.settings.Get(keyUpdatedAt)
	if err != nil || !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Change returns the cached period-over-period change figures, if any.
func (s *Service) Change() (change, changePercent float64, ok bool) {
	change, okCh := s.cachedFloat(keyChange)
	changePercent, okChp := s.cachedFloat(keyChangePercent)
	if !okCh || !okChp {
		return 0, 0, false
	}
	return change, changePercent, true
}
