package pricing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/yusy4code/gold-tracker-ai/internal/config"
	"github.com/yusy4code/gold-tracker-ai/internal/goldapi"
	"github.com/yusy4code/gold-tracker-ai/internal/models"
	"github.com/yusy4code/gold-tracker-ai/internal/store"
	"github.com/yusy4code/gold-tracker-ai/internal/units"
	"github.com/yusy4code/gold-tracker-ai/internal/valuation"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// MockFeed is a mock implementation of the goldapi.ClientInterface.
type MockFeed struct {
	mock.Mock
}

func (m *MockFeed) GetPrice(ctx context.Context) (*goldapi.PriceQuote, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*goldapi.PriceQuote), args.Error(1)
}

// setupTest creates a pricing service with a mock feed and an isolated
// in-memory settings store.
func setupTest(t *testing.T, spread float64) (*Service, *MockFeed, *store.SettingsStore) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&models.Setting{}))

	settings := store.NewSettingsStore(db)
	mockFeed := new(MockFeed)
	svc := NewService(mockFeed, settings, &config.Pricing{BuySpread: spread}, zap.NewNop())

	return svc, mockFeed, settings
}

func TestRefresh_Success(t *testing.T) {
	// Arrange
	svc, mockFeed, settings := setupTest(t, 150)
	mockFeed.On("GetPrice", mock.Anything).Return(&goldapi.PriceQuote{
		Price:         7925.0,
		Change:        25.0,
		ChangePercent: 0.32,
		Currency:      "AED",
	}, nil)

	// Act
	price := svc.Refresh(context.Background())

	// Assert: the buy-back basis is authoritative for valuation.
	assert.True(t, price.Known())
	assert.Equal(t, valuation.BasisBuyBack, price.Basis)
	assert.False(t, price.Stale)
	assert.InDelta(t, (7925.0-150)/units.GramsPerOunce, price.PerGram, 1e-9)

	// Both bases plus the tag land in the cache.
	spot, ok, err := settings.Get("price.spot_per_gram")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.NotEmpty(t, spot)
	basis, ok, err := settings.Get("price.basis")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "buyback", basis)

	mockFeed.AssertExpectations(t)
}

func TestRefresh_FeedDown_FallsBackToCache(t *testing.T) {
	// Arrange: a previous session cached a buy-back price.
	svc, mockFeed, settings := setupTest(t, 150)
	assert.NoError(t, settings.Put("price.buyback_per_gram", "249.5"))
	mockFeed.On("GetPrice", mock.Anything).Return(nil, errors.New("connection refused"))

	// Act
	price := svc.Refresh(context.Background())

	// Assert
	assert.True(t, price.Known())
	assert.Equal(t, 249.5, price.PerGram)
	assert.Equal(t, valuation.BasisBuyBack, price.Basis)
	assert.True(t, price.Stale)
	mockFeed.AssertExpectations(t)
}

func TestRefresh_FeedDown_SpotOnlyCache(t *testing.T) {
	// A cache written by an old session that only persisted the spot price
	// is still served, under its own basis tag rather than a pretended
	// buy-back one.
	svc, mockFeed, settings := setupTest(t, 150)
	assert.NoError(t, settings.Put("price.spot_per_gram", "254.8"))
	mockFeed.On("GetPrice", mock.Anything).Return(nil, errors.New("timeout"))

	price := svc.Refresh(context.Background())

	assert.True(t, price.Known())
	assert.Equal(t, 254.8, price.PerGram)
	assert.Equal(t, valuation.BasisSpot, price.Basis)
	assert.True(t, price.Stale)
}

func TestRefresh_FeedDown_EmptyCache(t *testing.T) {
	// First run, offline: an unknown price is a normal state, not an error.
	svc, mockFeed, _ := setupTest(t, 150)
	mockFeed.On("GetPrice", mock.Anything).Return(nil, errors.New("no route to host"))

	price := svc.Refresh(context.Background())

	assert.False(t, price.Known())
	assert.Equal(t, 0.0, price.PerGram)
}

func TestRefresh_SpreadExceedsPrice(t *testing.T) {
	svc, mockFeed, _ := setupTest(t, 10000)
	mockFeed.On("GetPrice", mock.Anything).Return(&goldapi.PriceQuote{Price: 7925.0}, nil)

	price := svc.Refresh(context.Background())

	assert.Equal(t, 0.0, price.PerGram)
	assert.False(t, price.Known())
}

func TestCached_PrefersBuyBackOverSpot(t *testing.T) {
	svc, _, settings := setupTest(t, 150)
	assert.NoError(t, settings.Put("price.spot_per_gram", "254.8"))
	assert.NoError(t, settings.Put("price.buyback_per_gram", "249.5"))

	price := svc.Cached()

	assert.Equal(t, 249.5, price.PerGram)
	assert.Equal(t, valuation.BasisBuyBack, price.Basis)
	assert.True(t, price.Stale)
}

func TestCached_CorruptEntryIsSkipped(t *testing.T) {
	svc, _, settings := setupTest(t, 150)
	assert.NoError(t, settings.Put("price.buyback_per_gram", "not-a-number"))
	assert.NoError(t, settings.Put("price.spot_per_gram", "254.8"))

	price := svc.Cached()

	assert.Equal(t, 254.8, price.PerGram)
	assert.Equal(t, valuation.BasisSpot, price.Basis)
}

func TestChange(t *testing.T) {
	svc, mockFeed, _ := setupTest(t, 150)
	mockFeed.On("GetPrice", mock.Anything).Return(&goldapi.PriceQuote{
		Price:         7925.0,
		Change:        25.0,
		ChangePercent: 0.32,
	}, nil)
	svc.Refresh(context.Background())

	change, changePercent, ok := svc.Change()

	assert.True(t, ok)
	assert.Equal(t, 25.0, change)
	assert.Equal(t, 0.32, changePercent)
}
