package goldapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// setupTestServer creates a new test server and a Client configured to use it.
func setupTestServer(handler http.Handler) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)

	client := resty.New().SetBaseURL(server.URL)
	logger := zap.NewNop() // Use a no-op logger for tests

	c := &Client{
		client:   client,
		apiKey:   "test_api_key",
		metal:    "XAU",
		currency: "AED",
		logger:   logger,
		limiter:  rate.NewLimiter(rate.Inf, 1), // Allow all requests in tests
	}

	return c, server
}

func TestGetPrice(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// Arrange
		mockResponse := `{
			"timestamp": 1717171717,
			"metal": "XAU",
			"currency": "AED",
			"price": 8650.25,
			"prev_close_price": 8600.00,
			"ch": 50.25,
			"chp": 0.58
		}`

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/XAU/AED", r.URL.Path)
			assert.Equal(t, "test_api_key", r.Header.Get("x-access-token"))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(mockResponse))
		})

		c, server := setupTestServer(handler)
		defer server.Close()

		// Act
		quote, err := c.GetPrice(context.Background())

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, 8650.25, quote.Price)
		assert.Equal(t, 50.25, quote.Change)
		assert.Equal(t, 0.58, quote.ChangePercent)
		assert.Equal(t, "AED", quote.Currency)
	})

	t.Run("APIError", func(t *testing.T) {
		// Arrange
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error": "invalid token"}`))
		})

		c, server := setupTestServer(handler)
		defer server.Close()

		// Act
		quote, err := c.GetPrice(context.Background())

		// Assert
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to fetch gold price")
		assert.Nil(t, quote)
	})

	t.Run("NonPositivePrice", func(t *testing.T) {
		// A syntactically valid body with a zero price is still a feed
		// failure; valuing holdings against it would be meaningless.
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"metal": "XAU", "currency": "AED", "price": 0}`))
		})

		c, server := setupTestServer(handler)
		defer server.Close()

		quote, err := c.GetPrice(context.Background())

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "non-positive price")
		assert.Nil(t, quote)
	})
}
