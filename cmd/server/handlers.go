package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/yusy4code/gold-tracker-ai/internal/models"
	"github.com/yusy4code/gold-tracker-ai/internal/pricing"
	"github.com/yusy4code/gold-tracker-ai/internal/store"
	"github.com/yusy4code/gold-tracker-ai/internal/units"
	"github.com/yusy4code/gold-tracker-ai/internal/valuation"
	"go.uber.org/zap"
)

// APIHandler holds dependencies for the API endpoints.
type APIHandler struct {
	log       *zap.Logger
	purchases *store.PurchaseStore
	pricing   *pricing.Service

	// price is the currently resolved reference price. Initialized from
	// the cache at startup and replaced on every refresh; guarded because
	// net/http serves requests concurrently.
	mu    sync.RWMutex
	price valuation.PriceContext
}

// NewAPIHandler creates a new APIHandler seeded with the given price context.
func NewAPIHandler(log *zap.Logger, purchases *store.PurchaseStore, pricingSvc *pricing.Service, price valuation.PriceContext) *APIHandler {
	return &APIHandler{
		log:       log,
		purchases: purchases,
		pricing:   pricingSvc,
		price:     price,
	}
}

func (h *APIHandler) currentPrice() valuation.PriceContext {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.price
}

func (h *APIHandler) setPrice(p valuation.PriceContext) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.price = p
}

// purchaseRequest is the payload for creating or updating a purchase. The
// ounce amount and total price are what the user enters; grams and the
// per-gram cost are derived, matching how records have always been written.
type purchaseRequest struct {
	Date      string  `json:"date"` // YYYY-MM-DD
	Xau       float64 `json:"xau"`
	TotalCost float64 `json:"total_cost"`
}

func (r *purchaseRequest) toModel() (*models.Purchase, error) {
	date, err := time.Parse("2006-01-02", r.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", r.Date, err)
	}
	if r.Xau <= 0 {
		return nil, fmt.Errorf("xau amount must be positive, got %v", r.Xau)
	}
	grams, err := units.ToGrams(r.Xau)
	if err != nil {
		return nil, err
	}
	xau := r.Xau
	return &models.Purchase{
		Date:      date,
		Xau:       &xau,
		Grams:     grams,
		TotalCost: r.TotalCost,
	}, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func pathID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid purchase id: %w", err)
	}
	return uint(id), nil
}

// ListPurchases returns every stored purchase.
func (h *APIHandler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	purchases, err := h.purchases.All()
	if err != nil {
		h.log.Error("Failed to load purchases", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load purchases")
		return
	}
	writeJSON(w, http.StatusOK, purchases)
}

// CreatePurchase validates and stores a new purchase.
func (h *APIHandler) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := req.toModel()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id, err := h.purchases.Create(p)
	if err != nil {
		if errors.Is(err, store.ErrInvalidPurchase) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.log.Error("Failed to create purchase", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create purchase")
		return
	}

	h.log.Info("Purchase recorded",
		zap.Uint("id", id),
		zap.Float64("grams", p.Grams),
		zap.Float64("total_cost", p.TotalCost),
	)
	writeJSON(w, http.StatusCreated, p)
}

// GetPurchase returns a single purchase by id.
func (h *APIHandler) GetPurchase(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.purchases.Get(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "purchase not found")
			return
		}
		h.log.Error("Failed to load purchase", zap.Uint("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load purchase")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// UpdatePurchase replaces the fields of an existing purchase.
func (h *APIHandler) UpdatePurchase(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := req.toModel()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := h.purchases.Update(id, p); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "purchase not found")
		case errors.Is(err, store.ErrInvalidPurchase):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			h.log.Error("Failed to update purchase", zap.Uint("id", id), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to update purchase")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint{"id": id})
}

// DeletePurchase removes a purchase by id.
func (h *APIHandler) DeletePurchase(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.purchases.Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "purchase not found")
			return
		}
		h.log.Error("Failed to delete purchase", zap.Uint("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to delete purchase")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Report values the whole ledger against the current reference price.
func (h *APIHandler) Report(w http.ResponseWriter, r *http.Request) {
	purchases, err := h.purchases.All()
	if err != nil {
		h.log.Error("Failed to load purchases for report", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load purchases")
		return
	}

	report := valuation.ComputeReport(purchases, h.currentPrice(), time.Now().UTC())
	writeJSON(w, http.StatusOK, report)
}

// RefreshPrice triggers a live price fetch. A failed fetch is not an HTTP
// error: the response carries the fallback context and its staleness flag.
func (h *APIHandler) RefreshPrice(w http.ResponseWriter, r *http.Request) {
	price := h.pricing.Refresh(r.Context())
	if !price.Known() {
		// The persisted cache came back empty (or a cache write was lost
		// earlier), but the price resolved in this session is still the
		// last known one; keep it rather than downgrade to unknown.
		if prev := h.currentPrice(); prev.Known() {
			prev.Stale = true
			price = prev
		}
	}
	h.setPrice(price)

	resp := map[string]any{"price": price}
	if change, changePercent, ok := h.pricing.Change(); ok {
		resp["change"] = change
		resp["change_percent"] = changePercent
	}
	writeJSON(w, http.StatusOK, resp)
}
