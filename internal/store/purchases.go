// Package store wraps the gorm database with the ledger's two persistence
// surfaces: the purchase record store and the key/value settings store.
package store

import (
	"errors"
	"fmt"
	"math"

	"github.com/yusy4code/gold-tracker-ai/internal/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned when an operation references a purchase id that
// does not exist in the store.
var ErrNotFound = errors.New("purchase not found")

// ErrInvalidPurchase is returned when a record fails validation. No partial
// record is created.
var ErrInvalidPurchase = errors.New("invalid purchase")

// PurchaseStore persists purchase records.
type PurchaseStore struct {
	db *gorm.DB
}

// NewPurchaseStore creates a purchase store backed by the given database.
func NewPurchaseStore(db *gorm.DB) *PurchaseStore {
	return &PurchaseStore{db: db}
}

// validate enforces the record invariants. Pricing a record with a
// non-positive gram quantity or cost is undefined, so such records are
// rejected before they ever reach storage.
func validate(p *models.Purchase) error {
	if math.IsNaN(p.Grams) || math.IsInf(p.Grams, 0) || p.Grams <= 0 {
		return fmt.Errorf("%w: gram quantity must be a positive finite number, got %v", ErrInvalidPurchase, p.Grams)
	}
	if math.IsNaN(p.TotalCost) || math.IsInf(p.TotalCost, 0) || p.TotalCost <= 0 {
		return fmt.Errorf("%w: total cost must be a positive finite number, got %v", ErrInvalidPurchase, p.TotalCost)
	}
	if p.Date.IsZero() {
		return fmt.Errorf("%w: purchase date is required", ErrInvalidPurchase)
	}
	return nil
}

// Create validates and inserts a purchase, returning its assigned id.
// UnitCost is recomputed from TotalCost and Grams; a caller-supplied value
// is a cache, not an authority.
func (s *PurchaseStore) Create(p *models.Purchase) (uint, error) {
	if err := validate(p); err != nil {
		return 0, err
	}
	p.UnitCost = p.TotalCost / p.Grams
	if err := s.db.Create(p).Error; err != nil {
		return 0, fmt.Errorf("failed to create purchase: %w", err)
	}
	return p.ID, nil
}

// All returns every purchase in the store. Order is unspecified; the
// valuation engine sorts for itself.
func (s *PurchaseStore) All() ([]models.Purchase, error) {
	purchases := make([]models.Purchase, 0)
	if err := s.db.Find(&purchases).Error; err != nil {
		return nil, fmt.Errorf("failed to load purchases: %w", err)
	}
	return purchases, nil
}

// Get returns the purchase with the given id, or ErrNotFound.
func (s *PurchaseStore) Get(id uint) (*models.Purchase, error) {
	var p models.Purchase
	if err := s.db.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load purchase %d: %w", id, err)
	}
	return &p, nil
}

// Update replaces the stored fields of an existing purchase. The id is
// immutable; updating a missing id returns ErrNotFound.
func (s *PurchaseStore) Update(id uint, p *models.Purchase) error {
	if err := validate(p); err != nil {
		return err
	}

	existing, err := s.Get(id)
	if err != nil {
		return err
	}

	existing.Date = p.Date
	existing.Xau = p.Xau
	existing.Grams = p.Grams
	existing.TotalCost = p.TotalCost
	existing.UnitCost = p.TotalCost / p.Grams

	if err := s.db.Save(existing).Error; err != nil {
		return fmt.Errorf("failed to update purchase %d: %w", id, err)
	}
	return nil
}

// Delete removes the purchase with the given id, or returns ErrNotFound.
func (s *PurchaseStore) Delete(id uint) error {
	res := s.db.Delete(&models.Purchase{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete purchase %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
