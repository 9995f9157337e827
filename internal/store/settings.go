package store

import (
	"errors"
	"fmt"

	"github.com/yusy4code/gold-tracker-ai/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettingsStore persists key/value settings across sessions. The pricing
// service uses it to cache the last known reference price so the ledger can
// still be valued when the feed is unreachable.
type SettingsStore struct {
	db *gorm.DB
}

// NewSettingsStore creates a settings store backed by the given database.
func NewSettingsStore(db *gorm.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// Get returns the value stored under key. A missing key returns ok=false,
// not an error; absence is a normal state on first run.
func (s *SettingsStore) Get(key string) (string, bool, error) {
	var setting models.Setting
	if err := s.db.Where("key = ?", key).First(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to load setting %q: %w", key, err)
	}
	return setting.Value, true, nil
}

// Put stores value under key, overwriting any previous value.
func (s *SettingsStore) Put(key, value string) error {
	setting := models.Setting{Key: key, Value: value}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error
	if err != nil {
		return fmt.Errorf("failed to store setting %q: %w", key, err)
	}
	return nil
}
