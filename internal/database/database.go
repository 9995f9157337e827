package database

import (
	"fmt"

	"github.com/yusy4code/gold-tracker-ai/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewDatabase opens the sqlite ledger database and migrates the schema.
// A failure here is fatal to the session: without the record store no
// valuation is possible.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := AutoMigrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// AutoMigrate creates or updates the ledger tables. Existing purchase rows
// are never dropped; the schema only moves forward so older record vintages
// (rows without a stored XAU quantity) keep working.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Purchase{}, &models.Setting{}); err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	return nil
}
