package models

import (
	"time"

	"gorm.io/gorm"
)

// Purchase represents a single gold acquisition recorded in the ledger.
// Grams is the authoritative quantity; Xau is nullable because records
// created before the field existed only stored grams. UnitCost is cached
// at creation from TotalCost/Grams and is never trusted over a recompute.
type Purchase struct {
	gorm.Model
	Date      time.Time `json:"date"`
	Xau       *float64  `json:"xau,omitempty"`
	Grams     float64   `json:"grams" gorm:"not null"`
	UnitCost  float64   `json:"unit_cost"`
	TotalCost float64   `json:"total_cost" gorm:"not null"`
}
