package models

import "gorm.io/gorm"

// Setting is a persisted key/value pair. The price cache (last fetched
// prices, basis, change figures, fetch time) lives here so it survives
// restarts and can back a stale valuation when the feed is down.
type Setting struct {
	gorm.Model
	Key   string `gorm:"uniqueIndex;not null"`
	Value string `gorm:"not null"`
}
