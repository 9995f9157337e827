// Package units converts between the two quantity denominations the ledger
// uses: troy ounces of fine gold (XAU) and grams.
package units

import (
	"fmt"
	"math"
)

// GramsPerOunce is the number of grams in one troy ounce of fine gold.
// Every conversion in the ledger uses this single value; records created
// against a different ratio would not compare cleanly.
const GramsPerOunce = 31.1035

// ToGrams converts a troy-ounce quantity to grams.
func ToGrams(ounces float64) (float64, error) {
	if math.IsNaN(ounces) || math.IsInf(ounces, 0) {
		return 0, fmt.Errorf("ounce quantity is not a finite number: %v", ounces)
	}
	if ounces < 0 {
		return 0, fmt.Errorf("ounce quantity must not be negative: %v", ounces)
	}
	return ounces * GramsPerOunce, nil
}

// ToOunces converts a gram quantity to troy ounces. It exists for records
// written before the ounce quantity was stored; grams stay authoritative
// and are never regenerated from the result.
func ToOunces(grams float64) (float64, error) {
	if math.IsNaN(grams) || math.IsInf(grams, 0) {
		return 0, fmt.Errorf("gram quantity is not a finite number: %v", grams)
	}
	if grams < 0 {
		return 0, fmt.Errorf("gram quantity must not be negative: %v", grams)
	}
	return grams / GramsPerOunce, nil
}
