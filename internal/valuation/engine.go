package valuation

import (
	"math"
	"sort"
	"time"

	"github.com/yusy4code/gold-tracker-ai/internal/models"
	"github.com/yusy4code/gold-tracker-ai/internal/units"
)

// Row is the valuation of a single purchase. CurrentValue, ProfitLoss and
// ProfitLossPercent are nil when the reference price is unknown.
type Row struct {
	ID   uint      `json:"id"`
	Date time.Time `json:"date"`
	// Ounces is the XAU quantity for display: the stored value when the
	// record has one, otherwise derived from grams. DerivedOunces tells
	// the two apart.
	Ounces        float64 `json:"ounces"`
	DerivedOunces bool    `json:"derived_ounces"`
	Grams         float64 `json:"grams"`
	UnitCost      float64 `json:"unit_cost"`
	TotalCost     float64 `json:"total_cost"`

	CurrentValue      *float64  `json:"current_value,omitempty"`
	ProfitLoss        *float64  `json:"profit_loss,omitempty"`
	ProfitLossPercent *float64  `json:"profit_loss_percent,omitempty"`
	HoldingAgeDays    int       `json:"holding_age_days"`
	Direction         Direction `json:"direction"`
}

// Report is the derived valuation of the whole ledger. It is recomputed on
// every display from the purchase set and the price context, and never
// persisted.
type Report struct {
	Rows []Row `json:"rows"`

	TotalCost float64 `json:"total_cost"`
	// The portfolio totals below are all-or-nothing: the reference price is
	// a single global value, so current value and profit/loss are either
	// known for every row or for none. They are never partially summed.
	TotalCurrentValue      *float64  `json:"total_current_value,omitempty"`
	TotalProfitLoss        *float64  `json:"total_profit_loss,omitempty"`
	TotalProfitLossPercent *float64  `json:"total_profit_loss_percent,omitempty"`
	Direction              Direction `json:"direction"`

	Price PriceContext `json:"price"`
}

// positiveFinite reports whether v is usable as a gram quantity or cost.
// NaN and infinities would poison every total they touch.
func positiveFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}

// ComputeReport values every purchase against the given price context.
//
// Records violating the store invariants (non-positive or non-finite grams
// or cost) are
// refused rather than priced: pricing them would divide by a non-positive
// quantity. The store rejects such records at creation, so a violation here
// means the row bypassed validation, and it is excluded from both the rows
// and the totals.
//
// An empty record set and an unknown price are both ordinary states, not
// errors: the former yields an empty report with zero totals, the latter a
// report full of unknown figures.
func ComputeReport(records []models.Purchase, price PriceContext, now time.Time) Report {
	report := Report{
		Rows:  make([]Row, 0, len(records)),
		Price: price,
	}

	for _, r := range records {
		if !positiveFinite(r.Grams) || !positiveFinite(r.TotalCost) {
			continue
		}

		row := Row{
			ID:             r.ID,
			Date:           r.Date,
			Grams:          r.Grams,
			UnitCost:       r.TotalCost / r.Grams,
			TotalCost:      r.TotalCost,
			HoldingAgeDays: holdingAgeDays(r.Date, now),
		}

		if r.Xau != nil {
			row.Ounces = *r.Xau
		} else {
			// Records written before the ounce quantity was stored only
			// carry grams; derive for display.
			ounces, err := units.ToOunces(r.Grams)
			if err != nil {
				continue
			}
			row.Ounces = ounces
			row.DerivedOunces = true
		}

		if price.Known() {
			currentValue := r.Grams * price.PerGram
			profitLoss := currentValue - r.TotalCost
			profitLossPercent := profitLoss / r.TotalCost * 100

			row.CurrentValue = &currentValue
			row.ProfitLoss = &profitLoss
			row.ProfitLossPercent = &profitLossPercent
		}
		row.Direction = classify(row.ProfitLoss)

		report.Rows = append(report.Rows, row)
		report.TotalCost += r.TotalCost
	}

	// Most recent purchase first. The id tie-break keeps the order stable
	// across repeated calls for same-day purchases.
	sort.SliceStable(report.Rows, func(i, j int) bool {
		if !report.Rows[i].Date.Equal(report.Rows[j].Date) {
			return report.Rows[i].Date.After(report.Rows[j].Date)
		}
		return report.Rows[i].ID > report.Rows[j].ID
	})

	if price.Known() {
		var totalCurrentValue, totalProfitLoss float64
		for _, row := range report.Rows {
			totalCurrentValue += *row.CurrentValue
			totalProfitLoss += *row.ProfitLoss
		}
		report.TotalCurrentValue = &totalCurrentValue
		report.TotalProfitLoss = &totalProfitLoss

		if report.TotalCost > 0 {
			totalPercent := totalProfitLoss / report.TotalCost * 100
			report.TotalProfitLossPercent = &totalPercent
		}
	}
	report.Direction = classify(report.TotalProfitLoss)

	return report
}
