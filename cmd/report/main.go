// Command report prints a one-shot valuation of the ledger to stdout. It
// attempts a live price refresh and falls back to the cached price when the
// feed is unreachable.
package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/yusy4code/gold-tracker-ai/internal/config"
	"github.com/yusy4code/gold-tracker-ai/internal/database"
	"github.com/yusy4code/gold-tracker-ai/internal/goldapi"
	"github.com/yusy4code/gold-tracker-ai/internal/logger"
	"github.com/yusy4code/gold-tracker-ai/internal/pricing"
	"github.com/yusy4code/gold-tracker-ai/internal/store"
	"github.com/yusy4code/gold-tracker-ai/internal/valuation"
	"go.uber.org/zap"
)

func main() {
	// Load application configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		// We can't use the logger here because it's not initialized yet.
		fmt.Fprintf(os.Stderr, "could not load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to open ledger database", zap.Error(err))
	}

	purchases := store.NewPurchaseStore(db)
	settings := store.NewSettingsStore(db)
	feed := goldapi.NewClient(&cfg.GoldAPI, log)
	pricingSvc := pricing.NewService(feed, settings, &cfg.Pricing, log)

	price := pricingSvc.Refresh(context.Background())

	records, err := purchases.All()
	if err != nil {
		log.Fatal("Failed to load purchases", zap.Error(err))
	}

	report := valuation.ComputeReport(records, price, time.Now().UTC())
	printReport(report, cfg.GoldAPI.Currency)
}

func printReport(report valuation.Report, currency string) {
	switch {
	case !report.Price.Known():
		fmt.Println("Reference price: unknown (no feed, empty cache)")
	case report.Price.Stale:
		fmt.Printf("Reference price: %.2f %s/g (%s, cached)\n", report.Price.PerGram, currency, report.Price.Basis)
	default:
		fmt.Printf("Reference price: %.2f %s/g (%s)\n", report.Price.PerGram, currency, report.Price.Basis)
	}
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tXAU\tGRAMS\tCOST\tVALUE\tP/L\tP/L %\tAGE (DAYS)")
	for _, row := range report.Rows {
		fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%.2f\t%s\t%s\t%s\t%d\n",
			row.Date.Format("2006-01-02"),
			row.Ounces,
			row.Grams,
			row.TotalCost,
			money(row.CurrentValue),
			signedMoney(row.ProfitLoss),
			percent(row.ProfitLossPercent),
			row.HoldingAgeDays,
		)
	}
	w.Flush()

	fmt.Println()
	fmt.Printf("Total cost:    %.2f %s\n", report.TotalCost, currency)
	fmt.Printf("Current value: %s %s\n", money(report.TotalCurrentValue), currency)
	fmt.Printf("Total P/L:     %s %s (%s)\n", signedMoney(report.TotalProfitLoss), currency, percent(report.TotalProfitLossPercent))
}

// money renders an optional figure, a dash when the price is unknown.
func money(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

// signedMoney prefixes gains with "+" the way the summary table does.
func signedMoney(v *float64) string {
	if v == nil {
		return "-"
	}
	if *v > 0 {
		return fmt.Sprintf("+%.2f", *v)
	}
	return fmt.Sprintf("%.2f", *v)
}

func percent(v *float64) string {
	if v == nil {
		return "-"
	}
	if *v > 0 {
		return fmt.Sprintf("+%.2f%%", *v)
	}
	return fmt.Sprintf("%.2f%%", *v)
}
