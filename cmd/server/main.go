package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/yusy4code/gold-tracker-ai/internal/config"
	"github.com/yusy4code/gold-tracker-ai/internal/database"
	"github.com/yusy4code/gold-tracker-ai/internal/goldapi"
	"github.com/yusy4code/gold-tracker-ai/internal/logger"
	"github.com/yusy4code/gold-tracker-ai/internal/pricing"
	"github.com/yusy4code/gold-tracker-ai/internal/store"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Connect to the database. Without the record store no valuation is
	// possible, so this failure halts the session.
	db, err := database.NewDatabase(cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to open ledger database", zap.Error(err))
	}
	log.Info("Ledger database opened and schema migrated")

	purchases := store.NewPurchaseStore(db)
	settings := store.NewSettingsStore(db)

	feed := goldapi.NewClient(&cfg.GoldAPI, log)
	pricingSvc := pricing.NewService(feed, settings, &cfg.Pricing, log)

	// Startup price: one live fetch attempt, falling back to the last
	// persisted value when the feed is unreachable. Further refreshes only
	// happen on demand, through the refresh endpoint.
	price := pricingSvc.Refresh(context.Background())
	switch {
	case price.Known() && !price.Stale:
		log.Info("Fetched reference price",
			zap.Float64("per_gram", price.PerGram),
			zap.String("basis", string(price.Basis)),
		)
	case price.Known():
		log.Warn("Feed unreachable, using cached reference price",
			zap.Float64("per_gram", price.PerGram),
			zap.String("basis", string(price.Basis)),
		)
	default:
		log.Warn("No reference price available; report will show placeholders until a refresh")
	}

	apiHandler := NewAPIHandler(log, purchases, pricingSvc, price)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/purchases", apiHandler.ListPurchases)
	mux.HandleFunc("POST /api/purchases", apiHandler.CreatePurchase)
	mux.HandleFunc("GET /api/purchases/{id}", apiHandler.GetPurchase)
	mux.HandleFunc("PUT /api/purchases/{id}", apiHandler.UpdatePurchase)
	mux.HandleFunc("DELETE /api/purchases/{id}", apiHandler.DeletePurchase)
	mux.HandleFunc("GET /api/report", apiHandler.Report)
	mux.HandleFunc("POST /api/price/refresh", apiHandler.RefreshPrice)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Info("Starting web server", zap.String("address", addr))

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal("Web server failed", zap.Error(err))
	}
}
