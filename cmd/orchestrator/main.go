package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"leadharvest/internal/api"
	"leadharvest/internal/archive"
	"leadharvest/internal/config"
	"leadharvest/internal/database"
	"leadharvest/internal/gateway"
	"leadharvest/internal/jobs"
	"leadharvest/internal/ledger"
	"leadharvest/internal/providers"
	"leadharvest/internal/reconciler"
	"leadharvest/internal/referrals"
	"leadharvest/internal/storage"

	"github.com/lpernett/godotenv"
)

// @title LeadHarvest Orchestrator API
// @version 1.0.0
// @description Extraction job orchestration, credit ledger and referral accounting
// @BasePath /api/v1
func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.Load()

	storageBackend, err := storage.NewStorage(&cfg.Storage)
	if err != nil {
		log.Fatal("Failed to initialize storage:", err)
	}
	archiveService := archive.NewService(storageBackend)

	db, err := database.Connect(cfg.DatabaseURL, cfg.LogLevel)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// Services
	jobRepo := jobs.NewJobRepository(db.DB)
	jobService := jobs.NewJobServiceImpl(jobRepo)

	ledgerRepo := ledger.NewLedgerRepository(db.DB)
	ledgerService := ledger.NewService(ledgerRepo)

	referralRepo := referrals.NewReferralRepository(db.DB)
	referralService := referrals.NewService(referralRepo, cfg.ReferralRate, cfg.ReferralMaturation, cfg.PayoutThresholdUSD)
	ledgerService.SetPurchaseListener(referralService)

	registry := providers.NewRegistry(cfg)
	gw := gateway.New(jobService, ledgerService, registry, cfg.ProviderTimeout)

	// Background sweeps
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := reconciler.New(jobService, registry, archiveService, cfg.ReconcileInterval, cfg.ResultInterval)
	rec.Start(ctx)

	maturation := referrals.NewMaturationSweep(referralService, cfg.MaturationInterval)
	go maturation.Start(ctx)

	router := api.SetupRouter(gw, jobService, ledgerService, referralService)

	log.Printf("Starting leadharvest orchestrator on port %s", cfg.Port)
	log.Printf("Providers configured: %v", registry.Names())
	log.Printf("Storage type: %s", cfg.Storage.Type)
	if cfg.Storage.Type == "filesystem" {
		log.Printf("Storage path: %s", cfg.Storage.BasePath)
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- router.Run(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatal("Server failed to start:", err)
	case sig := <-quit:
		log.Printf("Received signal %v, shutting down...", sig)
		cancel()
		maturation.Stop()
		rec.Stop()
		log.Println("Server shutdown complete")
	}
}
