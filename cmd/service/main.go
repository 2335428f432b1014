package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	syncsvc "finanzen/internal/domain/sync"
	"finanzen/internal/infrastructure/fints"
	"finanzen/internal/infrastructure/postgres"
	"finanzen/internal/shared/config"
	"finanzen/internal/shared/telemetry"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Service error: %v", err)
	}
}

func run() error {
	// Missing .env is fine; the config files carry the defaults. Loaded
	// before flag setup so FINANZEN_CONFIG_DIR from .env feeds the default.
	godotenv.Load()

	configDir := flag.String("config", defaultConfigDir(), "Directory holding settings.yaml, accounts.yaml, categories.yaml")
	once := flag.Bool("once", false, "Run a single sync pass and exit")
	flag.Parse()

	cfg, err := config.Load(*configDir)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Printf("Telemetry shutdown: %v", err)
		}
	}()

	db, err := connectWithRetry(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	log.Println("Connected to database")

	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return err
	}

	client := fints.NewClient(cfg.FinTS.BridgeURL, cfg.FinTS.ProductID)
	runner := syncsvc.NewRunner(db, client, cfg)

	// Categories and accounts first, so the poll loop only ever deals
	// with transaction and balance data.
	if err := runner.ReconcileCategories(ctx); err != nil {
		return err
	}
	if err := runner.RegisterAccounts(ctx); err != nil {
		return err
	}

	if err := runner.SyncAll(ctx); err != nil {
		log.Printf("Initial sync failed: %v", err)
	}
	if *once {
		return nil
	}

	log.Printf("Polling every %s", cfg.Service.PollInterval)
	ticker := time.NewTicker(cfg.Service.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Service shutting down...")
			return nil
		case <-ticker.C:
			if err := runner.SyncAll(ctx); err != nil {
				log.Printf("Sync pass failed: %v", err)
			}
		}
	}
}

// connectWithRetry keeps trying until the database answers or the
// service is asked to stop. The database regularly comes up after the
// service under compose, so a refused first connection is normal.
func connectWithRetry(ctx context.Context, cfg *config.Config) (*postgres.DB, error) {
	for {
		db, err := postgres.New(cfg.Database.ConnectionString())
		if err == nil {
			return db, nil
		}

		log.Printf("Database not ready (%v), retrying in %s", err, cfg.Service.RetryInterval)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(cfg.Service.RetryInterval):
		}
	}
}

func defaultConfigDir() string {
	if dir := os.Getenv("FINANZEN_CONFIG_DIR"); dir != "" {
		return dir
	}
	return "config"
}
