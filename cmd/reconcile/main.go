package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"daybook/internal/config"
	"daybook/internal/database"
	"daybook/internal/domain/media"
	"daybook/internal/storage"
)

// One-shot reconciliation sweep, intended for cron. Restores the
// storage_used invariant, fails stuck uploads and closes logged orphans.
func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadRuntimeConfig()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}

	var store storage.ObjectStore
	if cfg.S3Bucket != "" {
		store, err = storage.NewS3Store(context.Background(), storage.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			log.Fatal(err)
		}
	} else {
		store = storage.NewMemoryStore()
	}

	reconciler := media.NewReconciler(db, store, cfg.StaleAfter)
	report, err := reconciler.Run(context.Background())
	if err != nil {
		log.Fatalf("reconcile failed: %v", err)
	}

	log.Printf("reconcile completed: stale_failed=%d usage_corrected=%d orphans_resolved=%d",
		report.StaleFailed, report.UsageCorrected, report.OrphansResolved)
}
