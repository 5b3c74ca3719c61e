package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"daybook/internal/config"
	"daybook/internal/database"
	"daybook/internal/domain/auth"
	"daybook/internal/domain/entry"
	"daybook/internal/domain/media"
	"daybook/internal/middleware"
	jwtsvc "daybook/internal/pkg/jwt"
	"daybook/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadRuntimeConfig()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := db.AutoMigrate(
		&auth.User{},
		&entry.Entry{},
		&media.Attachment{},
		&media.ReconciliationEntry{},
	); err != nil {
		log.Fatalf("migrate failed: %v", err)
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
		log.Println("S3_BUCKET is empty, using in-memory object store (dev only)")
		store = storage.NewMemoryStore()
	}

	mediaCfg := media.Config{
		ImageMaxMB:   cfg.ImageMaxMB,
		VideoMaxMB:   cfg.VideoMaxMB,
		MaxImageSide: cfg.MaxImageSide,
		JPEGQuality:  cfg.JPEGQuality,
		SignTTL:      cfg.SignTTL,
		StaleAfter:   cfg.StaleAfter,
		Tiers:        media.DefaultTierLimits(cfg.PersonalCeilingMB),
	}

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTAccessTTL)

	userRepo := auth.NewRepository(db)
	entryRepo := entry.NewRepository(db)

	authService := auth.NewService(userRepo, j)
	authHandler := auth.NewHandler(authService)

	mediaService := media.NewService(db, store, entryRepo, mediaCfg, media.NewProber(cfg.FFProbeBin))
	mediaHandler := media.NewHandler(mediaService)

	entryService := entry.NewService(entryRepo, mediaService)
	entryHandler := entry.NewHandler(entryService)

	r := gin.Default()
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorLogger())

	v1 := r.Group("/api/v1")
	{
		auth.RegisterRoutes(v1, authHandler)

		protected := v1.Group("/")
		protected.Use(middleware.RequireAuth(j))
		{
			auth.RegisterProtectedRoutes(protected, authHandler)
			entry.RegisterRoutes(protected, entryHandler)
			media.RegisterRoutes(protected, mediaHandler)
		}
	}

	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatal(err)
	}
}
