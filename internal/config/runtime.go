package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultJWTAccessTTL = "24h"
	defaultSignTTL      = "1h"
	defaultStaleAfter   = "1h"
	defaultJWTSecret    = "change-me-jwt-secret"

	defaultImageMaxMB   = "10"
	defaultVideoMaxMB   = "100"
	defaultMaxImageSide = "2048"
	defaultJPEGQuality  = "85"

	defaultPersonalCeilingMB = "1024"
)

// RuntimeConfig carries everything the API process needs from the
// environment. Tests never use it — services take explicit config structs.
type RuntimeConfig struct {
	AppEnv      string
	DatabaseURL string
	ListenAddr  string

	JWTSecret    string
	JWTAccessTTL time.Duration

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string

	SignTTL      time.Duration
	ImageMaxMB   float64
	VideoMaxMB   float64
	MaxImageSide int
	JPEGQuality  int
	StaleAfter   time.Duration

	PersonalCeilingMB float64
	FFProbeBin        string
}

func LoadRuntimeConfig() (*RuntimeConfig, error) {
	cfg := &RuntimeConfig{}

	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", "daybook.db"))
	cfg.ListenAddr = strings.TrimSpace(getEnv("LISTEN_ADDR", ":8080"))
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))

	cfg.S3Bucket = strings.TrimSpace(os.Getenv("S3_BUCKET"))
	cfg.S3Region = strings.TrimSpace(getEnv("S3_REGION", "us-east-1"))
	cfg.S3Endpoint = strings.TrimSpace(os.Getenv("S3_ENDPOINT"))
	cfg.S3AccessKey = strings.TrimSpace(os.Getenv("S3_ACCESS_KEY"))
	cfg.S3SecretKey = strings.TrimSpace(os.Getenv("S3_SECRET_KEY"))
	cfg.FFProbeBin = strings.TrimSpace(getEnv("FFPROBE_BIN", "ffprobe"))

	var err error
	cfg.JWTAccessTTL, err = parseDurationEnv("JWT_ACCESS_TTL", defaultJWTAccessTTL)
	if err != nil {
		return nil, err
	}
	cfg.SignTTL, err = parseDurationEnv("MEDIA_SIGN_TTL", defaultSignTTL)
	if err != nil {
		return nil, err
	}
	cfg.StaleAfter, err = parseDurationEnv("MEDIA_STALE_AFTER", defaultStaleAfter)
	if err != nil {
		return nil, err
	}

	cfg.ImageMaxMB, err = parseFloatEnv("MEDIA_IMAGE_MAX_MB", defaultImageMaxMB)
	if err != nil {
		return nil, err
	}
	cfg.VideoMaxMB, err = parseFloatEnv("MEDIA_VIDEO_MAX_MB", defaultVideoMaxMB)
	if err != nil {
		return nil, err
	}
	cfg.MaxImageSide, err = parseIntEnv("MEDIA_MAX_IMAGE_SIDE", defaultMaxImageSide)
	if err != nil {
		return nil, err
	}
	cfg.JPEGQuality, err = parseIntEnv("MEDIA_JPEG_QUALITY", defaultJPEGQuality)
	if err != nil {
		return nil, err
	}
	cfg.PersonalCeilingMB, err = parseFloatEnv("TIER_PERSONAL_CEILING_MB", defaultPersonalCeilingMB)
	if err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	log.Printf("media config: image_max=%gMB video_max=%gMB max_side=%dpx quality=%d sign_ttl=%s",
		cfg.ImageMaxMB, cfg.VideoMaxMB, cfg.MaxImageSide, cfg.JPEGQuality, cfg.SignTTL)

	return cfg, nil
}

func validateConfig(cfg *RuntimeConfig) error {
	if cfg.JWTAccessTTL <= 0 {
		return fmt.Errorf("JWT_ACCESS_TTL must be > 0")
	}
	if cfg.SignTTL <= 0 {
		return fmt.Errorf("MEDIA_SIGN_TTL must be > 0")
	}
	if cfg.ImageMaxMB <= 0 || cfg.VideoMaxMB <= 0 {
		return fmt.Errorf("media size ceilings must be > 0")
	}
	if cfg.MaxImageSide <= 0 {
		return fmt.Errorf("MEDIA_MAX_IMAGE_SIDE must be > 0")
	}
	if cfg.JPEGQuality < 1 || cfg.JPEGQuality > 100 {
		return fmt.Errorf("MEDIA_JPEG_QUALITY must be in 1..100")
	}

	if isProdLike(cfg.AppEnv) {
		if strings.TrimSpace(cfg.JWTSecret) == "" || cfg.JWTSecret == defaultJWTSecret {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if cfg.S3Bucket == "" {
			return fmt.Errorf("in prod/release S3_BUCKET must be set")
		}
		if cfg.S3AccessKey == "" || cfg.S3SecretKey == "" {
			return fmt.Errorf("in prod/release S3_ACCESS_KEY and S3_SECRET_KEY must be set")
		}
	}

	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseFloatEnv(name, fallback string) (float64, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return f, nil
}

func parseIntEnv(name, fallback string) (int, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
