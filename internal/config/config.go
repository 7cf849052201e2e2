package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins string
	PublicBaseURL  string

	DatabaseURL string
	RedisURL    string

	MeiliSearchHost string
	MeiliMasterKey  string

	AdminJWTSecret   string
	ServiceJWTSecret string

	// Admission control gate.
	PoWSecret        string
	PoWDifficulty    int
	PoWMaxDifficulty int
	PoWTTL           time.Duration
	PoWThreshold     int
	PoWBotThreshold  int
	PoWWindow        time.Duration
	PoWCooldown      time.Duration

	// Evidence store.
	EvidenceRoot         string
	EvidenceMaxFileBytes int64
	EvidenceMinFreeBytes uint64
	EvidenceMaxFiles     int
	EvidenceMaxURLs      int
	EvidenceMaxHashes    int

	// Retention job.
	RetentionMonths   int
	RetentionInterval time.Duration

	// Collaborators.
	ContentBackendURL string
	SMTPHost          string
	SMTPPort          string
	SMTPFrom          string
	NotifyTimeout     time.Duration
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),
		PublicBaseURL:  getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		MeiliSearchHost: os.Getenv("MEILISEARCH_HOST"),
		MeiliMasterKey:  os.Getenv("MEILI_MASTER_KEY"),

		AdminJWTSecret:   getEnv("ADMIN_JWT_SECRET", "dev-admin-secret"),
		ServiceJWTSecret: getEnv("SERVICE_JWT_SECRET", "dev-service-secret"),

		PoWSecret: getEnv("POW_SECRET", "dev-pow-secret"),

		EvidenceRoot:      getEnv("EVIDENCE_ROOT", "./data/evidence"),
		ContentBackendURL: os.Getenv("CONTENT_BACKEND_URL"),
		SMTPHost:          os.Getenv("SMTP_HOST"),
		SMTPPort:          getEnv("SMTP_PORT", "25"),
		SMTPFrom:          getEnv("SMTP_FROM", "noreply@localhost"),
	}

	var err error
	if cfg.PoWDifficulty, err = parseInt("POW_DIFFICULTY", 18); err != nil {
		return nil, err
	}
	if cfg.PoWMaxDifficulty, err = parseInt("POW_MAX_DIFFICULTY", 24); err != nil {
		return nil, err
	}
	if cfg.PoWThreshold, err = parseInt("POW_THRESHOLD", 20); err != nil {
		return nil, err
	}
	if cfg.PoWBotThreshold, err = parseInt("POW_BOT_THRESHOLD", 3); err != nil {
		return nil, err
	}
	if cfg.PoWTTL, err = parseDuration("POW_TTL", "2m"); err != nil {
		return nil, err
	}
	if cfg.PoWWindow, err = parseDuration("POW_WINDOW", "1m"); err != nil {
		return nil, err
	}
	if cfg.PoWCooldown, err = parseDuration("POW_COOLDOWN", "10m"); err != nil {
		return nil, err
	}

	maxFileMB, err := parseInt("EVIDENCE_MAX_FILE_MB", 10)
	if err != nil {
		return nil, err
	}
	cfg.EvidenceMaxFileBytes = int64(maxFileMB) * 1024 * 1024

	minFreeMB, err := parseInt("EVIDENCE_MIN_FREE_MB", 512)
	if err != nil {
		return nil, err
	}
	cfg.EvidenceMinFreeBytes = uint64(minFreeMB) * 1024 * 1024

	if cfg.EvidenceMaxFiles, err = parseInt("EVIDENCE_MAX_FILES", 5); err != nil {
		return nil, err
	}
	// 0 means unlimited for url/hash evidence.
	if cfg.EvidenceMaxURLs, err = parseInt("EVIDENCE_MAX_URLS", 0); err != nil {
		return nil, err
	}
	if cfg.EvidenceMaxHashes, err = parseInt("EVIDENCE_MAX_HASHES", 0); err != nil {
		return nil, err
	}

	if cfg.RetentionMonths, err = parseInt("RETENTION_MONTHS", 6); err != nil {
		return nil, err
	}
	if cfg.RetentionInterval, err = parseDuration("RETENTION_INTERVAL", "12h"); err != nil {
		return nil, err
	}
	if cfg.NotifyTimeout, err = parseDuration("NOTIFY_TIMEOUT", "5s"); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func parseInt(key string, fallback int) (int, error) {
	raw, exists := os.LookupEnv(key)
	if !exists || raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
