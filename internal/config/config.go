package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// StoreHardBatchLimit is the backing store's per-transaction operation
// ceiling. The configured batch limit must stay strictly below it to leave
// headroom for concurrent writers.
const StoreHardBatchLimit = 500

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port      string
	Env       string
	JWTSecret string
	// CORSHosts are the browser origins (host[:port]) allowed to call the
	// API cross-origin.
	CORSHosts []string

	DB        DatabaseConfig
	Redis     RedisConfig
	Reconcile ReconcileConfig
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig contains Redis connection parameters.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// ReconcileConfig contains the tunables of the reconciliation pipeline.
type ReconcileConfig struct {
	// PageSize is how many source records a scanner page requests.
	PageSize int
	// BatchLimit caps writes per commit; must be < StoreHardBatchLimit.
	BatchLimit int
	// DryRun executes the full compute path without committing writes.
	DryRun bool
	// MerchantScope restricts a run to one merchant id when non-empty.
	MerchantScope string
	// MaxGTINs caps the distinct canonical identifiers processed per run;
	// 0 means unlimited.
	MaxGTINs int
	// Interval drives the periodic worker; 0 disables it.
	Interval time.Duration
	// LocationLabels overrides merchant display labels, keyed by merchant id.
	LocationLabels map[string]string
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first. It returns a populated
// Config or an error with a human-friendly message.
func Load() (*Config, error) {
	// Load .env if present; ignore error if file is missing so that production
	// environments relying solely on real environment variables keep working.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")
	cfg.JWTSecret = getEnv("JWT_SECRET", "")
	cfg.CORSHosts = parseListEnv("CORS_ALLOWED_HOSTS", "localhost:3000,127.0.0.1:3000")

	// Database
	cfg.DB = DatabaseConfig{
		Host:     getEnv("DB_HOST", ""),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Redis
	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", "redis"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	// Reconciliation pipeline
	cfg.Reconcile = ReconcileConfig{
		PageSize:      getEnvInt("RECONCILE_PAGE_SIZE", 200),
		BatchLimit:    getEnvInt("RECONCILE_BATCH_LIMIT", 450),
		DryRun:        getEnvBool("RECONCILE_DRY_RUN", false),
		MerchantScope: getEnv("RECONCILE_MERCHANT", ""),
		MaxGTINs:      getEnvInt("RECONCILE_MAX_GTINS", 0),
	}

	var err error
	if cfg.Reconcile.Interval, err = parseDurationEnv("RECONCILE_INTERVAL", "0"); err != nil {
		return nil, fmt.Errorf("invalid RECONCILE_INTERVAL: %w", err)
	}
	if cfg.Reconcile.LocationLabels, err = parseLabelsEnv("LOCATION_LABELS"); err != nil {
		return nil, fmt.Errorf("invalid LOCATION_LABELS: %w", err)
	}

	// Basic validation for DB parameters.
	if cfg.DB.Host == "" || cfg.DB.User == "" || cfg.DB.Name == "" {
		return nil, errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must be set for admin authentication")
	}

	if cfg.Reconcile.PageSize <= 0 {
		return nil, errors.New("RECONCILE_PAGE_SIZE must be positive")
	}
	if cfg.Reconcile.BatchLimit <= 0 || cfg.Reconcile.BatchLimit >= StoreHardBatchLimit {
		return nil, fmt.Errorf("RECONCILE_BATCH_LIMIT must be between 1 and %d", StoreHardBatchLimit-1)
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// getEnvBool returns the value of an environment variable as a bool or a default if empty/invalid.
func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}

// parseListEnv parses a comma-separated env var into a slice, trimming
// whitespace and dropping empty items.
func parseListEnv(key, def string) []string {
	raw := getEnv(key, def)
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// parseLabelsEnv parses a JSON object env var mapping merchant ids to display
// labels. Empty env means no overrides.
func parseLabelsEnv(key string) (map[string]string, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return nil, nil
	}
	labels := make(map[string]string)
	if err := json.Unmarshal([]byte(raw), &labels); err != nil {
		return nil, err
	}
	return labels, nil
}
