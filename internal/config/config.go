package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMemory    = "memory"
	StorePostgres  = "postgres"
	StoreDatastore = "datastore"
)

type envConfig struct {
	APP_PORT      string
	LOG_FILE_PATH string
	LOG_LEVEL     string

	STORE_BACKEND string

	DB_HOST              string
	DB_PORT              string
	DB_USER              string
	DB_PASSWORD          string
	DB_NAME              string
	DB_SSL_MODE          string
	DB_MAX_OPEN_CONNS    int
	DB_MAX_IDLE_CONNS    int
	DB_CONN_MAX_LIFETIME time.Duration

	GCP_PROJECT_ID string

	PUBLIC_ORIGIN  string
	UPLOAD_DIR     string
	AUTOSAVE_DELAY time.Duration
	PRESETS_FILE   string

	// Editing sessions untouched this long are saved and closed; 0 keeps them.
	SESSION_IDLE_TIMEOUT time.Duration
}

// DefaultEnvConfig is populated by LoadEnvConfig.
var DefaultEnvConfig = defaults()

func defaults() envConfig {
	return envConfig{
		APP_PORT:             "8080",
		LOG_LEVEL:            "info",
		STORE_BACKEND:        StoreMemory,
		DB_HOST:              "localhost",
		DB_PORT:              "5432",
		DB_USER:              "postgres",
		DB_NAME:              "pawsheets",
		DB_SSL_MODE:          "disable",
		DB_MAX_OPEN_CONNS:    25,
		DB_MAX_IDLE_CONNS:    5,
		DB_CONN_MAX_LIFETIME: 5 * time.Minute,
		PUBLIC_ORIGIN:        "http://localhost:8080",
		UPLOAD_DIR:           "uploads",
		AUTOSAVE_DELAY:       2 * time.Second,
		SESSION_IDLE_TIMEOUT: 15 * time.Minute,
	}
}

// LoadEnvConfig reads .env (if present) and the process environment into DefaultEnvConfig.
func LoadEnvConfig() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := defaults()
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	str("APP_PORT", &cfg.APP_PORT)
	str("LOG_FILE_PATH", &cfg.LOG_FILE_PATH)
	str("LOG_LEVEL", &cfg.LOG_LEVEL)
	str("STORE_BACKEND", &cfg.STORE_BACKEND)
	str("DB_HOST", &cfg.DB_HOST)
	str("DB_PORT", &cfg.DB_PORT)
	str("DB_USER", &cfg.DB_USER)
	str("DB_PASSWORD", &cfg.DB_PASSWORD)
	str("DB_NAME", &cfg.DB_NAME)
	str("DB_SSL_MODE", &cfg.DB_SSL_MODE)
	str("GCP_PROJECT_ID", &cfg.GCP_PROJECT_ID)
	str("PUBLIC_ORIGIN", &cfg.PUBLIC_ORIGIN)
	str("UPLOAD_DIR", &cfg.UPLOAD_DIR)
	str("PRESETS_FILE", &cfg.PRESETS_FILE)

	var err error
	if cfg.DB_MAX_OPEN_CONNS, err = intEnv("DB_MAX_OPEN_CONNS", cfg.DB_MAX_OPEN_CONNS); err != nil {
		return err
	}
	if cfg.DB_MAX_IDLE_CONNS, err = intEnv("DB_MAX_IDLE_CONNS", cfg.DB_MAX_IDLE_CONNS); err != nil {
		return err
	}
	if cfg.DB_CONN_MAX_LIFETIME, err = durationEnv("DB_CONN_MAX_LIFETIME", cfg.DB_CONN_MAX_LIFETIME); err != nil {
		return err
	}
	if cfg.AUTOSAVE_DELAY, err = durationEnv("AUTOSAVE_DELAY", cfg.AUTOSAVE_DELAY); err != nil {
		return err
	}
	if cfg.SESSION_IDLE_TIMEOUT, err = durationEnv("SESSION_IDLE_TIMEOUT", cfg.SESSION_IDLE_TIMEOUT); err != nil {
		return err
	}

	switch cfg.STORE_BACKEND {
	case StoreMemory, StorePostgres, StoreDatastore:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", cfg.STORE_BACKEND)
	}
	if cfg.STORE_BACKEND == StoreDatastore && cfg.GCP_PROJECT_ID == "" {
		return fmt.Errorf("GCP_PROJECT_ID is required for the datastore backend")
	}

	DefaultEnvConfig = cfg
	return nil
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

// durationEnv accepts Go durations ("2s") or a plain number of milliseconds.
func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
