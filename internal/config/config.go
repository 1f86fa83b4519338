// Package config loads each process's environment-driven configuration.
// Each of the three binaries has its own Config type and Load function,
// following encurtador's flat os.Getenv-plus-validation shape rather than
// a shared generic loader, since the three processes don't share a
// config surface.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// RedirectConfig configures redirect-svc.
type RedirectConfig struct {
	DatabaseURL string
	RedisURL    string
	CacheSize   int
	SelfDomain  string
	Port        string
}

// LoadRedirect reads redirect-svc's configuration from the environment.
func LoadRedirect() (*RedirectConfig, error) {
	cfg := &RedirectConfig{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		SelfDomain:  os.Getenv("SELF_DOMAIN"),
		Port:        os.Getenv("APP_PORT"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}
	if cfg.SelfDomain == "" {
		return nil, fmt.Errorf("SELF_DOMAIN is required")
	}

	size, err := intEnvOrDefault("CACHE_SIZE", 100)
	if err != nil {
		return nil, err
	}
	cfg.CacheSize = size

	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	return cfg, nil
}

// WriteConfig configures write-svc.
type WriteConfig struct {
	DatabaseURL string
	RedisURL    string
	Port        string
}

// LoadWrite reads write-svc's configuration from the environment.
func LoadWrite() (*WriteConfig, error) {
	cfg := &WriteConfig{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		Port:        os.Getenv("APP_PORT"),
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}
	if cfg.Port == "" {
		cfg.Port = "8081"
	}
	return cfg, nil
}

// FillerConfig configures slug-filler.
type FillerConfig struct {
	DatabaseURL string
	RedisURL    string
	QueueSize   int
	SlugLen     int
	Interval    time.Duration
	Batch       int
}

// LoadFiller reads slug-filler's configuration from the environment.
func LoadFiller() (*FillerConfig, error) {
	cfg := &FillerConfig{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	queueSize, err := intEnvOrDefault("QUEUE_SIZE", 50_000)
	if err != nil {
		return nil, err
	}
	cfg.QueueSize = queueSize

	slugLen, err := intEnvOrDefault("SLUG_LEN", 6)
	if err != nil {
		return nil, err
	}
	cfg.SlugLen = slugLen

	intervalMS, err := intEnvOrDefault("FILLER_INTERVAL_MS", 250)
	if err != nil {
		return nil, err
	}
	cfg.Interval = time.Duration(intervalMS) * time.Millisecond

	batch, err := intEnvOrDefault("FILLER_BATCH", 500)
	if err != nil {
		return nil, err
	}
	cfg.Batch = batch

	return cfg, nil
}

func intEnvOrDefault(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
