package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config holds all configuration for the application
type Config struct {
	Port    string
	LogMode string
	SpecDir string

	// Cache
	CacheTTL       time.Duration
	CacheBackend   string
	CacheDBPath    string
	RedisAddr      string
	RedisRetention time.Duration
	RefreshWorkers int

	// Dispatcher
	ChunkSize   int
	ChunkDelay  time.Duration
	ShopTimeout time.Duration

	// Scraper transport
	HTTPRetryMax   int
	HostRatePerSec float64

	// EnabledShops limits the registry. Empty means every shop.
	EnabledShops []string
}

// Load reads .env if present, then the environment, and validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:         getEnv("PORT", "9090"),
		LogMode:      getEnv("LOG_MODE", "development"),
		SpecDir:      getEnv("SPEC_DIR", "./"),
		CacheBackend: strings.ToLower(getEnv("CACHE_BACKEND", BackendMemory)),
		CacheDBPath:  getEnv("CACHE_DB_PATH", "./cache.db"),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		EnabledShops: splitList(getEnv("ENABLED_SHOPS", "")),
	}

	var err error
	if cfg.CacheTTL, err = minutes("CACHE_TTL_MINUTES", 60); err != nil {
		return nil, err
	}
	if cfg.RedisRetention, err = hours("REDIS_RETENTION_HOURS", 168); err != nil {
		return nil, err
	}
	if cfg.RefreshWorkers, err = getInt("REFRESH_WORKERS", 4); err != nil {
		return nil, err
	}
	if cfg.ChunkSize, err = getInt("CHUNK_SIZE", 3); err != nil {
		return nil, err
	}
	delayMS, err := getInt("CHUNK_DELAY_MS", 1000)
	if err != nil {
		return nil, err
	}
	cfg.ChunkDelay = time.Duration(delayMS) * time.Millisecond
	timeoutSec, err := getInt("SHOP_TIMEOUT_SECONDS", 15)
	if err != nil {
		return nil, err
	}
	cfg.ShopTimeout = time.Duration(timeoutSec) * time.Second
	if cfg.HTTPRetryMax, err = getInt("HTTP_RETRY_MAX", 1); err != nil {
		return nil, err
	}
	if cfg.HostRatePerSec, err = getFloat("HOST_RATE_PER_SEC", 2); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and backend settings.
func (c *Config) Validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT must be numeric, got %q", c.Port)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL_MINUTES must be positive")
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkDelay < 0 {
		return fmt.Errorf("CHUNK_DELAY_MS must not be negative")
	}
	if c.ShopTimeout <= 0 {
		return fmt.Errorf("SHOP_TIMEOUT_SECONDS must be positive")
	}
	if c.RefreshWorkers <= 0 {
		return fmt.Errorf("REFRESH_WORKERS must be positive, got %d", c.RefreshWorkers)
	}
	if c.HTTPRetryMax < 0 {
		return fmt.Errorf("HTTP_RETRY_MAX must not be negative")
	}
	if c.HostRatePerSec < 0 {
		return fmt.Errorf("HOST_RATE_PER_SEC must not be negative")
	}

	switch c.CacheBackend {
	case BackendMemory:
	case BackendSQLite:
		if c.CacheDBPath == "" {
			return fmt.Errorf("CACHE_DB_PATH is required for the sqlite backend")
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis backend")
		}
		if c.RedisRetention <= 0 {
			return fmt.Errorf("REDIS_RETENTION_HOURS must be positive")
		}
	default:
		return fmt.Errorf("CACHE_BACKEND must be memory, sqlite or redis, got %q", c.CacheBackend)
	}
	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func getInt(key string, def int) (int, error) {
	v := getEnv(key, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func getFloat(key string, def float64) (float64, error) {
	v := getEnv(key, "")
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", key, v)
	}
	return f, nil
}

func minutes(key string, def int) (time.Duration, error) {
	n, err := getInt(key, def)
	return time.Duration(n) * time.Minute, err
}

func hours(key string, def int) (time.Duration, error) {
	n, err := getInt(key, def)
	return time.Duration(n) * time.Hour, err
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
