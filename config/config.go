package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Port      int
	StaticDir string

	ChromeBin       string
	FetchTimeoutSec int
	MaxRetries      int
	APIFallback     bool

	MaxConcurrency int
	RateLimitMs    int
	CacheTTLSec    int

	LogDebug bool
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		Port:      getEnvInt("PORT", 5001),
		StaticDir: getEnv("STATIC_DIR", "./frontend"),

		ChromeBin:       getEnv("CHROME_BIN", ""),
		FetchTimeoutSec: getEnvInt("FETCH_TIMEOUT_SEC", 60),
		MaxRetries:      getEnvInt("MAX_RETRIES", 3),
		APIFallback:     getEnvBool("API_FALLBACK", true),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 3),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 2000),
		CacheTTLSec:    getEnvInt("CACHE_TTL_SEC", 120),

		LogDebug: getEnvBool("LOG_DEBUG", false),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
