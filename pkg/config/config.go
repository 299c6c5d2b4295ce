package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds service configuration.
type Config struct {
	HTTPPort        string
	FeedProvider    string
	FeedTimeout     time.Duration
	FeedRetryMax    int
	AlphaVantageKey string
	LocalDataDir    string

	QuoteCacheTTL  time.Duration
	ChartCacheTTL  time.Duration
	SearchCacheTTL time.Duration
	SearchCacheMax int

	TopMoversCount    int
	DefaultPeriod     string
	RequestsPerSecond int
	BurstSize         int
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() Config {
	return Config{
		HTTPPort:        getEnv("PORT", "8080"),
		FeedProvider:    getEnv("DATA_FEED_PROVIDER", "yahoo"),
		FeedTimeout:     getEnvDuration("FEED_TIMEOUT", 10*time.Second),
		FeedRetryMax:    getEnvInt("FEED_RETRY_MAX", 1),
		AlphaVantageKey: getEnv("ALPHA_VANTAGE_API_KEY", ""),
		LocalDataDir:    getEnv("LOCAL_DATA_DIR", "feed/data"),

		QuoteCacheTTL:  getEnvDuration("QUOTE_CACHE_TTL", 5*time.Minute),
		ChartCacheTTL:  getEnvDuration("CHART_CACHE_TTL", 10*time.Minute),
		SearchCacheTTL: getEnvDuration("SEARCH_CACHE_TTL", 30*time.Minute),
		SearchCacheMax: getEnvInt("SEARCH_CACHE_MAX", 100),

		TopMoversCount:    getEnvInt("TOP_MOVERS_COUNT", 5),
		DefaultPeriod:     getEnv("DEFAULT_CHART_PERIOD", "1M"),
		RequestsPerSecond: getEnvInt("RATE_LIMIT_RPS", 10),
		BurstSize:         getEnvInt("RATE_LIMIT_BURST", 20),
	}
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}
