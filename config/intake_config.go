package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string

	// Database
	DatabaseURL string
	RedisURL    string
	MongoDBURL  string
	MongoDBName string

	// OpenAI
	OpenAIAPIKey  string
	LLMModel      string
	LLMMaxTokens  int
	LLMTimeoutSec int

	// OAuth - Google (mail provider)
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRefreshToken string

	// Sync
	SyncPageSize       int
	SyncLookbackHours  int
	SyncIntervalSec    int
	SyncLockTTLSec     int
	SyncOrgIDs         []string
	SchedulerEnabled   bool
	ProviderTimeoutSec int

	// Resolver thresholds. The address-similarity threshold is a
	// heuristic; keep it tunable rather than baked in.
	ResolverAcceptThreshold float64
	AddressSimilarityCutoff float64
}

func Load() (*Config, error) {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),
		MongoDBURL:  getEnv("MONGODB_URL", ""),
		MongoDBName: getEnv("MONGODB_DATABASE", "intake"),

		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		LLMModel:      getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMMaxTokens:  getEnvInt("LLM_MAX_TOKENS", 64),
		LLMTimeoutSec: getEnvInt("LLM_TIMEOUT_SEC", 20),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRefreshToken: getEnv("GOOGLE_REFRESH_TOKEN", ""),

		SyncPageSize:       getEnvInt("SYNC_PAGE_SIZE", 50),
		SyncLookbackHours:  getEnvInt("SYNC_LOOKBACK_HOURS", 24),
		SyncIntervalSec:    getEnvInt("SYNC_INTERVAL_SEC", 300),
		SyncLockTTLSec:     getEnvInt("SYNC_LOCK_TTL_SEC", 600),
		SyncOrgIDs:         getEnvSlice("SYNC_ORG_IDS", nil),
		SchedulerEnabled:   getEnvBool("SCHEDULER_ENABLED", true),
		ProviderTimeoutSec: getEnvInt("PROVIDER_TIMEOUT_SEC", 30),

		ResolverAcceptThreshold: getEnvFloat("RESOLVER_ACCEPT_THRESHOLD", 0.7),
		AddressSimilarityCutoff: getEnvFloat("ADDRESS_SIMILARITY_CUTOFF", 0.7),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
