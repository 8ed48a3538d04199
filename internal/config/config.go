package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL        string
	JWTSecret          string
	Port               string
	FCMServiceAccount  string
	LogLevel           string
	EventBufferSize    int
	ReconcileInterval  time.Duration
	OrphanGracePeriod  time.Duration
	ReferenceCacheSize int
	ReferenceCacheTTL  time.Duration
	CORSOrigins        string
}

// Load reads the environment, after applying a .env file if one exists.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DatabaseURL:        getEnv("DATABASE_URL", "quests.db"),
		JWTSecret:          getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		Port:               getEnv("PORT", "8080"),
		FCMServiceAccount:  getEnv("FCM_SERVICE_ACCOUNT", ""),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", "info")),
		EventBufferSize:    getEnvInt("EVENT_BUFFER_SIZE", 256),
		ReconcileInterval:  getEnvDuration("RECONCILE_INTERVAL", 10*time.Minute),
		OrphanGracePeriod:  getEnvDuration("ORPHAN_GRACE_PERIOD", time.Hour),
		ReferenceCacheSize: getEnvInt("REFERENCE_CACHE_SIZE", 512),
		ReferenceCacheTTL:  getEnvDuration("REFERENCE_CACHE_TTL", 30*time.Second),
		CORSOrigins:        getEnv("CORS_ORIGINS", "*"),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
