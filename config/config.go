package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	StorageBackend string // "postgres" or "memory"

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	QueueKey      string

	UserAgent        string
	RequestTimeoutMs int
	MinDelayMs       int
	MaxDelayMs       int
	RatePerMinute    int
	MaxRetries       int
	MaxResults       int

	FetchStrategy string // "http" or "headless"
	Headless      bool
	ChromeBin     string

	Sources   []string
	RegionKey string
	QueryText string

	Mode          string // "pipeline", "enqueue" or "worker"
	MaxWorkers    int
	MinReputation float64

	LogLevel string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "axis"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "axis"),
		PostgresDB:       getEnv("POSTGRES_DB", "axis"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		StorageBackend: getEnv("STORAGE_BACKEND", "postgres"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		QueueKey:      getEnv("QUEUE_KEY", "axis:jobs"),

		UserAgent:        getEnv("USER_AGENT", "AxisBot/1.0 (+https://github.com/alexmarroig/Carpremiumsell)"),
		RequestTimeoutMs: getEnvInt("REQUEST_TIMEOUT_MS", 15000),
		MinDelayMs:       getEnvInt("MIN_DELAY_MS", 1000),
		MaxDelayMs:       getEnvInt("MAX_DELAY_MS", 5000),
		RatePerMinute:    getEnvInt("RATE_PER_MINUTE", 10),
		MaxRetries:       getEnvInt("MAX_RETRIES", 3),
		MaxResults:       getEnvInt("MAX_RESULTS", 30),

		FetchStrategy: getEnv("FETCH_STRATEGY", "http"),
		Headless:      getEnvBool("HEADLESS", true),
		ChromeBin:     getEnv("CHROME_BIN", ""),

		Sources:   getEnvList("SOURCES", "mercado_livre,olx"),
		RegionKey: getEnv("REGION_KEY", "sp"),
		QueryText: getEnv("QUERY_TEXT", ""),

		Mode:          getEnv("MODE", "pipeline"),
		MaxWorkers:    getEnvInt("MAX_WORKERS", 2),
		MinReputation: getEnvFloat("MIN_SELLER_REPUTATION", 0.7),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
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

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
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

func getEnvList(key, fallback string) []string {
	raw := getEnv(key, fallback)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
