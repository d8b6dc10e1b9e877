package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	DataPath    string
	CatalogPath string

	FinnBaseURL       string
	HjemBaseURL       string
	HjemAPIURL        string
	UserAgent         string
	RequestTimeout    time.Duration
	RenderWithBrowser bool
	BrowserSettle     time.Duration
	ChromeBin         string

	CollectConcurrency int
	ScheduleHour       int
	ScrapeOnStart      bool
	JobQueueDepth      int
	HTTPAddr           string

	LogLevel      string
	LogJSON       bool
	FluentEnabled bool
	FluentHost    string
	FluentPort    int

	PostgresEnabled  bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	MaxRetries       int

	RabbitMQURL        string
	RabbitMQExchange   string
	RabbitMQRoutingKey string
}

// Load reads the .env file (if any) and returns a populated Config struct.
func Load(envPath ...string) *Config {
	if err := godotenv.Load(envPath...); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		DataPath:    getEnv("DATA_PATH", "./data/data.csv"),
		CatalogPath: getEnv("CATALOG_PATH", ""),

		FinnBaseURL:       getEnv("FINN_BASE_URL", "https://www.finn.no"),
		HjemBaseURL:       getEnv("HJEM_BASE_URL", "https://hjem.no"),
		HjemAPIURL:        getEnv("HJEM_API_URL", ""),
		UserAgent:         getEnv("USER_AGENT", "Mozilla/5.0"),
		RequestTimeout:    getEnvDuration("REQUEST_TIMEOUT", 10*time.Second),
		RenderWithBrowser: getEnvBool("RENDER_WITH_BROWSER", false),
		BrowserSettle:     getEnvDuration("BROWSER_SETTLE", 3*time.Second),
		ChromeBin:         getEnv("CHROME_BIN", ""),

		CollectConcurrency: getEnvInt("COLLECT_CONCURRENCY", 1),
		ScheduleHour:       getEnvInt("SCHEDULE_HOUR", 6),
		ScrapeOnStart:      getEnvBool("SCRAPE_ON_START", true),
		JobQueueDepth:      getEnvInt("JOB_QUEUE_DEPTH", 4),
		HTTPAddr:           getEnv("HTTP_ADDR", ":10000"),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogJSON:       getEnvBool("LOG_JSON", false),
		FluentEnabled: getEnvBool("FLUENTBIT_ENABLED", false),
		FluentHost:    getEnv("FLUENTBIT_HOST", ""),
		FluentPort:    getEnvInt("FLUENTBIT_PORT", 24224),

		PostgresEnabled:  getEnvBool("POSTGRES_ENABLED", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "listings"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		MaxRetries:       getEnvInt("MAX_RETRIES", 5),

		RabbitMQURL:        getEnv("RABBITMQ_URL", ""),
		RabbitMQExchange:   getEnv("RABBITMQ_EXCHANGE", "listing-counts"),
		RabbitMQRoutingKey: getEnv("RABBITMQ_ROUTING_KEY", "cycle.completed"),
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
		log.Printf("[config] %s=%q is not an int, using %d", key, val, fallback)
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
		log.Printf("[config] %s=%q is not a bool, using %t", key, val, fallback)
	}
	return fallback
}

// getEnvDuration reads a Go duration ("10s", "1m30s"). A bare number is
// taken as milliseconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	if ms, err := strconv.Atoi(val); err == nil {
		if ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	} else if d, err := time.ParseDuration(val); err == nil && d > 0 {
		return d
	}
	log.Printf("[config] %s=%q is not a positive duration, using %v", key, val, fallback)
	return fallback
}
