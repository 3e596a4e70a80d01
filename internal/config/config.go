package config

import (
	"os"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the service
type Config struct {
	// Server
	Port        string
	Environment string

	// Completion service
	ModelAPIURL        string
	ModelAPIKey        string
	CompletionProvider string
	CompletionModel    string
	CompletionTimeout  time.Duration

	// Formatters
	FormattersFile       string
	JavaFormatterJar     string
	FormatterTimeout     time.Duration
	FormatterConcurrency int

	// Optional infrastructure
	RedisURL     string
	NATSURL      string
	OTLPEndpoint string

	// Security
	JWTSecret          string
	RateLimitPerMinute int
}

// ErrMissing is wrapped by Load for every required variable that is not set
var ErrMissing = errors.New("required environment variable not set")

// Load reads configuration from environment variables. In development a .env
// file in the working directory is read first; real environment values win.
func Load() (*Config, error) {
	env := getEnv("GO_ENV", "development")
	if env == "development" {
		// a missing .env is fine
		_ = godotenv.Load()
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8000"),
		Environment: env,

		ModelAPIURL:        os.Getenv("MODEL_API_URL"),
		ModelAPIKey:        os.Getenv("MODEL_API_KEY"),
		CompletionProvider: getEnv("COMPLETION_PROVIDER", "http"),
		CompletionModel:    getEnv("COMPLETION_MODEL", "gpt-3.5-turbo-instruct"),
		CompletionTimeout:  getDuration("COMPLETION_TIMEOUT", 60*time.Second),

		FormattersFile:       os.Getenv("FORMATTERS_FILE"),
		JavaFormatterJar:     getEnv("JAVA_FORMATTER_JAR", "backend/google-java-format-1.15.0-all-deps.jar"),
		FormatterTimeout:     getDuration("FORMATTER_TIMEOUT", 10*time.Second),
		FormatterConcurrency: getInt("FORMATTER_CONCURRENCY", 4),

		RedisURL:     os.Getenv("REDIS_URL"),
		NATSURL:      os.Getenv("NATS_URL"),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),

		JWTSecret:          os.Getenv("JWT_SECRET"),
		RateLimitPerMinute: getInt("RATE_LIMIT_PER_MINUTE", 20),
	}

	if cfg.ModelAPIURL == "" {
		return nil, errors.Wrap(ErrMissing, "MODEL_API_URL")
	}
	if cfg.ModelAPIKey == "" {
		return nil, errors.Wrap(ErrMissing, "MODEL_API_KEY")
	}

	return cfg, nil
}

// IsProduction reports whether the service runs with production settings
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
