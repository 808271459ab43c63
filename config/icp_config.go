package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// generateWorkerID creates a unique consumer name using hostname and PID
func generateWorkerID() string {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "worker"
	}
	return fmt.Sprintf("%s-%d", hostname, os.Getpid())
}

type Config struct {
	Port        string
	Environment string

	// Database
	DatabaseURL string
	MongoDBURL  string
	MongoDBName string
	RedisURL    string

	// JWT
	JWTSecret string

	// Worker
	WorkerID        string
	WorkerCount     int
	WorkerQueueSize int

	// Consumer (Redis Stream)
	ConsumerBatchSize int
	ConsumerBlockMS   int

	// Scoring
	ScoringWorkers       int           // in-job concurrency for per-prospect scoring
	ScoringChunkSize     int           // persistence chunk size
	ScoringSyncThreshold int           // batches at or below run inline
	ScoringMaxAttempts   int           // job retry ceiling
	SweepInterval        time.Duration // change-detection sweep interval
	SweepEnabled         bool

	// Rate limiting (manual score triggers)
	TriggerRateLimit  int
	TriggerRateWindow time.Duration

	// Slack
	SlackWebhookURL string

	// CORS
	AllowedOrigins []string
}

func Load() (*Config, error) {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", ""),
		MongoDBURL:  getEnv("MONGODB_URL", ""),
		MongoDBName: getEnv("MONGODB_DATABASE", "icp"),
		RedisURL:    getEnv("REDIS_URL", ""),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", ""),

		// Worker
		WorkerID:        getEnv("WORKER_ID", generateWorkerID()),
		WorkerCount:     getEnvInt("WORKER_COUNT", 8),
		WorkerQueueSize: getEnvInt("WORKER_QUEUE_SIZE", 1000),

		// Consumer
		ConsumerBatchSize: getEnvInt("CONSUMER_BATCH_SIZE", 10),
		ConsumerBlockMS:   getEnvInt("CONSUMER_BLOCK_MS", 5000),

		// Scoring
		ScoringWorkers:       getEnvInt("SCORING_WORKERS", 5),
		ScoringChunkSize:     getEnvInt("SCORING_CHUNK_SIZE", 50),
		ScoringSyncThreshold: getEnvInt("SCORING_SYNC_THRESHOLD", 50),
		ScoringMaxAttempts:   getEnvInt("SCORING_MAX_ATTEMPTS", 3),
		SweepInterval:        time.Duration(getEnvInt("SWEEP_INTERVAL_SEC", 300)) * time.Second,
		SweepEnabled:         getEnvBool("SWEEP_ENABLED", true),

		// Rate limiting
		TriggerRateLimit:  getEnvInt("TRIGGER_RATE_LIMIT", 10),
		TriggerRateWindow: time.Duration(getEnvInt("TRIGGER_RATE_WINDOW_SEC", 60)) * time.Second,

		// Slack
		SlackWebhookURL: getEnv("SLACK_WEBHOOK_URL", ""),

		// CORS
		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
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

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
