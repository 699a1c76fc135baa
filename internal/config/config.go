package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	ServerPort      string
	DatabaseType    string
	DatabasePath    string
	DatabaseURL     string
	MigrationsPath  string
	SessionDuration time.Duration
	JWTSecret       string

	// Quiz attempts
	AttemptIdleTimeout time.Duration
	CatalogSeedPath    string
	MediaManifestPath  string
	MediaBaseURL       string
	MediaDir           string
	HistoryDir         string

	// Redis (catalog cache, offline history). Empty address disables it.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CatalogTTL    time.Duration

	// RabbitMQ session events. Empty URL disables publishing.
	RabbitMQURL    string
	SessionEventsQ string

	// MinIO media presigning. Empty endpoint serves MediaBaseURL links.
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MediaURLTTL    time.Duration

	// Email (Amazon SES)
	AWSRegion    string
	SESFromEmail string
	SESFromName  string
	AppBaseURL   string
	EmailDebug   bool

	// OAuth
	GoogleClientID       string
	GoogleClientSecret   string
	OAuthRedirectBaseURL string
	AppRedirectURL       string
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		ServerPort:      getEnv("PORT", "8080"),
		DatabaseType:    getEnv("DATABASE_TYPE", "sqlite"),
		DatabasePath:    getEnv("DB_PATH", "./cardquiz.db"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		MigrationsPath:  getEnv("MIGRATIONS_PATH", "./migrations"),
		SessionDuration: getEnvDuration("SESSION_DURATION", 7*24*time.Hour),
		JWTSecret:       getEnv("JWT_SECRET", "change-me-in-production"),

		AttemptIdleTimeout: getEnvDuration("ATTEMPT_IDLE_TIMEOUT", 30*time.Minute),
		CatalogSeedPath:    getEnv("CATALOG_SEED_PATH", "./data/quizzes"),
		MediaManifestPath:  getEnv("MEDIA_MANIFEST_PATH", "./data/media_manifest.json"),
		MediaBaseURL:       getEnv("MEDIA_BASE_URL", "/media"),
		MediaDir:           getEnv("MEDIA_DIR", "./data/media"),
		HistoryDir:         getEnv("HISTORY_DIR", "./data/history"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CatalogTTL:    getEnvDuration("CATALOG_CACHE_TTL", 10*time.Minute),

		RabbitMQURL:    getEnv("RABBITMQ_URL", ""),
		SessionEventsQ: getEnv("SESSION_EVENTS_QUEUE", "quiz.session.closed"),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "quiz-media"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),
		MediaURLTTL:    getEnvDuration("MEDIA_URL_TTL", time.Hour),

		AWSRegion:    getEnv("AWS_REGION", "us-east-1"),
		SESFromEmail: getEnv("SES_FROM_EMAIL", ""),
		SESFromName:  getEnv("SES_FROM_NAME", "cARd"),
		AppBaseURL:   getEnv("APP_BASE_URL", "http://localhost:8080"),
		EmailDebug:   getEnvBool("EMAIL_DEBUG", false),

		GoogleClientID:       getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:   getEnv("GOOGLE_CLIENT_SECRET", ""),
		OAuthRedirectBaseURL: getEnv("OAUTH_REDIRECT_BASE_URL", ""),
		AppRedirectURL:       getEnv("APP_REDIRECT_URL", ""),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return defaultValue
	}
}

// getEnvDuration accepts Go duration syntax ("90s", "2h").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
