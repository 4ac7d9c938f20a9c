package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Auth     AuthConfig
	Provider ProviderConfig
	Artifact ArtifactConfig
	Redis    RedisConfig
	Database DatabaseConfig
	S3       S3Config
	App      AppConfig
}

type ServerConfig struct {
	Port string
}

type AuthConfig struct {
	Token       string // bearer token expected on tool-surface calls
	PhoneNumber string // returned by the validate tool
}

type ProviderConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

type ArtifactConfig struct {
	BaseURL       string // public base URL for download links
	TTL           time.Duration
	SweepSchedule string // cron spec for the sweeper worker
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type DatabaseConfig struct {
	DSN string // optional; empty disables generation history
}

type S3Config struct {
	Bucket string // optional; empty keeps artifact bytes in Redis
	Region string
}

type AppConfig struct {
	Environment      string
	Version          string
	PipelineDeadline time.Duration
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8086"),
		},
		Auth: AuthConfig{
			Token:       getEnv("AUTH_TOKEN", ""),
			PhoneNumber: getEnv("MY_NUMBER", ""),
		},
		Provider: ProviderConfig{
			BaseURL: getEnv("PROVIDER_BASE_URL", "https://api.openai.com/v1"),
			APIKey:  getEnv("PROVIDER_API_KEY", os.Getenv("OPENAI_API_KEY")),
			Model:   getEnv("PROVIDER_MODEL", "gpt-4o"),
			Timeout: getEnvAsDuration("PROVIDER_TIMEOUT", 25*time.Second),
		},
		Artifact: ArtifactConfig{
			BaseURL:       getEnv("DOWNLOAD_BASE_URL", "http://localhost:8086"),
			TTL:           getEnvAsDuration("ARTIFACT_TTL", 24*time.Hour),
			SweepSchedule: getEnv("SWEEP_SCHEDULE", "0 */10 * * * *"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Database: DatabaseConfig{
			DSN: getEnv("DB_DSN", ""),
		},
		S3: S3Config{
			Bucket: getEnv("ARTIFACT_S3_BUCKET", ""),
			Region: getEnv("AWS_REGION", "us-east-1"),
		},
		App: AppConfig{
			Environment:      getEnv("APP_ENV", "development"),
			Version:          getEnv("APP_VERSION", "1.0.0"),
			PipelineDeadline: getEnvAsDuration("PIPELINE_DEADLINE", 30*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Provider.APIKey == "" {
		log.Println("Warning: PROVIDER_API_KEY not set, generation falls back to static templates")
	}
	if cfg.Database.DSN == "" {
		log.Println("Warning: DB_DSN not set, generation history is disabled")
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Auth.Token == "" {
		return fmt.Errorf("AUTH_TOKEN is required")
	}

	if c.Redis.Addr == "" {
		return fmt.Errorf("REDIS_ADDR is required")
	}

	if c.Artifact.TTL <= 0 {
		return fmt.Errorf("ARTIFACT_TTL must be positive")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}
