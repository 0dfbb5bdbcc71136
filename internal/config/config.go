// Package config provides configuration management for the truth market
// service. It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Ledger    LedgerConfig
	Verify    VerifyConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string
	Port string
}

// StorageConfig selects and configures the record store backend
type StorageConfig struct {
	// Backend is "postgres" or "memory". Memory mode is for demos and tests
	// only; it keeps the same atomic-increment contract as Postgres.
	Backend  string
	Postgres PostgresConfig
	Redis    RedisConfig
	CacheTTL time.Duration
}

// PostgresConfig holds Postgres configuration
type PostgresConfig struct {
	Host           string
	Port           string
	Database       string
	User           string
	Password       string
	MaxConnections int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host           string
	Port           string
	Password       string
	DB             int
	MaxConnections int
}

// LedgerConfig holds Hedera gateway configuration. The gateway is the
// external service that owns the operator signing key; this process only
// talks HTTP to it.
type LedgerConfig struct {
	GatewayURL string
	// TreasuryAccount is the platform operator account, the default seller
	// and fee recipient.
	TreasuryAccount string
	// TopicID is the HCS topic used for best-effort audit appends.
	TopicID string
	// BadgeTokenID is the NFT collection for membership badges. Empty means
	// minting is unavailable and badges fall back to demo records.
	BadgeTokenID string
	// RegistryContract enables the agent-proof gate when set.
	RegistryContract string
	TruthAgentID     string
	Timeout          time.Duration
}

// VerifyConfig holds AI verification configuration. An empty APIKey disables
// the external call entirely and routes all claims through the local fallback
// classifier.
type VerifyConfig struct {
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// RateLimitConfig holds per-account rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// .env file is optional - environment variables can be set directly
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "3002"),
		},
		Storage: StorageConfig{
			Backend: getEnv("STORAGE_BACKEND", "postgres"),
			Postgres: PostgresConfig{
				Host:           getEnv("POSTGRES_HOST", "localhost"),
				Port:           getEnv("POSTGRES_PORT", "5432"),
				Database:       getEnv("POSTGRES_DB", "truth_market"),
				User:           getEnv("POSTGRES_USER", "truth"),
				Password:       getEnv("POSTGRES_PASSWORD", ""),
				MaxConnections: getEnvAsInt("POSTGRES_MAX_CONNECTIONS", 50),
			},
			Redis: RedisConfig{
				Host:           getEnv("REDIS_HOST", "localhost"),
				Port:           getEnv("REDIS_PORT", "6379"),
				Password:       getEnv("REDIS_PASSWORD", ""),
				DB:             getEnvAsInt("REDIS_DB", 0),
				MaxConnections: getEnvAsInt("REDIS_MAX_CONNECTIONS", 20),
			},
			CacheTTL: getEnvAsDuration("CACHE_TTL", 10*time.Minute),
		},
		Ledger: LedgerConfig{
			GatewayURL:       getEnv("HEDERA_GATEWAY_URL", "http://localhost:7546"),
			TreasuryAccount:  getEnv("OPERATOR_ID", ""),
			TopicID:          getEnv("TOPIC_ID", ""),
			BadgeTokenID:     getEnv("BADGE_TOKEN_ID", ""),
			RegistryContract: getEnv("AGENT_REGISTRY_CONTRACT", ""),
			TruthAgentID:     getEnv("TRUTH_AGENT_ID", "truth-agent"),
			Timeout:          getEnvAsDuration("HEDERA_TIMEOUT", 15*time.Second),
		},
		Verify: VerifyConfig{
			APIKey:   getEnv("GROQ_API_KEY", ""),
			Model:    getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
			BaseURL:  getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
			Timeout:  getEnvAsDuration("VERIFY_TIMEOUT", 20*time.Second),
			CacheTTL: getEnvAsDuration("VERIFY_CACHE_TTL", time.Hour),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvAsInt("RATE_LIMIT_RPS", 25),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 10),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return config, nil
}

// PostgresURL builds a database URL for the migration tooling
func (c *PostgresConfig) PostgresURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
