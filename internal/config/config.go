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
	Database DatabaseConfig
	Server   ServerConfig
	App      AppConfig
	Chain    ChainConfig
	Log      LogConfig
	Jobs     JobsConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port string
}

// AppConfig holds application-specific settings
type AppConfig struct {
	JWTSecret string
}

// ChainConfig holds settings for the read-only contract RPC accessor
type ChainConfig struct {
	RPCURL          string
	AuctionContract string
	RequestTimeout  time.Duration
}

// LogConfig holds logger settings
type LogConfig struct {
	Level    string
	Encoding string
}

// JobsConfig holds background job settings
type JobsConfig struct {
	// ReconcileSpec is a cron expression; empty disables the sweep.
	ReconcileSpec string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "nft_marketplace"),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
		App: AppConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Chain: ChainConfig{
			RPCURL:          getEnv("CHAIN_RPC_URL", ""),
			AuctionContract: getEnv("AUCTION_CONTRACT_ADDRESS", ""),
			RequestTimeout:  getEnvSeconds("CHAIN_RPC_TIMEOUT_SECONDS", 10*time.Second),
		},
		Log: LogConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			Encoding: getEnv("LOG_ENCODING", "json"),
		},
		Jobs: JobsConfig{
			ReconcileSpec: getEnv("RECONCILE_CRON", ""),
		},
	}

	// Validate required fields
	if config.App.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if config.Chain.RPCURL == "" {
		return nil, fmt.Errorf("CHAIN_RPC_URL is required")
	}

	if config.Chain.AuctionContract == "" {
		return nil, fmt.Errorf("AUCTION_CONTRACT_ADDRESS is required")
	}

	return config, nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvSeconds gets a duration expressed in whole seconds with a fallback
func getEnvSeconds(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	secs, err := strconv.Atoi(value)
	if err != nil || secs <= 0 {
		return defaultValue
	}
	return time.Duration(secs) * time.Second
}
