package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported database drivers
const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite3"
)

// Config holds all configuration for the initializer
type Config struct {
	Environment string
	LogLevel    string
	LogFormat   string
	// SecretName identifies the Secrets Manager secret holding the database credentials.
	// An empty value is accepted and fails at resolution time.
	SecretName string
	Script     string
	AWS        AWSConfig
	Database   DatabaseConfig
	Server     ServerConfig
}

// AWSConfig holds AWS client configuration
type AWSConfig struct {
	Region   string
	Endpoint string
	// RetryAttempts bounds secret lookups when the store is unavailable; 1 disables retries
	RetryAttempts int
}

// DatabaseConfig holds the connection options that do not come from the secret
type DatabaseConfig struct {
	Driver         string
	SSLMode        string
	ConnectTimeout time.Duration
}

// ServerConfig holds configuration for the local invocation server
type ServerConfig struct {
	Port           string
	RateLimitRPS   float64
	RateLimitBurst int
}

// Load loads configuration from environment variables and an optional .env file
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("INIT_SCRIPT", "000001_create_db_user")
	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_SSL_MODE", "prefer")
	v.SetDefault("DB_CONNECT_TIMEOUT", "10s")
	v.SetDefault("PORT", "8081")
	v.SetDefault("RATE_LIMIT_RPS", 5.0)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("SECRET_RETRY_ATTEMPTS", 1)

	config := &Config{
		Environment: v.GetString("ENVIRONMENT"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		LogFormat:   v.GetString("LOG_FORMAT"),
		SecretName:  v.GetString("SECRET_NAME"),
		Script:      v.GetString("INIT_SCRIPT"),
		AWS: AWSConfig{
			Region:        v.GetString("AWS_REGION"),
			Endpoint:      v.GetString("AWS_ENDPOINT_URL_SECRETS_MANAGER"),
			RetryAttempts: v.GetInt("SECRET_RETRY_ATTEMPTS"),
		},
		Database: DatabaseConfig{
			Driver:         v.GetString("DB_DRIVER"),
			SSLMode:        v.GetString("DB_SSL_MODE"),
			ConnectTimeout: v.GetDuration("DB_CONNECT_TIMEOUT"),
		},
		Server: ServerConfig{
			Port:           v.GetString("PORT"),
			RateLimitRPS:   v.GetFloat64("RATE_LIMIT_RPS"),
			RateLimitBurst: v.GetInt("RATE_LIMIT_BURST"),
		},
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	switch c.Database.SSLMode {
	case "disable", "allow", "prefer", "require", "verify-ca", "verify-full":
	default:
		return fmt.Errorf("unsupported ssl mode: %s", c.Database.SSLMode)
	}

	if c.Database.ConnectTimeout <= 0 {
		return fmt.Errorf("database connect timeout must be positive")
	}

	if c.AWS.RetryAttempts < 1 {
		return fmt.Errorf("secret retry attempts must be at least 1")
	}

	if c.Script == "" {
		return fmt.Errorf("init script name cannot be empty")
	}

	if c.Server.RateLimitRPS <= 0 || c.Server.RateLimitBurst < 1 {
		return fmt.Errorf("rate limit must allow at least one request")
	}

	return nil
}

// GetEnv gets an environment variable with a fallback value
func GetEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// GetEnvAsBool gets an environment variable as boolean with a fallback value
func GetEnvAsBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}
