package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all remote store configuration.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Logger     LoggerConfig
	Auth       AuthConfig
	S3         S3Config
	Promotions PromotionConfig
	Redis      RedisConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
	AutoMigrate     bool
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// AuthConfig holds bearer token configuration.
type AuthConfig struct {
	JWTSecret string
	JWTIssuer string
	TokenTTL  time.Duration
}

// S3Config holds AWS S3 configuration for promotion files.
type S3Config struct {
	Enabled bool
	Bucket  string
	Region  string
	Prefix  string // Path prefix within bucket (e.g., "promotions/")
}

// PromotionConfig lists provisioned promotion rule files.
type PromotionConfig struct {
	FilePaths []string
}

// RedisConfig holds the stats cache configuration. An empty URL disables caching.
type RedisConfig struct {
	URL      string
	StatsTTL time.Duration
}

// Load loads server configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "caffinity"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 25),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 5),
			MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
			AutoMigrate:     getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			JWTIssuer: getEnv("JWT_ISSUER", "caffinity"),
			TokenTTL:  getEnvAsDuration("JWT_TTL", 24*time.Hour),
		},
		S3: S3Config{
			Enabled: getEnvAsBool("S3_ENABLED", false),
			Bucket:  getEnv("S3_BUCKET", ""),
			Region:  getEnv("S3_REGION", "ap-southeast-3"),
			Prefix:  getEnv("S3_PREFIX", "promotions/"),
		},
		Promotions: PromotionConfig{
			FilePaths: getEnvAsList("PROMOTION_FILES", nil),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", ""),
			StatsTTL: getEnvAsDuration("STATS_CACHE_TTL", time.Minute),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}

	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.Database.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.Database.MinConnections > c.Database.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if c.Auth.JWTIssuer == "" {
		return fmt.Errorf("JWT issuer is required")
	}

	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("JWT ttl must be positive")
	}

	if err := c.Logger.Validate(); err != nil {
		return err
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when S3 is enabled")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("S3 region is required when S3 is enabled")
		}
	}

	if c.Redis.URL != "" && c.Redis.StatsTTL <= 0 {
		return fmt.Errorf("stats cache ttl must be positive")
	}

	return nil
}

// Validate validates the logger configuration.
func (c *LoggerConfig) Validate() error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Level)
	}

	if c.Format != "json" && c.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Format)
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ClientConfig holds configuration for the shopper client.
type ClientConfig struct {
	BaseURL            string
	Timeout            time.Duration
	DeliveryAddress    string
	AccessToken        string
	BreakerFailures    int
	BreakerOpenTimeout time.Duration
	Logger             LoggerConfig
}

// LoadClient loads shopper client configuration from environment variables.
func LoadClient() (*ClientConfig, error) {
	cfg := &ClientConfig{
		BaseURL:            getEnv("CAFFINITY_URL", "http://localhost:8080"),
		Timeout:            getEnvAsDuration("CAFFINITY_TIMEOUT", 10*time.Second),
		DeliveryAddress:    getEnv("DELIVERY_ADDRESS", "Jl. Contoh No. 1, Jakarta"),
		AccessToken:        getEnv("CAFFINITY_TOKEN", ""),
		BreakerFailures:    getEnvAsInt("BREAKER_FAILURES", 5),
		BreakerOpenTimeout: getEnvAsDuration("BREAKER_OPEN_TIMEOUT", 30*time.Second),
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "warn"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the client configuration.
func (c *ClientConfig) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid store url: %q", c.BaseURL)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("client timeout must be positive")
	}

	if strings.TrimSpace(c.DeliveryAddress) == "" {
		return fmt.Errorf("delivery address is required")
	}

	if c.BreakerFailures < 1 {
		return fmt.Errorf("breaker failures must be at least 1")
	}

	return c.Logger.Validate()
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration retrieves an environment variable as a time.Duration or returns a default value.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsList retrieves a comma-separated environment variable or returns a default value.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
