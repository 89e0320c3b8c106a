package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	QuoteFeed QuoteFeedConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
	Host string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds the quote cache configuration
type RedisConfig struct {
	Addr string
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// QuoteFeedConfig holds the market data provider configuration
type QuoteFeedConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "portfolio"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr: getEnv("REDIS_ADDR", "localhost:6379"),
		},
		Kafka: KafkaConfig{
			Brokers: []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			Topic:   getEnv("KAFKA_TOPIC", "portfolio-events"),
		},
		QuoteFeed: QuoteFeedConfig{
			APIKey:  os.Getenv("QUOTE_FEED_API_KEY"),
			BaseURL: getEnv("QUOTE_FEED_BASE_URL", "https://www.alphavantage.co"),
			Timeout: getDuration("QUOTE_FEED_TIMEOUT", 10*time.Second),
		},
	}
}

// Validate checks settings that must be caught at startup rather than
// surfaced per request. A missing feed API key is a deployment
// mistake, not a quote failure.
func (c *Config) Validate() error {
	if c.QuoteFeed.APIKey == "" {
		return fmt.Errorf("QUOTE_FEED_API_KEY is required")
	}
	if c.QuoteFeed.BaseURL == "" {
		return fmt.Errorf("QUOTE_FEED_BASE_URL must not be empty")
	}
	return nil
}

// ConnectionString returns the PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.DBName + "?sslmode=" + d.SSLMode
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
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
