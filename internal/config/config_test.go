package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		cfg := Load()

		assert.Equal(t, "8080", cfg.Server.Port)
		assert.Equal(t, "portfolio", cfg.Database.DBName)
		assert.Equal(t, "https://www.alphavantage.co", cfg.QuoteFeed.BaseURL)
		assert.Equal(t, 10*time.Second, cfg.QuoteFeed.Timeout)
	})

	t.Run("reads environment overrides", func(t *testing.T) {
		t.Setenv("QUOTE_FEED_API_KEY", "secret")
		t.Setenv("QUOTE_FEED_TIMEOUT", "3s")
		t.Setenv("KAFKA_TOPIC", "quotes")

		cfg := Load()

		assert.Equal(t, "secret", cfg.QuoteFeed.APIKey)
		assert.Equal(t, 3*time.Second, cfg.QuoteFeed.Timeout)
		assert.Equal(t, "quotes", cfg.Kafka.Topic)
	})
}

func TestValidate(t *testing.T) {
	t.Run("rejects missing API key", func(t *testing.T) {
		cfg := Load()
		cfg.QuoteFeed.APIKey = ""

		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "QUOTE_FEED_API_KEY")
	})

	t.Run("accepts complete config", func(t *testing.T) {
		cfg := Load()
		cfg.QuoteFeed.APIKey = "secret"

		require.NoError(t, cfg.Validate())
	})
}
