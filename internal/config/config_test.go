package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Port:           "8370",
		JWTSecret:      "secure-secret-at-least-32-chars-long",
		DBPassword:     "secure-password",
		DBSSLMode:      "require",
		CacheLocalSize: 4096,
		CacheTimeoutMS: 250,
		DBTimeoutMS:    5000,
		Env:            "development",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{"valid development config", func(c *Config) {}, false},
		{"missing port", func(c *Config) { c.Port = "" }, true},
		{"missing jwt secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"zero cache size", func(c *Config) { c.CacheLocalSize = 0 }, true},
		{"zero cache timeout", func(c *Config) { c.CacheTimeoutMS = 0 }, true},
		{"zero db timeout", func(c *Config) { c.DBTimeoutMS = 0 }, true},
		{"production with default secret", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = "your-secret-key-change-in-production"
		}, true},
		{"production with short secret", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = "short"
		}, true},
		{"production with default db password", func(c *Config) {
			c.Env = "production"
			c.DBPassword = "password"
		}, true},
		{"valid production config", func(c *Config) { c.Env = "production" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	defer viper.Reset()
	t.Setenv("APP_ENV", "development")

	c, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8370", c.Port)
	assert.Equal(t, "localhost", c.DBHost)
	assert.Equal(t, "phora", c.DBName)
	assert.Equal(t, 4096, c.CacheLocalSize)
	assert.Equal(t, 250*time.Millisecond, c.CacheTimeout())
	assert.Equal(t, 5*time.Second, c.DBTimeout())
	assert.False(t, c.TracingEnabled)
	assert.Equal(t, "stdout", c.TracingExporter)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	defer viper.Reset()
	t.Setenv("APP_ENV", "development")
	t.Setenv("PORT", "9999")
	t.Setenv("CACHE_TIMEOUT_MS", "100")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "9999", c.Port)
	assert.Equal(t, 100*time.Millisecond, c.CacheTimeout())
}
