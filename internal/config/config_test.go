package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Port:           "8390",
			JWTSecret:      "secure-secret-at-least-32-chars-long",
			JWTExpiryHours: 168,
			DBPassword:     "secure-password",
			DBSSLMode:      "require",
			Env:            "development",
		}
	}

	t.Run("Valid Development Config", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("Missing Port", func(t *testing.T) {
		c := base()
		c.Port = ""
		assert.Error(t, c.Validate())
	})

	t.Run("Missing JWT Secret", func(t *testing.T) {
		c := base()
		c.JWTSecret = ""
		assert.Error(t, c.Validate())
	})

	t.Run("Non Positive Expiry", func(t *testing.T) {
		c := base()
		c.JWTExpiryHours = 0
		assert.Error(t, c.Validate())
	})

	t.Run("Production Rejects Default Secret", func(t *testing.T) {
		c := base()
		c.Env = "production"
		c.JWTSecret = "your-secret-key-change-in-production"
		assert.Error(t, c.Validate())
	})

	t.Run("Production Rejects Short Secret", func(t *testing.T) {
		c := base()
		c.Env = "production"
		c.JWTSecret = "short"
		assert.Error(t, c.Validate())
	})

	t.Run("Production Rejects Weak DB Password", func(t *testing.T) {
		c := base()
		c.Env = "prod"
		c.DBPassword = "password"
		assert.Error(t, c.Validate())
	})

	t.Run("Development Tolerates Short Secret", func(t *testing.T) {
		c := base()
		c.JWTSecret = "dev-secret"
		assert.NoError(t, c.Validate())
	})
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("APP_ENV", "test")

	c, err := LoadConfig()
	assert.NoError(t, err)
	assert.Equal(t, "8390", c.Port)
	assert.Equal(t, 168, c.JWTExpiryHours)
	assert.Equal(t, "aimarket", c.DBName)
	assert.Equal(t, "stdout", c.TracingExporter)
	assert.False(t, c.TracingEnabled)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("APP_ENV", "test")
	t.Setenv("PORT", "9000")
	t.Setenv("JWT_EXPIRY_HOURS", "24")

	c, err := LoadConfig()
	assert.NoError(t, err)
	assert.Equal(t, "9000", c.Port)
	assert.Equal(t, 24, c.JWTExpiryHours)
}
