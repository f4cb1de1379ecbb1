package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:                 "development",
		JWTSecret:           "secure-secret-at-least-32-chars-long",
		Port:                "8080",
		DBDriver:            DBDriverSQLite,
		DBPassword:          "secure-password",
		DebateStore:         DebateStoreMemory,
		TracingSamplerRatio: 1,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"Valid development", func(_ *Config) {}, false},
		{"Missing port", func(c *Config) { c.Port = "" }, true},
		{"Missing secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"Unknown driver", func(c *Config) { c.DBDriver = "mysql" }, true},
		{"Unknown store", func(c *Config) { c.DebateStore = "disk" }, true},
		{"Sampler out of range", func(c *Config) { c.TracingSamplerRatio = 1.5 }, true},
		{"Production default secret", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = defaultJWTSecret
		}, true},
		{"Production short secret", func(c *Config) {
			c.Env = "prod"
			c.JWTSecret = "short"
		}, true},
		{"Production postgres weak password", func(c *Config) {
			c.Env = "production"
			c.DBDriver = DBDriverPostgres
			c.DBPassword = "password"
		}, true},
		{"Production sqlite ignores db password", func(c *Config) {
			c.Env = "production"
			c.DBPassword = ""
		}, false},
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

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("PORT", "9999")
	t.Setenv("DEBATE_STORE", DebateStoreDatabase)
	t.Setenv("LEADERBOARD_CACHE_TTL", "2m")
	t.Setenv("BANNED_WORDS", "rude, mean")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "9999", c.Port)
	assert.Equal(t, DebateStoreDatabase, c.DebateStore)
	assert.Equal(t, 2*time.Minute, c.LeaderboardCacheTTL)
	assert.Equal(t, []string{"rude", " mean"}, c.BannedWordList())
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DBDriverSQLite, c.DBDriver)
	assert.Equal(t, DebateStoreMemory, c.DebateStore)
	assert.Equal(t, 30*time.Second, c.LeaderboardCacheTTL)
	assert.Equal(t, "stupid,idiot,dumb", c.BannedWords)
}
