package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "chromedp", cfg.Browser.Driver)
	assert.Equal(t, 3, cfg.Browser.MaxSessions)
	assert.Equal(t, "dian.search", cfg.NATS.Subject)
	assert.Empty(t, cfg.NATS.URL)
	assert.Zero(t, cfg.Cache.TTL)
	assert.Empty(t, cfg.RedisAddr())
	assert.Equal(t, 25*time.Second, cfg.DIAN.Timeouts.Navigation)
	assert.Equal(t, 120*time.Second, cfg.DIAN.Timeouts.Overall)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("PORT", "9090")
	t.Setenv("BROWSER_MAX_SESSIONS", "5")
	t.Setenv("BROWSER_DRIVER", "playwright")
	t.Setenv("REDIS_HOST", "cache.local")
	t.Setenv("CACHE_TTL", "10m")
	t.Setenv("DIAN_CHALLENGE_TIMEOUT", "45")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Browser.MaxSessions)
	assert.Equal(t, "playwright", cfg.Browser.Driver)
	assert.Equal(t, "cache.local:6379", cfg.RedisAddr())
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 45*time.Second, cfg.DIAN.Timeouts.ChallengePoll)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Security.CORS.AllowedOrigins)
}

func TestLoadYAMLFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlDoc := `
server:
  port: 7000
browser:
  max_sessions: 2
dian:
  mode: visible
  timeouts:
    navigation: 40s
nats:
  url: nats://localhost:4222
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("BROWSER_MAX_SESSIONS", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Browser.MaxSessions, "env wins over the file")
	assert.Equal(t, "visible", cfg.DIAN.Mode)
	assert.Equal(t, 40*time.Second, cfg.DIAN.Timeouts.Navigation)
	assert.Equal(t, 15*time.Second, cfg.DIAN.Timeouts.ElementWait, "unset keys keep defaults")
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	t.Run("driver", func(t *testing.T) {
		t.Setenv("BROWSER_DRIVER", "selenium")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("sessions", func(t *testing.T) {
		t.Setenv("BROWSER_MAX_SESSIONS", "0")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
		_, err := Load()
		assert.Error(t, err)
	})
}

func TestGetEnvAsDuration(t *testing.T) {
	t.Setenv("X_DURATION", "1500ms")
	assert.Equal(t, 1500*time.Millisecond, getEnvAsDuration("X_DURATION", time.Second))

	t.Setenv("X_DURATION", "7")
	assert.Equal(t, 7*time.Second, getEnvAsDuration("X_DURATION", time.Second))

	t.Setenv("X_DURATION", "soon")
	assert.Equal(t, time.Second, getEnvAsDuration("X_DURATION", time.Second))
}

func TestSearchConfig(t *testing.T) {
	cfg := Default()
	sc := cfg.SearchConfig()

	assert.True(t, sc.Profile.Headless)
	assert.Equal(t, "#DocumentKey", sc.Selectors.DocumentKey)
	assert.Equal(t, 20*time.Second, sc.Timeouts.ChallengePoll)
	assert.Equal(t, 50, sc.MinTokenLength)

	cfg.DIAN.Mode = "visible"
	cfg.Browser.UserAgent = "custom-agent"
	sc = cfg.SearchConfig()

	assert.False(t, sc.Profile.Headless)
	assert.Equal(t, "custom-agent", sc.Profile.UserAgent)
	assert.Equal(t, 30*time.Second, sc.Timeouts.ChallengePoll, "visible preset keeps its longer wait")
	assert.Equal(t, 150*time.Millisecond, sc.Interaction.KeyDelay)

	cfg.DIAN.Timeouts.ChallengePoll = 5 * time.Second
	assert.Equal(t, 5*time.Second, cfg.SearchConfig().Timeouts.ChallengePoll)
}
