package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STAFFDESK_API_URL", "")
	t.Setenv("STAFFDESK_API_TIMEOUT", "")
	t.Setenv("STAFFDESK_LOG_LEVEL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5000/api", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, slog.LevelInfo, cfg.Log.Level)
	assert.NotEmpty(t, cfg.Store.Path)
	assert.Equal(t, 5000, cfg.MockAPI.Port)
	assert.Equal(t, 24*time.Hour, cfg.MockAPI.TokenTTL)
}

func TestLoadFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STAFFDESK_API_URL", "https://hr.example.com/api/")
	t.Setenv("STAFFDESK_API_TIMEOUT", "3s")
	t.Setenv("STAFFDESK_LOG_LEVEL", "debug")
	t.Setenv("STAFFDESK_DEVICE_TOKEN", "fcm-123")
	t.Setenv("MOCKAPI_ALLOWED_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://hr.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, slog.LevelDebug, cfg.Log.Level)
	assert.Equal(t, "fcm-123", cfg.Device.Token)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.MockAPI.AllowedOrigins)
}

func TestLoadInvalid(t *testing.T) {
	cases := map[string]string{
		"STAFFDESK_API_TIMEOUT": "soon",
		"STAFFDESK_LOG_LEVEL":   "loud",
		"MOCKAPI_PORT":          "http",
		"STAFFDESK_API_URL":     "not a url",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		API:     APIConfig{BaseURL: "http://localhost:5000/api", Timeout: time.Second},
		Store:   StoreConfig{Path: "/tmp/x.db"},
		MockAPI: MockAPIConfig{Port: 5000, JWTSecret: "s"},
	}
	require.NoError(t, valid.Validate())

	noScheme := valid
	noScheme.API.BaseURL = "ftp://host/api"
	assert.Error(t, noScheme.Validate())

	noTimeout := valid
	noTimeout.API.Timeout = 0
	assert.Error(t, noTimeout.Validate())

	noSecret := valid
	noSecret.MockAPI.JWTSecret = ""
	assert.Error(t, noSecret.Validate())
}
