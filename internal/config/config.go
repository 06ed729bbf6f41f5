package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	API     APIConfig
	Store   StoreConfig
	Log     LogConfig
	Device  DeviceConfig
	MockAPI MockAPIConfig
}

// APIConfig holds the backend connection settings.
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

type StoreConfig struct {
	Path string
}

// LogConfig holds logging configuration. The TUI owns stdout, so logs go to a file.
type LogConfig struct {
	File  string
	Level slog.Level
}

// DeviceConfig identifies this installation to the push service.
type DeviceConfig struct {
	Token string
}

// MockAPIConfig configures the development backend in cmd/mockapi.
type MockAPIConfig struct {
	Port           int
	JWTSecret      string
	TokenTTL       time.Duration
	AllowedOrigins []string
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	dataDir, err := DefaultDataDir()
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}

	config := &Config{}

	timeout, err := time.ParseDuration(getEnv("STAFFDESK_API_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid STAFFDESK_API_TIMEOUT: %w", err)
	}
	config.API = APIConfig{
		BaseURL: strings.TrimRight(getEnv("STAFFDESK_API_URL", "http://localhost:5000/api"), "/"),
		Timeout: timeout,
	}

	config.Store = StoreConfig{
		Path: getEnv("STAFFDESK_DB_PATH", filepath.Join(dataDir, "staffdesk.db")),
	}

	level, err := parseLevel(getEnv("STAFFDESK_LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	config.Log = LogConfig{
		File:  getEnv("STAFFDESK_LOG_FILE", filepath.Join(dataDir, "staffdesk.log")),
		Level: level,
	}

	config.Device = DeviceConfig{
		Token: getEnv("STAFFDESK_DEVICE_TOKEN", ""),
	}

	// Mock backend configuration
	port, err := strconv.Atoi(getEnv("MOCKAPI_PORT", "5000"))
	if err != nil {
		return nil, fmt.Errorf("invalid MOCKAPI_PORT: %w", err)
	}
	ttl, err := time.ParseDuration(getEnv("MOCKAPI_TOKEN_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid MOCKAPI_TOKEN_TTL: %w", err)
	}
	config.MockAPI = MockAPIConfig{
		Port:           port,
		JWTSecret:      getEnv("MOCKAPI_JWT_SECRET", "staffdesk-dev-secret"),
		TokenTTL:       ttl,
		AllowedOrigins: getEnvSlice("MOCKAPI_ALLOWED_ORIGINS"),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("STAFFDESK_API_URL must be an absolute URL, got %q", c.API.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("STAFFDESK_API_URL scheme must be http or https")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("STAFFDESK_API_TIMEOUT must be positive")
	}
	if c.Store.Path == "" {
		return fmt.Errorf("STAFFDESK_DB_PATH is required")
	}
	if c.MockAPI.Port <= 0 || c.MockAPI.Port > 65535 {
		return fmt.Errorf("MOCKAPI_PORT out of range")
	}
	if c.MockAPI.JWTSecret == "" {
		return fmt.Errorf("MOCKAPI_JWT_SECRET is required")
	}
	return nil
}

// DefaultDataDir returns ~/.config/staffdesk
func DefaultDataDir() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "staffdesk"), nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid STAFFDESK_LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	var result []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}
	return result
}
