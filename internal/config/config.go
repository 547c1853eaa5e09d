// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrConfigMissing is returned when a required variable is unset or empty.
var ErrConfigMissing = errors.New("required configuration missing")

// Storage drivers accepted by STORAGE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	LoginEmail    string
	LoginPassword string

	SyncInterval time.Duration
	SyncSchedule string // Cron expression; overrides SyncInterval when set.

	StorageDriver string
	Postgres      PostgresConfig
	SQLitePath    string

	LoginURL         string
	LoginSuccessPath string
	APIBaseURL       string
	LoginTimeout     time.Duration
	HTTPTimeout      time.Duration
	BrowserHeadless  bool
	ChromePath       string

	ListenAddr string // Empty disables the HTTP server.
	LogLevel   slog.Level
	LogFormat  string
}

// PostgresConfig holds the connection parameters for the Postgres store.
type PostgresConfig struct {
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
}

// DSN returns a postgres:// connection URL for the pgx driver.
func (p PostgresConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     net.JoinHostPort(p.Host, strconv.Itoa(p.Port)),
		Path:     "/" + p.Name,
		RawQuery: url.Values{"sslmode": []string{p.SSLMode}}.Encode(),
	}
	return u.String()
}

// Load reads configuration from environment variables and returns a validated Config.
// LOGIN_EMAIL and LOGIN_PASSWORD are required. Everything else has a default:
// SYNC_INTERVAL_MINUTES (5), STORAGE_DRIVER (postgres), DB_HOST (localhost),
// DB_PORT (5432), DB_NAME/DB_USER/DB_PASSWORD (whoop), DB_SSLMODE (disable),
// SQLITE_PATH (heartsync.db), LOGIN_TIMEOUT (90s), HTTP_TIMEOUT (30s),
// BROWSER_HEADLESS (true), LISTEN_ADDR (127.0.0.1:8080), LOG_LEVEL (info),
// LOG_FORMAT (text).
func Load() (*Config, error) {
	email, err := required("LOGIN_EMAIL")
	if err != nil {
		return nil, err
	}
	password, err := required("LOGIN_PASSWORD")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		LoginEmail:    email,
		LoginPassword: password,
		SyncInterval:  5 * time.Minute,
		SyncSchedule:  strings.TrimSpace(os.Getenv("SYNC_SCHEDULE")),
		StorageDriver: DriverPostgres,
		Postgres: PostgresConfig{
			Host:     stringOr("DB_HOST", "localhost"),
			Port:     5432,
			Name:     stringOr("DB_NAME", "whoop"),
			User:     stringOr("DB_USER", "whoop"),
			Password: stringOr("DB_PASSWORD", "whoop"),
			SSLMode:  stringOr("DB_SSLMODE", "disable"),
		},
		SQLitePath:       stringOr("SQLITE_PATH", "heartsync.db"),
		LoginURL:         stringOr("LOGIN_URL", "https://app.whoop.com"),
		LoginSuccessPath: stringOr("LOGIN_SUCCESS_PATH", "/athlete/"),
		APIBaseURL:       stringOr("API_BASE_URL", "https://api.prod.whoop.com"),
		LoginTimeout:     90 * time.Second,
		HTTPTimeout:      30 * time.Second,
		BrowserHeadless:  true,
		ChromePath:       os.Getenv("CHROME_PATH"),
		ListenAddr:       "127.0.0.1:8080",
		LogLevel:         slog.LevelInfo,
		LogFormat:        "text",
	}

	if v, ok := os.LookupEnv("SYNC_INTERVAL_MINUTES"); ok && v != "" {
		minutes, err := strconv.Atoi(v)
		if err != nil || minutes <= 0 {
			return nil, fmt.Errorf("SYNC_INTERVAL_MINUTES must be a positive integer, got %q", v)
		}
		cfg.SyncInterval = time.Duration(minutes) * time.Minute
	}

	if v, ok := os.LookupEnv("STORAGE_DRIVER"); ok {
		switch driver := strings.ToLower(strings.TrimSpace(v)); driver {
		case DriverPostgres, DriverSQLite:
			cfg.StorageDriver = driver
		default:
			return nil, fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, v)
		}
	}

	if v, ok := os.LookupEnv("DB_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return nil, fmt.Errorf("DB_PORT has invalid port %q", v)
		}
		cfg.Postgres.Port = port
	}

	if cfg.LoginTimeout, err = durationOr("LOGIN_TIMEOUT", cfg.LoginTimeout); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = durationOr("HTTP_TIMEOUT", cfg.HTTPTimeout); err != nil {
		return nil, err
	}

	if v, ok := os.LookupEnv("BROWSER_HEADLESS"); ok {
		headless, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("BROWSER_HEADLESS has invalid boolean %q: %w", v, err)
		}
		cfg.BrowserHeadless = headless
	}

	if v, ok := os.LookupEnv("LISTEN_ADDR"); ok {
		cfg.ListenAddr = v
	}

	if v, ok := os.LookupEnv("LOG_LEVEL"); ok && v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return nil, fmt.Errorf("LOG_LEVEL has invalid level %q: %w", v, err)
		}
	}

	if v, ok := os.LookupEnv("LOG_FORMAT"); ok && v != "" {
		switch format := strings.ToLower(v); format {
		case "text", "json":
			cfg.LogFormat = format
		default:
			return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", v)
		}
	}

	return cfg, nil
}

func required(key string) (string, error) {
	v := os.Getenv(key)
	if v == "" {
		return "", fmt.Errorf("%s: %w", key, ErrConfigMissing)
	}
	return v, nil
}

func stringOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s has invalid duration %q: %w", key, v, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, d)
	}
	return d, nil
}
