package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration. Field tags name the koanf keys,
// which are the lower-cased environment variable names.
type Config struct {
	// Spreadsheet sources. Either a Google Sheets share link or a local .csv/.xlsx path.
	SheetURL   string `koanf:"sheet_url"`
	EntriesURL string `koanf:"entries_url"`

	// Contest site used by the entry-count scraper.
	BlackoutURL string `koanf:"blackout_url"`
	SigninURL   string `koanf:"signin_url"`
	Email       string `koanf:"email"`
	Password    string `koanf:"password"`

	DataDir     string        `koanf:"data_dir"`
	Year        int           `koanf:"year"`
	MaxWeek     int           `koanf:"max_week"`
	WaitTimeout time.Duration `koanf:"wait_timeout"`
	MaxRetries  int           `koanf:"max_retries"`
	RateLimitMs int           `koanf:"rate_limit_ms"`
	ChromeBin   string        `koanf:"chrome_bin"`
	Headless    bool          `koanf:"headless"`

	PostgresHost     string `koanf:"postgres_host"`
	PostgresPort     string `koanf:"postgres_port"`
	PostgresUser     string `koanf:"postgres_user"`
	PostgresPassword string `koanf:"postgres_password"`
	PostgresDB       string `koanf:"postgres_db"`
	PostgresSSLMode  string `koanf:"postgres_sslmode"`

	LogLevel        string `koanf:"log_level"`
	MetricsTextfile string `koanf:"metrics_textfile"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		DataDir:     "./data",
		Year:        time.Now().Year(),
		MaxWeek:     18,
		WaitTimeout: 10 * time.Second,
		MaxRetries:  3,
		RateLimitMs: 1000,
		Headless:    true,

		PostgresHost:     "localhost",
		PostgresPort:     "5432",
		PostgresUser:     "blackout",
		PostgresPassword: "blackout",
		PostgresDB:       "blackout",
		PostgresSSLMode:  "disable",

		LogLevel: "info",
	}
}

// RequireSheet fails when no spreadsheet source is configured.
func (c *Config) RequireSheet() error {
	if strings.TrimSpace(c.SheetURL) == "" {
		return fmt.Errorf("%w: SHEET_URL is not set", ErrConfiguration)
	}
	return nil
}

// RequireScraper fails when any of the scraper's site settings or credentials is missing.
func (c *Config) RequireScraper() error {
	var missing []string
	for _, kv := range []struct{ name, val string }{
		{"BLACKOUT_URL", c.BlackoutURL},
		{"SIGNIN_URL", c.SigninURL},
		{"EMAIL", c.Email},
		{"PASSWORD", c.Password},
	} {
		if strings.TrimSpace(kv.val) == "" {
			missing = append(missing, kv.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrConfiguration, strings.Join(missing, ", "))
	}
	if c.MaxWeek < 1 {
		return fmt.Errorf("%w: MAX_WEEK must be positive, got %d", ErrConfiguration, c.MaxWeek)
	}
	return nil
}

// EntriesPath is the year-namespaced entries log written by the scraper.
func (c *Config) EntriesPath() string {
	return filepath.Join(c.DataDir, strconv.Itoa(c.Year)+"_entry_counts.csv")
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}
