package config

import (
	"errors"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Host string `env:"HOST" envDefault:"0.0.0.0"`
	Port string `env:"PORT" envDefault:"8080"`

	// Storage settings
	DatabasePath string `env:"DATABASE_PATH" envDefault:"./data/chamber.db"`
	DataDir      string `env:"DATA_DIR" envDefault:"./data"`
	BackupPath   string `env:"BACKUP_PATH" envDefault:"./data/CHAMBER_BACKUP_LOG.csv"`

	// Logging settings
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Cache settings
	CacheSize int           `env:"CACHE_SIZE" envDefault:"1000"`
	CacheTTL  time.Duration `env:"CACHE_TTL" envDefault:"30m"`

	// Chamber settings
	ChamberName   string        `env:"CHAMBER_NAME" envDefault:"Advocate's Chamber"`
	ChamberID     string        `env:"CHAMBER_ID" envDefault:"SENIOR-ADMIN"`
	AccessKeyHash string        `env:"ACCESS_KEY_HASH"`
	SessionSecret string        `env:"SESSION_SECRET"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"12h"`
	Timezone      string        `env:"TIMEZONE" envDefault:"Asia/Kolkata"`

	// Statute feed settings
	StatuteFeedURL     string        `env:"STATUTE_FEED_URL"`
	StatuteFeedTTL     time.Duration `env:"STATUTE_FEED_TTL" envDefault:"60s"`
	StatuteFeedTimeout time.Duration `env:"STATUTE_FEED_TIMEOUT" envDefault:"10s"`

	// Backup settings
	BackupSchedule string `env:"BACKUP_SCHEDULE" envDefault:"@hourly"`

	// Upload settings
	MaxUploadBytes int64 `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`

	// e-Courts settings
	ECourtsBaseURL string        `env:"ECOURTS_BASE_URL" envDefault:"https://services.ecourts.gov.in/ecourtindia_v6"`
	ScraperTimeout time.Duration `env:"SCRAPER_TIMEOUT" envDefault:"30s"`
	HeadlessMode   bool          `env:"HEADLESS_MODE" envDefault:"true"`
	UserAgent      string        `env:"USER_AGENT" envDefault:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"`
	BrowserPath    string        `env:"ROD_BROWSER_PATH"`
}

// Load reads configuration from the environment, after applying an optional .env file
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// Not an error if .env doesn't exist
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values the environment parser cannot
func (c *Config) Validate() error {
	if c.CacheSize <= 0 {
		return fmt.Errorf("invalid CACHE_SIZE: must be positive, got %d", c.CacheSize)
	}
	if c.StatuteFeedTTL <= 0 {
		return fmt.Errorf("invalid STATUTE_FEED_TTL: must be positive")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("invalid MAX_UPLOAD_BYTES: must be positive")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	if c.AuthEnabled() && c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required when ACCESS_KEY_HASH is set")
	}
	return nil
}

// Location returns the chamber's time zone, falling back to UTC
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// AuthEnabled reports whether the login gate is configured
func (c *Config) AuthEnabled() bool {
	return c.AccessKeyHash != ""
}
