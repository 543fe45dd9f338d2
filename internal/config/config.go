package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Store backends.
const (
	StoreSQLite = "sqlite"
	StoreSheets = "sheets"
	StoreNone   = "none"
)

// Session backends.
const (
	SessionMemory = "memory"
	SessionRedis  = "redis"
)

// Config is the bot configuration, read from the environment.
type Config struct {
	TelegramToken string `envconfig:"TELEGRAM_TOKEN" required:"true"`
	BaseURL       string `envconfig:"BASE_URL"`
	WebhookSecret string `envconfig:"WEBHOOK_SECRET"`
	Port          string `envconfig:"PORT" default:"8080"`
	Env           string `envconfig:"ENV" default:"production"`

	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`

	StoreBackend    string `envconfig:"STORE_BACKEND" default:"sqlite"`
	DBPath          string `envconfig:"DB_PATH" default:"./data/shipments.db"`
	SpreadsheetID   string `envconfig:"SPREADSHEET_ID"`
	CredentialsJSON string `envconfig:"GOOGLE_CREDENTIALS_JSON"`
	SheetTitle      string `envconfig:"SHEET_TITLE" default:"Otgruzka"`

	SessionBackend string        `envconfig:"SESSION_BACKEND" default:"memory"`
	RedisURL       string        `envconfig:"REDIS_URL"`
	SessionTTL     time.Duration `envconfig:"SESSION_TTL" default:"30m"`

	MinPhotos int    `envconfig:"MIN_PHOTOS" default:"1"`
	Timezone  string `envconfig:"TIMEZONE" default:"Asia/Tashkent"`
}

// Load reads an optional .env file and then the environment. Variables
// already set in the environment win over the file.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// Missing files are fine; the environment may carry everything.
		_ = godotenv.Load(f)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.MinPhotos < 1 || c.MinPhotos > 4 {
		return fmt.Errorf("MIN_PHOTOS must be between 1 and 4, got %d", c.MinPhotos)
	}
	switch c.StoreBackend {
	case StoreSQLite, StoreNone:
	case StoreSheets:
		if c.SpreadsheetID == "" || c.CredentialsJSON == "" {
			return fmt.Errorf("STORE_BACKEND=sheets requires SPREADSHEET_ID and GOOGLE_CREDENTIALS_JSON")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	switch c.SessionBackend {
	case SessionMemory:
	case SessionRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("SESSION_BACKEND=redis requires REDIS_URL")
		}
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", c.SessionBackend)
	}
	if c.BaseURL != "" && c.WebhookSecret == "" {
		return fmt.Errorf("BASE_URL requires WEBHOOK_SECRET")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return nil
}

// Location returns the configured time zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// WebhookURL is the address Telegram posts updates to, empty in polling mode.
func (c *Config) WebhookURL() string {
	if c.BaseURL == "" {
		return ""
	}
	return strings.TrimRight(c.BaseURL, "/") + "/webhook/" + c.WebhookSecret
}
