package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"shootmap/cache"
	"shootmap/sheets"
	"shootmap/storage"
)

type Config struct {
	Sheets    SheetsConfig
	Audit     AuditConfig
	Scheduler SchedulerConfig
	LogPath   string `env:"LOG_PATH" envDefault:"shootmap.log"`
	Layout    string `env:"LAYOUT_FILE" envDefault:"config/layout.yaml"`

	// Filled from the layout file.
	Tables storage.Tables
	TTLs   cache.TTLs
}

type SheetsConfig struct {
	SpreadsheetID      string        `env:"GOOGLE_SHEETS_SPREADSHEET_ID"`
	ClientEmail        string        `env:"GOOGLE_SHEETS_CLIENT_EMAIL"`
	PrivateKey         string        `env:"GOOGLE_SHEETS_PRIVATE_KEY"`
	ServiceAccountJSON string        `env:"GOOGLE_SERVICE_ACCOUNT_PRIVATE_KEY"`
	RatePerSec         float64       `env:"SHEETS_RATE_PER_SEC" envDefault:"1"`
	Burst              int           `env:"SHEETS_BURST" envDefault:"5"`
	Timeout            time.Duration `env:"SHEETS_TIMEOUT" envDefault:"30s"`
}

// Credentials returns the sheets client credentials.
func (s SheetsConfig) Credentials() sheets.Credentials {
	return sheets.Credentials{
		SpreadsheetID:      s.SpreadsheetID,
		ClientEmail:        s.ClientEmail,
		PrivateKey:         s.PrivateKey,
		ServiceAccountJSON: s.ServiceAccountJSON,
	}
}

// AuditConfig selects the custody audit log. DatabaseURL takes precedence
// over DBPath; with neither set no audit trail is kept.
type AuditConfig struct {
	DBPath      string `env:"AUDIT_DB_PATH" envDefault:"audit.db"`
	DatabaseURL string `env:"AUDIT_DATABASE_URL"`
}

type SchedulerConfig struct {
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`
	ChatPruneCron string        `env:"CHAT_PRUNE_CRON" envDefault:"@hourly"`
	ArchiveCron   string        `env:"ARCHIVE_CRON" envDefault:"0 3 1 * *"`
}

// Layout is the optional YAML file overriding sheet names and cache TTLs.
type Layout struct {
	Tables storage.Tables `yaml:"tables"`
	TTLs   cache.TTLs     `yaml:"ttls"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	layout, err := LoadLayout(cfg.Layout)
	if err != nil {
		return nil, err
	}
	cfg.Tables = layout.Tables
	cfg.TTLs = layout.TTLs

	return cfg, nil
}

// LoadLayout reads path over the defaults. A missing file yields the
// defaults unchanged; zero fields in the file keep their default.
func LoadLayout(path string) (Layout, error) {
	layout := Layout{Tables: storage.DefaultTables(), TTLs: cache.DefaultTTLs()}
	if path == "" {
		return layout, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return layout, nil
		}
		return layout, fmt.Errorf("read layout %s: %w", path, err)
	}

	var file Layout
	if err := yaml.Unmarshal(data, &file); err != nil {
		return layout, fmt.Errorf("parse layout %s: %w", path, err)
	}

	layout.Tables = file.Tables.WithDefaults()
	layout.TTLs = mergeTTLs(layout.TTLs, file.TTLs)
	return layout, nil
}

func mergeTTLs(base, over cache.TTLs) cache.TTLs {
	if over.Listings > 0 {
		base.Listings = over.Listings
	}
	if over.Agents > 0 {
		base.Agents = over.Agents
	}
	if over.Users > 0 {
		base.Users = over.Users
	}
	if over.Leaderboard > 0 {
		base.Leaderboard = over.Leaderboard
	}
	if over.Chat > 0 {
		base.Chat = over.Chat
	}
	if over.Default > 0 {
		base.Default = over.Default
	}
	return base
}
