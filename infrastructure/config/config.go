package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the station configuration. Every key has a default so the binary runs without a file.
type Config struct {
	Station struct {
		ID   string `mapstructure:"id"`
		Addr string `mapstructure:"addr"`
	} `mapstructure:"station"`

	SQLite struct {
		Path          string `mapstructure:"path"`
		MigrationsDir string `mapstructure:"migrations_dir"`
	} `mapstructure:"sqlite"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`

	Backend struct {
		BaseURL       string        `mapstructure:"base_url"`
		CSRFToken     string        `mapstructure:"csrf_token"`
		SessionCookie string        `mapstructure:"session_cookie"`
		SessionName   string        `mapstructure:"session_name"`
		ExportPath    string        `mapstructure:"export_path"`
		BreakerWindow time.Duration `mapstructure:"breaker_window"`
	} `mapstructure:"backend"`

	Scan struct {
		KeyGap       time.Duration `mapstructure:"key_gap"`
		HistoryCap   int           `mapstructure:"history_cap"`
		HighlightTTL time.Duration `mapstructure:"highlight_ttl"`
		IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
		ExportMode   string        `mapstructure:"export_mode"`
		SoundBaseURL string        `mapstructure:"sound_base_url"`
	} `mapstructure:"scan"`
}

// Load reads .env, configs/pickstation.yaml and PICKSTATION_* environment variables.
func Load() *Config {
	return LoadFile("configs/pickstation.yaml")
}

// LoadFile is Load with an explicit config file path.
func LoadFile(path string) *Config {
	// .env is optional outside development
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(path)
	v.SetEnvPrefix("PICKSTATION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Printf("[config] no config file at %s, using defaults", path)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("config unmarshal error: %v", err)
	}

	// Deployment variables shared with the older station scripts.
	if addr := os.Getenv("APP_ADDR"); addr != "" {
		cfg.Station.Addr = addr
	}
	if path := os.Getenv("SQLITE_PATH"); path != "" {
		cfg.SQLite.Path = path
	}

	cfg.normalize()
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("station.id", hostnameOr("station"))
	v.SetDefault("station.addr", ":8080")
	v.SetDefault("sqlite.path", "pickstation.db")
	v.SetDefault("sqlite.migrations_dir", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("backend.base_url", "http://localhost:8000")
	v.SetDefault("backend.csrf_token", "")
	v.SetDefault("backend.session_cookie", "")
	v.SetDefault("backend.session_name", "sessionid")
	v.SetDefault("backend.export_path", "fullfilment/batchpicking/{picklist}/export/")
	v.SetDefault("backend.breaker_window", 30*time.Second)
	v.SetDefault("scan.key_gap", 100*time.Millisecond)
	v.SetDefault("scan.history_cap", 10)
	v.SetDefault("scan.highlight_ttl", 2*time.Second)
	v.SetDefault("scan.idle_timeout", 60*time.Second)
	v.SetDefault("scan.export_mode", "blob")
	v.SetDefault("scan.sound_base_url", "/static/sounds/")
}

func (c *Config) normalize() {
	c.Backend.BaseURL = strings.TrimRight(strings.TrimSpace(c.Backend.BaseURL), "/")
	if c.Scan.HistoryCap < 10 {
		c.Scan.HistoryCap = 10
	}
	if c.Scan.HistoryCap > 50 {
		c.Scan.HistoryCap = 50
	}
	switch strings.ToLower(strings.TrimSpace(c.Scan.ExportMode)) {
	case "json":
		c.Scan.ExportMode = "json"
	default:
		c.Scan.ExportMode = "blob"
	}
	if c.Scan.KeyGap <= 0 {
		c.Scan.KeyGap = 100 * time.Millisecond
	}
	if c.Scan.IdleTimeout <= 0 {
		c.Scan.IdleTimeout = 60 * time.Second
	}
}

func hostnameOr(fallback string) string {
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	return fallback
}
