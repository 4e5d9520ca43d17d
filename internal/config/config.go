package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/existflow/grantline/internal/logger"
	"github.com/existflow/grantline/internal/timeline"
	"gopkg.in/yaml.v3"
)

// Notifier kinds
const (
	NotifierMemory   = "memory"
	NotifierPostgres = "postgres"
	NotifierRedis    = "redis"
)

// Config holds user preferences
type Config struct {
	ConfirmDelete bool   `yaml:"confirm_delete" json:"confirm_delete"` // Ask before deleting a grant
	ViewerID      string `yaml:"viewer_id" json:"viewer_id"`           // Identity used for edit permissions
	CurrentBoard  string `yaml:"current_board" json:"current_board"`   // Board opened by default
	DefaultZoom   string `yaml:"default_zoom" json:"default_zoom"`     // weekly, monthly, 6months, yearly
	Dark          bool   `yaml:"dark" json:"dark"`

	// Storage
	DBDriver string `yaml:"db_driver" json:"db_driver"` // sqlite or postgres
	DBDSN    string `yaml:"db_dsn" json:"db_dsn"`

	// Change notification
	Notifier  string `yaml:"notifier" json:"notifier"` // memory, postgres or redis
	RedisAddr string `yaml:"redis_addr" json:"redis_addr"`

	ServerAddr string `yaml:"server_addr" json:"server_addr"`

	// Logging configuration
	LogLevel   string `yaml:"log_level" json:"log_level"`     // Log level: DEBUG, INFO, WARN, ERROR
	LogFile    string `yaml:"log_file" json:"log_file"`       // Path to log file
	LogConsole bool   `yaml:"log_console" json:"log_console"` // Enable console logging

	// Theme overrides the rendering colours; empty fields keep the defaults
	Theme timeline.Style `yaml:"theme,omitempty" json:"theme,omitempty"`
}

// Dir returns ~/.grantline, or GRANTLINE_HOME when set
func Dir() (string, error) {
	if dir := os.Getenv("GRANTLINE_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".grantline"), nil
}

// DefaultConfig returns default settings
func DefaultConfig() *Config {
	dir, _ := Dir()
	logPath, dbPath := "", "grantline.db"
	if dir != "" {
		logPath = filepath.Join(dir, "logs", "grantline.log")
		dbPath = filepath.Join(dir, "grantline.db")
	}

	return &Config{
		ConfirmDelete: true,
		ViewerID:      os.Getenv("USER"),
		DefaultZoom:   timeline.ZoomMonthly.String(),
		DBDriver:      "sqlite",
		DBDSN:         dbPath,
		Notifier:      NotifierMemory,
		RedisAddr:     "localhost:6379",
		ServerAddr:    ":8080",
		LogLevel:      "INFO",
		LogFile:       logPath,
	}
}

// applyEnv overrides fields from GRANTLINE_* environment variables
func (c *Config) applyEnv() {
	c.ViewerID = getEnv("GRANTLINE_VIEWER", c.ViewerID)
	c.CurrentBoard = getEnv("GRANTLINE_BOARD", c.CurrentBoard)
	c.DefaultZoom = getEnv("GRANTLINE_ZOOM", c.DefaultZoom)
	c.DBDriver = getEnv("GRANTLINE_DB_DRIVER", c.DBDriver)
	c.DBDSN = getEnv("GRANTLINE_DB_DSN", c.DBDSN)
	c.Notifier = getEnv("GRANTLINE_NOTIFIER", c.Notifier)
	c.RedisAddr = getEnv("GRANTLINE_REDIS_ADDR", c.RedisAddr)
	c.ServerAddr = getEnv("GRANTLINE_ADDR", c.ServerAddr)
	c.LogLevel = getEnv("GRANTLINE_LOG_LEVEL", c.LogLevel)
	c.LogFile = getEnv("GRANTLINE_LOG_FILE", c.LogFile)
	if v := os.Getenv("GRANTLINE_LOG_CONSOLE"); v != "" {
		c.LogConsole = v == "true" || v == "1"
	}
	if v := os.Getenv("GRANTLINE_DARK"); v != "" {
		c.Dark = v == "true" || v == "1"
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Path returns the config file location
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load loads config from ~/.grantline/config.yaml, then applies environment
// overrides
func Load() (*Config, error) {
	configPath, err := Path()
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated fields
func (c *Config) Validate() error {
	if _, err := timeline.ParseZoomMode(c.DefaultZoom); err != nil {
		return fmt.Errorf("invalid default_zoom: %w", err)
	}
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("invalid db_driver %q: want sqlite or postgres", c.DBDriver)
	}
	switch c.Notifier {
	case NotifierMemory, NotifierRedis:
	case NotifierPostgres:
		if c.DBDriver != "postgres" {
			return fmt.Errorf("notifier %q requires db_driver postgres", c.Notifier)
		}
	default:
		return fmt.Errorf("invalid notifier %q", c.Notifier)
	}
	return nil
}

// Zoom returns the default zoom mode
func (c *Config) Zoom() timeline.ZoomMode {
	z, _ := timeline.ParseZoomMode(c.DefaultZoom)
	return z
}

// Style returns the rendering style for the configured theme
func (c *Config) Style() timeline.Style {
	base := timeline.DefaultStyle()
	if c.Dark {
		base = timeline.DarkStyle()
	}
	return c.Theme.Over(base)
}

// LoggerConfig converts the logging fields for logger.Init
func (c *Config) LoggerConfig() logger.Config {
	lc := logger.DefaultConfig()
	lc.Level = logger.ParseLevel(c.LogLevel)
	lc.FilePath = c.LogFile
	lc.Console = c.LogConsole
	return lc
}

// Save saves config to ~/.grantline/config.yaml
func (c *Config) Save() error {
	configPath, err := Path()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Set updates one key by its yaml name
func (c *Config) Set(key, value string) error {
	switch strings.ToLower(key) {
	case "viewer_id":
		c.ViewerID = value
	case "current_board":
		c.CurrentBoard = value
	case "default_zoom":
		if _, err := timeline.ParseZoomMode(value); err != nil {
			return err
		}
		c.DefaultZoom = value
	case "confirm_delete":
		c.ConfirmDelete = value == "true"
	case "dark":
		c.Dark = value == "true"
	case "db_driver":
		c.DBDriver = value
	case "db_dsn":
		c.DBDSN = value
	case "notifier":
		c.Notifier = value
	case "redis_addr":
		c.RedisAddr = value
	case "server_addr":
		c.ServerAddr = value
	case "log_level":
		c.LogLevel = value
	case "log_file":
		c.LogFile = value
	case "log_console":
		c.LogConsole = value == "true"
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return c.Validate()
}
