package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// StoreConfig selects the persistence backend and its location
type StoreConfig struct {
	Backend string `toml:"backend" validate:"oneof=json sqlite"`
	Path    string `toml:"path" validate:"required"`
}

// AnalysisConfig tunes clustering and the trend windows
type AnalysisConfig struct {
	Clusters          int     `toml:"clusters" validate:"min=1,max=20"`
	WindowDays        int     `toml:"window_days" validate:"min=1"`
	HeatmapDays       int     `toml:"heatmap_days" validate:"min=1"`
	AlertMargin       float64 `toml:"alert_margin" validate:"gte=0"`
	NormalizeReported bool    `toml:"normalize_reported"`
}

// ServerConfig holds the HTTP API settings
type ServerConfig struct {
	Addr string `toml:"addr" validate:"required"`
}

// Config is the full application configuration
type Config struct {
	Env      string         `toml:"env" validate:"oneof=development production"`
	LogLevel string         `toml:"log_level"`
	Store    StoreConfig    `toml:"store"`
	Analysis AnalysisConfig `toml:"analysis"`
	Server   ServerConfig   `toml:"server"`

	// dir is where default data files live
	dir string
}

var validate = validator.New()

// DefaultDir returns ~/.dreamlog, or .dreamlog when the home directory is unknown
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".dreamlog"
	}
	return filepath.Join(home, ".dreamlog")
}

// DefaultPath returns the config file location, honoring DREAMLOG_CONFIG
func DefaultPath() string {
	if p := os.Getenv("DREAMLOG_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(DefaultDir(), "config.toml")
}

// Load reads the TOML file at path, applies environment overrides and
// defaults, then validates. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{dir: DefaultDir()}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config file '%s': %w", path, err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config toml: %w", err)
		}
	}

	if err := applyEnvironmentOverrides(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Validate checks every field constraint
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// DefaultStorePath returns the data file for a backend inside the data directory
func (c *Config) DefaultStorePath(backend string) string {
	name := "dreams.json"
	if backend == "sqlite" {
		name = "dreams.db"
	}
	return filepath.Join(c.dir, name)
}

func applyDefaults(cfg *Config) {
	if cfg.Env == "" {
		cfg.Env = "development"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "warn"
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "json"
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = cfg.DefaultStorePath(cfg.Store.Backend)
	}
	if cfg.Analysis.Clusters == 0 {
		cfg.Analysis.Clusters = 4
	}
	if cfg.Analysis.WindowDays == 0 {
		cfg.Analysis.WindowDays = 7
	}
	if cfg.Analysis.HeatmapDays == 0 {
		cfg.Analysis.HeatmapDays = 30
	}
	if cfg.Analysis.AlertMargin == 0 {
		cfg.Analysis.AlertMargin = 0.1
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
}

func applyEnvironmentOverrides(cfg *Config) error {
	if v := os.Getenv("DREAMLOG_ENV"); v != "" {
		cfg.Env = v
	}
	if v := os.Getenv("DREAMLOG_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("DREAMLOG_BACKEND"); v != "" {
		cfg.Store.Backend = v
	}
	if v := os.Getenv("DREAMLOG_DATA"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("DREAMLOG_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("DREAMLOG_CLUSTERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DREAMLOG_CLUSTERS: %w", err)
		}
		cfg.Analysis.Clusters = n
	}
	return nil
}

// formatValidationError formats validation errors into readable messages
func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	msgs := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		field := strings.ToLower(e.Namespace())
		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, e.Param()))
		case "min", "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", field, e.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s", field, e.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
