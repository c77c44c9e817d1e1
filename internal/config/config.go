// Package config loads runtime settings from the environment, command-line
// flags and the optional presets file.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/pflag"

	"github.com/erazemk/shramba/internal/db"
)

// EnvPrefix prefixes every environment variable, e.g. SHRAMBA_ADDR.
const EnvPrefix = "SHRAMBA"

// Config holds the settings of a shramba process.
type Config struct {
	// DBPath defaults to shramba.sqlite3 under the user config dir.
	DBPath string `envconfig:"DB" default:""`

	// Addr is the presentation adapter's listen address. Loopback only by default.
	Addr string `envconfig:"ADDR" default:"127.0.0.1:8080"`

	// ImageDir defaults to an images directory next to the database.
	ImageDir string `envconfig:"IMAGE_DIR" default:""`

	LogPath  string `envconfig:"LOG" default:""`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Grace is how long shared item lists keep running without subscribers.
	Grace time.Duration `envconfig:"GRACE" default:"5s"`

	// PresetsFile optionally overrides the preset locations, categories and icons.
	PresetsFile string `envconfig:"PRESETS" default:""`
}

// New reads the configuration from the environment.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("processing environment variables: %w", err)
	}
	return &cfg, nil
}

// BindFlags registers flags that override the values already in c.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.DBPath, "db", "d", c.DBPath, "SQLite database path (default: user config dir)")
	fs.StringVarP(&c.Addr, "addr", "a", c.Addr, "listen address")
	fs.StringVarP(&c.ImageDir, "images", "i", c.ImageDir, "photo directory (default: next to the database)")
	fs.StringVarP(&c.LogPath, "log", "l", c.LogPath, "also append logs to this file")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "minimum log level")
	fs.DurationVar(&c.Grace, "grace", c.Grace, "how long idle item lists stay live")
	fs.StringVarP(&c.PresetsFile, "presets", "p", c.PresetsFile, "JSONC file with preset locations, categories and icons")
}

// ResolveDefaults fills in the paths left empty and validates the rest.
func (c *Config) ResolveDefaults() error {
	if c.DBPath == "" {
		p, err := db.DefaultPath()
		if err != nil {
			return err
		}
		c.DBPath = p
	}
	if c.ImageDir == "" {
		c.ImageDir = filepath.Join(filepath.Dir(c.DBPath), "images")
	}
	if c.Grace < 0 {
		return fmt.Errorf("grace must not be negative: %s", c.Grace)
	}
	return nil
}
