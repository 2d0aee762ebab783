// Package config loads hikelog settings from defaults, an optional YAML
// file, and HIKELOG_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/HendryAvila/hikelog/internal/hikestore"
)

// EnvPrefix prefixes every environment override, e.g. HIKELOG_DATA_DIR.
const EnvPrefix = "HIKELOG"

// Log levels accepted by structlog.
var logLevels = []string{"dbg", "inf", "wrn", "err"}

// Config holds hikelog configuration.
type Config struct {
	DataDir        string `mapstructure:"data_dir" yaml:"data_dir"`
	DBFile         string `mapstructure:"db_file" yaml:"db_file"`
	LogLevel       string `mapstructure:"log_level" yaml:"log_level"`
	ImportMaxBytes int64  `mapstructure:"import_max_bytes" yaml:"import_max_bytes"`
}

// Default returns the built-in configuration.
func Default() Config {
	store := hikestore.DefaultConfig()
	return Config{
		DataDir:        store.DataDir,
		DBFile:         store.DBFile,
		LogLevel:       "inf",
		ImportMaxBytes: 10 << 20,
	}
}

// DefaultPath is the config file read when no path is given.
func DefaultPath() string {
	return filepath.Join(Default().DataDir, "config.yaml")
}

// Load builds the configuration. An explicit path must exist; when path is
// empty DefaultPath is read if present.
func Load(path string) (Config, error) {
	def := Default()

	v := viper.New()
	v.SetDefault("data_dir", def.DataDir)
	v.SetDefault("db_file", def.DBFile)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("import_max_bytes", def.ImportMaxBytes)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	file, optional := path, false
	if file == "" {
		file, optional = DefaultPath(), true
	}
	v.SetConfigFile(file)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		if !(optional && errors.Is(err, fs.ErrNotExist)) {
			return Config{}, fmt.Errorf("reading config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	cfg.DataDir = expandHome(cfg.DataDir)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.DBFile == "" || strings.ContainsAny(c.DBFile, `/\`) {
		return fmt.Errorf("db_file must be a plain file name, got %q", c.DBFile)
	}
	valid := false
	for _, l := range logLevels {
		if c.LogLevel == l {
			valid = true
		}
	}
	if !valid {
		return fmt.Errorf("log_level must be one of %s, got %q", strings.Join(logLevels, ", "), c.LogLevel)
	}
	if c.ImportMaxBytes < 0 {
		return fmt.Errorf("import_max_bytes must not be negative")
	}
	return nil
}

// Store returns the hike store settings.
func (c Config) Store() hikestore.Config {
	return hikestore.Config{DataDir: c.DataDir, DBFile: c.DBFile}
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
