package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/jask/cortracker/internal/filestore"
)

// Storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverFile   = "file"
)

// Config holds application configuration.
type Config struct {
	Storage StorageConfig
	UI      UIConfig
	Log     LogConfig
	Metrics MetricsConfig
}

// StorageConfig selects where the record collection is persisted. Path is a
// database file for sqlite and a directory for file; empty picks the
// per-user default for the driver.
type StorageConfig struct {
	Driver string
	Path   string
	Key    string
}

// UIConfig holds presentation settings.
type UIConfig struct {
	DateFormat     string  `mapstructure:"date_format"`
	CurrencySymbol string  `mapstructure:"currency_symbol"`
	Timezone       string
	AmountStep     float64 `mapstructure:"amount_step"`
}

// LogConfig holds logger settings. An empty File logs to stderr.
type LogConfig struct {
	Level string
	File  string
}

// MetricsConfig holds the optional textfile export path.
type MetricsConfig struct {
	Textfile string
}

func dataDir() string {
	return filepath.Join(os.Getenv("HOME"), ".local", "share", "cortracker")
}

// Path is the config file location: $CORTRACKER_CONFIG or the per-user default.
func Path() string {
	if p := os.Getenv("CORTRACKER_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "cortracker", "config.toml")
}

// New returns a viper instance with defaults, the config file location and
// env overrides applied. Env var overrides use prefix CORTRACKER_.
func New() *viper.Viper {
	v := viper.New()

	// default values
	v.SetDefault("storage.driver", DriverSQLite)
	v.SetDefault("storage.key", "cor-tracker-rows-v1")
	v.SetDefault("ui.date_format", "2006-01-02")
	v.SetDefault("ui.currency_symbol", "$")
	v.SetDefault("ui.timezone", "Local")
	v.SetDefault("ui.amount_step", 100.0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", filepath.Join(dataDir(), "cortracker.log"))
	v.SetDefault("metrics.textfile", "")

	v.SetConfigType("toml")
	v.SetConfigFile(Path())

	v.SetEnvPrefix("CORTRACKER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// Load reads configuration from file and env.
func Load() (Config, error) {
	return LoadFrom(New())
}

// LoadFrom reads the config file into v, if present, and decodes it. A
// missing file is not an error.
func LoadFrom(v *viper.Viper) (Config, error) {
	if err := v.ReadInConfig(); err != nil && !isNotFound(err) {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.Storage.Path == "" {
		path, err := DefaultStoragePath(c.Storage.Driver)
		if err != nil {
			return Config{}, err
		}
		c.Storage.Path = path
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// DefaultStoragePath is where driver keeps records when storage.path is unset.
func DefaultStoragePath(driver string) (string, error) {
	if driver == DriverFile {
		dir, err := filestore.DefaultDir()
		if err != nil {
			return "", fmt.Errorf("config: default storage dir: %w", err)
		}
		return dir, nil
	}
	return filepath.Join(dataDir(), "cortracker.db"), nil
}

func isNotFound(err error) bool {
	var nf viper.ConfigFileNotFoundError
	return errors.As(err, &nf) || errors.Is(err, fs.ErrNotExist)
}

// Validate rejects settings the app cannot run with.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case DriverSQLite, DriverFile:
	default:
		return fmt.Errorf("config: unknown storage.driver %q (want %s or %s)", c.Storage.Driver, DriverSQLite, DriverFile)
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("config: storage.path is empty")
	}
	if c.UI.AmountStep <= 0 {
		return fmt.Errorf("config: ui.amount_step must be positive")
	}
	return nil
}

// Save writes cfg as TOML to path, or to Path() when path is empty, creating
// the config directory if needed.
func Save(path string, cfg Config) error {
	if path == "" {
		path = Path()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("storage.driver", cfg.Storage.Driver)
	v.Set("storage.path", cfg.Storage.Path)
	v.Set("storage.key", cfg.Storage.Key)
	v.Set("ui.date_format", cfg.UI.DateFormat)
	v.Set("ui.currency_symbol", cfg.UI.CurrencySymbol)
	v.Set("ui.timezone", cfg.UI.Timezone)
	v.Set("ui.amount_step", cfg.UI.AmountStep)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.file", cfg.Log.File)
	v.Set("metrics.textfile", cfg.Metrics.Textfile)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
