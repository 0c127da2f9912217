// Package config loads application configuration from an optional TOML file
// and EMOCOLOR_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ErrInvalidConfig is returned by Validate for out-of-range settings.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds application configuration.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Classifier ClassifierConfig
	Palette    PaletteConfig
	Deriver    DeriverConfig
	Moods      MoodsConfig
	History    HistoryConfig
	Batch      BatchConfig
	Log        LogConfig
}

// ServerConfig holds HTTP settings.
type ServerConfig struct {
	Addr string
}

// DatabaseConfig holds PostgreSQL settings. An empty URL disables history.
type DatabaseConfig struct {
	URL string
}

// ClassifierConfig locates training data and a saved model.
type ClassifierConfig struct {
	DataPath  string `mapstructure:"data_path"`
	ModelPath string `mapstructure:"model_path"`
	Alpha     float64
}

// PaletteConfig points at an optional palette override file.
type PaletteConfig struct {
	File string
}

// DeriverConfig tunes distribution validation.
type DeriverConfig struct {
	Tolerance float64
}

// MoodsConfig holds mood grouping parameters.
type MoodsConfig struct {
	Groups  int
	MinSize int `mapstructure:"min_size"`
}

// HistoryConfig controls history listings.
type HistoryConfig struct {
	Limit int
}

// BatchConfig controls batch derivation.
type BatchConfig struct {
	Concurrency int
}

// LogConfig controls logging.
type LogConfig struct {
	Level string
}

// Load reads configuration from file and env. Env var overrides use prefix EMOCOLOR_,
// e.g. EMOCOLOR_DATABASE_URL.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("database.url", "")
	v.SetDefault("classifier.data_path", filepath.Join("data", "emotion_data.csv"))
	v.SetDefault("classifier.model_path", "")
	v.SetDefault("classifier.alpha", 1.0)
	v.SetDefault("palette.file", "")
	v.SetDefault("deriver.tolerance", 1e-6)
	v.SetDefault("moods.groups", 3)
	v.SetDefault("moods.min_size", 3)
	v.SetDefault("history.limit", 20)
	v.SetDefault("batch.concurrency", 5)
	v.SetDefault("log.level", "info")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("EMOCOLOR_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "emotion-color"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("EMOCOLOR")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgPath != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	switch {
	case c.Server.Addr == "":
		return fmt.Errorf("%w: server.addr is empty", ErrInvalidConfig)
	case !(c.Classifier.Alpha > 0):
		return fmt.Errorf("%w: classifier.alpha must be positive", ErrInvalidConfig)
	case !(c.Deriver.Tolerance > 0):
		return fmt.Errorf("%w: deriver.tolerance must be positive", ErrInvalidConfig)
	case c.Moods.Groups <= 0:
		return fmt.Errorf("%w: moods.groups must be positive", ErrInvalidConfig)
	case c.Moods.MinSize < 0:
		return fmt.Errorf("%w: moods.min_size must not be negative", ErrInvalidConfig)
	case c.History.Limit <= 0:
		return fmt.Errorf("%w: history.limit must be positive", ErrInvalidConfig)
	case c.Batch.Concurrency <= 0:
		return fmt.Errorf("%w: batch.concurrency must be positive", ErrInvalidConfig)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel parses the configured log level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("%w: log.level %q", ErrInvalidConfig, l.Level)
	}
	return level, nil
}
