// Package config provides Viper-based hierarchical configuration and
// environment loading for the import pipeline.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Import struct {
		// PreambleLimit bounds the preamble scan when locating a CSV header.
		PreambleLimit int `mapstructure:"preamble_limit" yaml:"preamble_limit"`
		// FatalErrorRatio is the per-file error-line ratio above which a
		// parse is abandoned.
		FatalErrorRatio float64 `mapstructure:"fatal_error_ratio" yaml:"fatal_error_ratio"`
		// FingerprintPrefix is how many characters of the normalized
		// description participate in duplicate fingerprints.
		FingerprintPrefix int `mapstructure:"fingerprint_prefix" yaml:"fingerprint_prefix"`
		// Workers sizes the normalization worker pool.
		Workers int `mapstructure:"workers" yaml:"workers"`
	} `mapstructure:"import" yaml:"import"`

	Templates struct {
		File string `mapstructure:"file" yaml:"file"`
	} `mapstructure:"templates" yaml:"templates"`

	Ledger struct {
		File string `mapstructure:"file" yaml:"file"`
	} `mapstructure:"ledger" yaml:"ledger"`

	AI struct {
		Model          string `mapstructure:"model" yaml:"model"`
		TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
		APIKey         string `mapstructure:"api_key" yaml:"-"` // Never serialize API key
	} `mapstructure:"ai" yaml:"ai"`

	// Display carries the injected, timestamped FX rate used only when
	// rendering original-currency amounts in reports. Normalization
	// correctness never depends on it.
	Display struct {
		Rate     string `mapstructure:"rate" yaml:"rate"`
		RateAsOf string `mapstructure:"rate_as_of" yaml:"rate_as_of"`
		Currency string `mapstructure:"currency" yaml:"currency"`
	} `mapstructure:"display" yaml:"display"`
}

// DisplayRate is the parsed display-only conversion rate.
type DisplayRate struct {
	Rate     decimal.Decimal
	AsOf     time.Time
	Currency string
}

// DisplayRate parses the configured display rate. ok is false when no rate
// is configured; a configured but malformed rate is an error.
func (c *Config) DisplayRate() (DisplayRate, bool, error) {
	if c.Display.Rate == "" {
		return DisplayRate{}, false, nil
	}
	rate, err := decimal.NewFromString(c.Display.Rate)
	if err != nil {
		return DisplayRate{}, false, fmt.Errorf("invalid display.rate '%s': %w", c.Display.Rate, err)
	}
	asOf, err := time.Parse("2006-01-02", c.Display.RateAsOf)
	if err != nil {
		return DisplayRate{}, false, fmt.Errorf("display.rate requires display.rate_as_of (YYYY-MM-DD): %w", err)
	}
	return DisplayRate{Rate: rate, AsOf: asOf, Currency: c.Display.Currency}, true, nil
}

// Initialize loads configuration with hierarchical precedence:
// defaults, then config file, then LEDGER_-prefixed environment variables.
func Initialize() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.ledger-import")
	v.AddConfigPath(".ledger-import")
	v.AddConfigPath(".")

	v.SetEnvPrefix("LEDGER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Keep going with defaults and env vars; a broken config file
			// should not block an import.
			fmt.Printf("Warning: error reading config file %s: %v\n", v.ConfigFileUsed(), err)
		}
	}

	// The API key always comes from the environment, unprefixed.
	if err := v.BindEnv("ai.api_key", "GEMINI_API_KEY"); err != nil {
		fmt.Printf("Warning: failed to bind GEMINI_API_KEY environment variable: %v\n", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("import.preamble_limit", 50)
	v.SetDefault("import.fatal_error_ratio", 0.20)
	v.SetDefault("import.fingerprint_prefix", 32)
	v.SetDefault("import.workers", 4)

	v.SetDefault("templates.file", "config/templates.yaml")
	v.SetDefault("ledger.file", "data/ledger.yaml")

	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.timeout_seconds", 30)

	v.SetDefault("display.rate", "")
	v.SetDefault("display.rate_as_of", "")
	v.SetDefault("display.currency", "")
}

func validate(cfg *Config) error {
	if _, err := logrus.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", cfg.Log.Level)
	}
	if cfg.Log.Format != "text" && cfg.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", cfg.Log.Format)
	}

	if cfg.Import.PreambleLimit < 1 {
		return fmt.Errorf("import.preamble_limit must be positive, got %d", cfg.Import.PreambleLimit)
	}
	if cfg.Import.FatalErrorRatio <= 0 || cfg.Import.FatalErrorRatio >= 1 {
		return fmt.Errorf("import.fatal_error_ratio must be in (0,1), got %f", cfg.Import.FatalErrorRatio)
	}
	if cfg.Import.FingerprintPrefix < 1 {
		return fmt.Errorf("import.fingerprint_prefix must be positive, got %d", cfg.Import.FingerprintPrefix)
	}
	if cfg.Import.Workers < 1 {
		return fmt.Errorf("import.workers must be positive, got %d", cfg.Import.Workers)
	}

	if _, _, err := cfg.DisplayRate(); err != nil {
		return err
	}
	return nil
}

// ConfigureLogging builds a logrus logger from the Log section.
func ConfigureLogging(cfg *Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Log.Level))
	if err != nil {
		logger.Warnf("Invalid log level '%s', using 'info'", cfg.Log.Level)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if strings.ToLower(cfg.Log.Format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
	return logger
}

var loadEnvOnce sync.Once

// LoadEnv loads environment variables from a .env file when one exists in
// the working directory or its parent.
func LoadEnv() {
	loadEnvOnce.Do(func() {
		envFile := ".env"
		if _, err := os.Stat(envFile); os.IsNotExist(err) {
			envFile = filepath.Join("..", ".env")
			if _, err := os.Stat(envFile); os.IsNotExist(err) {
				return
			}
		}
		_ = godotenv.Load(envFile)
	})
}
