package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable the engine reads.
const EnvPrefix = "TAXENGINE"

// Settings are the application settings shared by every command.
type Settings struct {
	Rules   RulesSettings  `mapstructure:"rules"`
	TaxYear int            `mapstructure:"tax_year"`
	Batch   BatchSettings  `mapstructure:"batch"`
	Output  OutputSettings `mapstructure:"output"`
	Log     LogSettings    `mapstructure:"log"`
}

// RulesSettings locate rule data beyond the built-in tables.
type RulesSettings struct {
	Dir string `mapstructure:"dir"`
}

// BatchSettings tune batch evaluation.
type BatchSettings struct {
	Workers int `mapstructure:"workers"`
}

// OutputSettings select the result format.
type OutputSettings struct {
	Format string `mapstructure:"format"`
}

// LogSettings configure the logger.
type LogSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers every known key so environment overrides resolve.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("rules.dir", "")
	v.SetDefault("tax_year", 0)
	v.SetDefault("batch.workers", 0)
	v.SetDefault("output.format", "console")
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")
}

// LoadSettings resolves settings from, in increasing precedence: defaults, the config
// file, a .env file, environment variables and any flags already bound to v.
// An empty configFile searches for taxengine.yaml in the working directory and
// $HOME/.config/taxengine; a missing file is not an error. envFile is optional.
func LoadSettings(v *viper.Viper, configFile, envFile string) (*Settings, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("taxengine")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "taxengine"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("settings validation failed: %w", err)
	}
	return &s, nil
}

// Validate checks setting values that do not depend on other packages.
func (s *Settings) Validate() error {
	if s.TaxYear != 0 && s.TaxYear < 1913 {
		return fmt.Errorf("tax_year %d is out of range", s.TaxYear)
	}
	if s.Batch.Workers < 0 {
		return fmt.Errorf("batch.workers cannot be negative")
	}
	switch strings.ToLower(s.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level: %s", s.Log.Level)
	}
	switch s.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format: %s", s.Log.Format)
	}
	if s.Rules.Dir != "" {
		info, err := os.Stat(s.Rules.Dir)
		if err != nil {
			return fmt.Errorf("rules.dir: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("rules.dir %s is not a directory", s.Rules.Dir)
		}
	}
	return nil
}
