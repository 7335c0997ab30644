// Package config loads quizzer settings from defaults, a YAML file, the
// environment and command-line flags, in increasing order of precedence.
// A .env file in the working directory is read into the environment first.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/conorfennell/quizzer/internal/study"
)

const (
	// EnvPrefix prefixes every environment override. Nested keys use a
	// double underscore, e.g. QUIZZER_LOG__LEVEL.
	EnvPrefix = "QUIZZER_"

	// DefaultFile is read when present and no file is named explicitly.
	DefaultFile = "quizzer.yaml"

	// DotEnvFile holds environment overrides. Variables already set win.
	DotEnvFile = ".env"
)

// Config is the resolved configuration of one run.
type Config struct {
	DB       string         `koanf:"db" validate:"required"`
	ReposDir string         `koanf:"repos_dir" validate:"required"`
	Log      Log            `koanf:"log"`
	Study    study.Settings `koanf:"study"`
}

// Log configures the slog handler.
type Log struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
}

// flagKeys maps command-line flag names onto config keys.
var flagKeys = map[string]string{
	"db":        "db",
	"repos-dir": "repos_dir",
	"log-level": "log.level",
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func defaults() map[string]any {
	s := study.DefaultSettings()
	return map[string]any{
		"db":                          "quizzer.db",
		"repos_dir":                   "repos",
		"log.level":                   "info",
		"study.initial_interval_days": s.InitialIntervalDays,
		"study.min_interval_days":     s.MinIntervalDays,
		"study.max_interval_days":     s.MaxIntervalDays,
		"study.initial_ease_factor":   s.InitialEaseFactor,
		"study.min_ease_factor":       s.MinEaseFactor,
		"study.max_ease_factor":       s.MaxEaseFactor,
		"study.ease_factor_increment": s.EaseFactorIncrement,
		"study.ease_factor_decrement": s.EaseFactorDecrement,
	}
}

// Load resolves the configuration. path names a YAML file; when empty,
// DefaultFile is used if it exists. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")
	for key, v := range defaults() {
		if err := k.Set(key, v); err != nil {
			return nil, fmt.Errorf("failed to set default %s: %w", key, err)
		}
	}

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	} else if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config file %s does not exist", path)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", DotEnvFile, err)
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if flags != nil {
		provider := posflag.ProviderWithValue(flags, ".", k, func(name, value string) (string, any) {
			key, ok := flagKeys[name]
			if !ok {
				return "", nil
			}
			return key, value
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey turns QUIZZER_STUDY__MAX_INTERVAL_DAYS into study.max_interval_days.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Validate checks every field, including the study bounds.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
