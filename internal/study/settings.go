package study

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Settings holds the tunables of the review scheduler.
// A Settings value is built once at startup and never mutated afterwards.
type Settings struct {
	InitialIntervalDays int `koanf:"initial_interval_days" validate:"gtefield=MinIntervalDays,ltefield=MaxIntervalDays"`
	MinIntervalDays     int `koanf:"min_interval_days" validate:"gte=1"`
	MaxIntervalDays     int `koanf:"max_interval_days" validate:"gtefield=MinIntervalDays"`

	InitialEaseFactor   float64 `koanf:"initial_ease_factor" validate:"gtefield=MinEaseFactor,ltefield=MaxEaseFactor"`
	MinEaseFactor       float64 `koanf:"min_ease_factor" validate:"gt=0"`
	MaxEaseFactor       float64 `koanf:"max_ease_factor" validate:"gtefield=MinEaseFactor"`
	EaseFactorIncrement float64 `koanf:"ease_factor_increment" validate:"gte=0"`
	EaseFactorDecrement float64 `koanf:"ease_factor_decrement" validate:"gte=0"`
}

// DefaultSettings returns the stock scheduler configuration.
func DefaultSettings() Settings {
	return Settings{
		InitialIntervalDays: 1,
		MinIntervalDays:     1,
		MaxIntervalDays:     60,
		InitialEaseFactor:   2.5,
		MinEaseFactor:       1.3,
		MaxEaseFactor:       3.0,
		EaseFactorIncrement: 0.05,
		EaseFactorDecrement: 0.2,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that every bound is ordered and every step is non-negative.
func (s Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid study settings: %w", err)
	}
	return nil
}
