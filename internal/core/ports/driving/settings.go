package driving

import "github.com/custodia-labs/tasker/internal/core/domain"

// SettingsService manages the persisted runtime configuration.
type SettingsService interface {
	// Get returns the configuration with defaults applied for unset keys.
	Get() (*domain.Config, error)

	// Set validates and persists a single key.
	Set(key, value string) error

	// Keys returns every recognised key in display order.
	Keys() []string

	// Validate checks that the stored values are usable.
	Validate() error

	// GetDefaults returns the built-in configuration.
	GetDefaults() domain.Config
}
