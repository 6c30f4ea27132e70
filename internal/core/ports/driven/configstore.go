package driven

import (
	"context"
	"time"
)

// ConfigStore provides access to application configuration.
// Implementations handle persistence (e.g., TOML files) and type conversion.
type ConfigStore interface {
	// Get retrieves a configuration value by key.
	// Returns the value and a boolean indicating if the key exists.
	Get(key string) (any, bool)

	// GetString retrieves a string configuration value.
	// Returns empty string if key doesn't exist or isn't a string.
	GetString(key string) string

	// GetDuration retrieves a duration written as a Go duration string
	// ("1.5s") or as a whole number of seconds. The boolean is false when
	// the key is missing or the value is neither.
	GetDuration(key string) (time.Duration, bool)

	// GetBool retrieves a boolean configuration value.
	// Returns false if key doesn't exist or isn't a boolean.
	GetBool(key string) bool

	// Set stores a configuration value.
	// The value is persisted immediately.
	Set(key string, value any) error

	// Save persists the current configuration to storage.
	Save() error

	// Load reads configuration from storage.
	Load() error

	// Path returns the configuration file path.
	Path() string
}

// ConfigWatcher is implemented by config stores that can report changes
// made outside the process.
type ConfigWatcher interface {
	// Watch reloads the configuration and calls onChange after every
	// external modification until ctx is cancelled.
	Watch(ctx context.Context, onChange func()) error
}
