package catalog

import (
	"fmt"
	"time"
)

// DefaultTTL is how long a snapshot is served before the next read refreshes it.
const DefaultTTL = 5 * time.Minute

// Config controls a SnapshotCache.
type Config struct {
	// Range is the table or range holding the product rows.
	Range string `mapstructure:"range"`

	TTL time.Duration `mapstructure:"ttl"`

	// StaleOnError keeps serving the previous snapshot when a refresh fails.
	// With no previous snapshot the refresh error is returned either way.
	StaleOnError bool `mapstructure:"stale_on_error"`

	Fields Fields `mapstructure:"fields"`
}

// DefaultConfig returns the catalog defaults.
func DefaultConfig() Config {
	return Config{
		Range:        "productos",
		TTL:          DefaultTTL,
		StaleOnError: true,
		Fields:       DefaultFields(),
	}
}

// ConfigError is returned by Validate.
type ConfigError struct {
	Field   string
	Message string
}

func (e ConfigError) Error() string {
	return fmt.Sprintf("catalog config error in field %s: %s", e.Field, e.Message)
}

// Validate checks the configuration. Public field mappings must never point
// at a pricing column.
func (c Config) Validate() error {
	if c.Range == "" {
		return ConfigError{Field: "Range", Message: "must not be empty"}
	}
	if c.TTL <= 0 {
		return ConfigError{Field: "TTL", Message: "must be greater than 0"}
	}
	for name, header := range c.Fields.all() {
		if header == "" {
			return ConfigError{Field: "Fields." + name, Message: "must not be empty"}
		}
		if IsPricingField(header) {
			return ConfigError{Field: "Fields." + name, Message: fmt.Sprintf("%q is a pricing column", header)}
		}
	}
	return nil
}
