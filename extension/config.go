package extension

import "time"

// Config holds the Rating extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.rating" or "rating" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// DefaultTenant is the tenant used when operations omit one
	// (default: "default").
	DefaultTenant string `json:"default_tenant" mapstructure:"default_tenant" yaml:"default_tenant"`

	// StaleTransactionAge is the age after which an in-progress
	// transaction is reported as stale (default: 3h).
	StaleTransactionAge time.Duration `json:"stale_transaction_age" mapstructure:"stale_transaction_age" yaml:"stale_transaction_age"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DefaultTenant:       "default",
		StaleTransactionAge: 3 * time.Hour,
	}
}
