package extension

import (
	"time"

	"github.com/xraph/grove"

	rating "github.com/xraph/rating"
	"github.com/xraph/rating/plugin"
	"github.com/xraph/rating/store"
	ratingmongo "github.com/xraph/rating/store/mongo"
)

// Option configures the Rating Forge extension.
type Option func(*Extension)

// WithStore sets the store for the rating engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithGroveDatabase wires the engine to a MongoDB store built on the
// given grove database.
func WithGroveDatabase(db *grove.DB) Option {
	return func(e *Extension) {
		e.store = ratingmongo.New(db)
	}
}

// WithEngineOption passes a rating.Option through to the underlying engine.
func WithEngineOption(opt rating.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithPlugin registers a rating plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, rating.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithDefaultTenant sets the tenant used when operations omit one.
func WithDefaultTenant(tenant string) Option {
	return func(e *Extension) { e.config.DefaultTenant = tenant }
}

// WithStaleTransactionAge sets the age after which in-progress
// transactions are reported as stale.
func WithStaleTransactionAge(d time.Duration) Option {
	return func(e *Extension) { e.config.StaleTransactionAge = d }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}
