// Package extension provides the Forge extension adapter for Rating.
//
// It implements the forge.Extension interface to integrate the rating
// engine into a Forge application with automatic dependency discovery,
// DI registration, and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.rating" or "rating" keys.
package extension

import (
	"context"
	"errors"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	rating "github.com/xraph/rating"
	"github.com/xraph/rating/store"
	"github.com/xraph/rating/store/memory"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "rating"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Multi-tenant telephony rating and ledger engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Rating as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *rating.Engine
	store      store.Store
	engineOpts []rating.Option
}

// New creates a new Rating Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying rating engine.
// This is nil until Register is called.
func (e *Extension) Engine() *rating.Engine { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the rating engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	eng := rating.New(e.store, e.buildEngineOpts()...)
	e.engine = eng

	return vessel.Provide(fapp.Container(), func() (*rating.Engine, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("rating: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("rating: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildEngineOpts constructs rating.Option values from the resolved config.
func (e *Extension) buildEngineOpts() []rating.Option {
	opts := make([]rating.Option, 0, len(e.engineOpts)+2)

	if e.config.DefaultTenant != "" {
		opts = append(opts, rating.WithDefaultTenant(e.config.DefaultTenant))
	}
	if e.config.StaleTransactionAge > 0 {
		opts = append(opts, rating.WithStaleTransactionAge(e.config.StaleTransactionAge))
	}

	// Append any pass-through engine options.
	opts = append(opts, e.engineOpts...)

	return opts
}

// --- Config loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("rating: configuration is required but not found in config files; " +
				"ensure 'extensions.rating' or 'rating' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("rating: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("default_tenant", e.config.DefaultTenant),
		forge.F("stale_transaction_age", e.config.StaleTransactionAge),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.rating" first (namespaced pattern).
	if cm.IsSet("extensions.rating") {
		if err := cm.Bind("extensions.rating", &cfg); err == nil {
			e.Logger().Debug("rating: loaded config from file",
				forge.F("key", "extensions.rating"),
			)
			return cfg, true
		}
		e.Logger().Warn("rating: failed to bind extensions.rating config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "rating" key.
	if cm.IsSet("rating") {
		if err := cm.Bind("rating", &cfg); err == nil {
			e.Logger().Debug("rating: loaded config from file",
				forge.F("key", "rating"),
			)
			return cfg, true
		}
		e.Logger().Warn("rating: failed to bind rating config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.DefaultTenant == "" {
		cfg.DefaultTenant = defaults.DefaultTenant
	}
	if cfg.StaleTransactionAge == 0 {
		cfg.StaleTransactionAge = defaults.StaleTransactionAge
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.DefaultTenant == "" && programmaticConfig.DefaultTenant != "" {
		yamlConfig.DefaultTenant = programmaticConfig.DefaultTenant
	}

	// Duration fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.StaleTransactionAge == 0 && programmaticConfig.StaleTransactionAge != 0 {
		yamlConfig.StaleTransactionAge = programmaticConfig.StaleTransactionAge
	}

	// Fill remaining zeros with defaults.
	return e.mergeWithDefaults(yamlConfig)
}
