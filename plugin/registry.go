package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/rating/account"
	"github.com/xraph/rating/pricelist"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit                  []OnInit
	onShutdown              []OnShutdown
	onTransactionBegun      []OnTransactionBegun
	onTransactionEnded      []OnTransactionEnded
	onTransactionCommitted  []OnTransactionCommitted
	onTransactionRolledBack []OnTransactionRolledBack
	onBalanceAdjusted       []OnBalanceAdjusted
	onRateResolved          []OnRateResolved
	onRouteComputed         []OnRouteComputed
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnTransactionBegun); ok {
		r.onTransactionBegun = append(r.onTransactionBegun, v)
	}
	if v, ok := p.(OnTransactionEnded); ok {
		r.onTransactionEnded = append(r.onTransactionEnded, v)
	}
	if v, ok := p.(OnTransactionCommitted); ok {
		r.onTransactionCommitted = append(r.onTransactionCommitted, v)
	}
	if v, ok := p.(OnTransactionRolledBack); ok {
		r.onTransactionRolledBack = append(r.onTransactionRolledBack, v)
	}
	if v, ok := p.(OnBalanceAdjusted); ok {
		r.onBalanceAdjusted = append(r.onBalanceAdjusted, v)
	}
	if v, ok := p.(OnRateResolved); ok {
		r.onRateResolved = append(r.onRateResolved, v)
	}
	if v, ok := p.(OnRouteComputed); ok {
		r.onRouteComputed = append(r.onRouteComputed, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	// Check each interface
	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnTransactionBegun)(nil)).Elem(), "OnTransactionBegun")
	checkInterface(reflect.TypeOf((*OnTransactionEnded)(nil)).Elem(), "OnTransactionEnded")
	checkInterface(reflect.TypeOf((*OnTransactionCommitted)(nil)).Elem(), "OnTransactionCommitted")
	checkInterface(reflect.TypeOf((*OnTransactionRolledBack)(nil)).Elem(), "OnTransactionRolledBack")
	checkInterface(reflect.TypeOf((*OnBalanceAdjusted)(nil)).Elem(), "OnBalanceAdjusted")
	checkInterface(reflect.TypeOf((*OnRateResolved)(nil)).Elem(), "OnRateResolved")
	checkInterface(reflect.TypeOf((*OnRouteComputed)(nil)).Elem(), "OnRouteComputed")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, engine)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitTransactionBegun emits a transaction begun event.
func (r *Registry) EmitTransactionBegun(ctx context.Context, tenant, accountTag string, txn *account.RunningTransaction) {
	r.mu.RLock()
	plugins := r.onTransactionBegun
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTransactionBegun(ctx, tenant, accountTag, txn)
		}); err != nil {
			r.logger.Warn("plugin OnTransactionBegun failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitTransactionEnded emits a transaction ended event.
func (r *Registry) EmitTransactionEnded(ctx context.Context, tenant, accountTag string, txn *account.RunningTransaction) {
	r.mu.RLock()
	plugins := r.onTransactionEnded
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTransactionEnded(ctx, tenant, accountTag, txn)
		}); err != nil {
			r.logger.Warn("plugin OnTransactionEnded failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitTransactionCommitted emits a transaction committed event.
func (r *Registry) EmitTransactionCommitted(ctx context.Context, tenant, accountTag, transactionTag string, fee int64) {
	r.mu.RLock()
	plugins := r.onTransactionCommitted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTransactionCommitted(ctx, tenant, accountTag, transactionTag, fee)
		}); err != nil {
			r.logger.Warn("plugin OnTransactionCommitted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitTransactionRolledBack emits a transaction rolled back event.
func (r *Registry) EmitTransactionRolledBack(ctx context.Context, tenant, accountTag, transactionTag string) {
	r.mu.RLock()
	plugins := r.onTransactionRolledBack
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTransactionRolledBack(ctx, tenant, accountTag, transactionTag)
		}); err != nil {
			r.logger.Warn("plugin OnTransactionRolledBack failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitBalanceAdjusted emits a balance adjusted event.
func (r *Registry) EmitBalanceAdjusted(ctx context.Context, tenant, accountTag string, tags []string, amount int64, absolute bool) {
	r.mu.RLock()
	plugins := r.onBalanceAdjusted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnBalanceAdjusted(ctx, tenant, accountTag, tags, amount, absolute)
		}); err != nil {
			r.logger.Warn("plugin OnBalanceAdjusted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitRateResolved emits a rate resolved event.
func (r *Registry) EmitRateResolved(ctx context.Context, tenant, accountTag, destination string, rate *pricelist.Rate) {
	r.mu.RLock()
	plugins := r.onRateResolved
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnRateResolved(ctx, tenant, accountTag, destination, rate)
		}); err != nil {
			r.logger.Warn("plugin OnRateResolved failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitRouteComputed emits a route computed event.
func (r *Registry) EmitRouteComputed(ctx context.Context, tenant, accountTag, destination string, routes int) {
	r.mu.RLock()
	plugins := r.onRouteComputed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnRouteComputed(ctx, tenant, accountTag, destination, routes)
		}); err != nil {
			r.logger.Warn("plugin OnRouteComputed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the rating pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
