// Package plugin provides an extensible plugin system for the rating
// engine. Plugins can hook into transaction lifecycle and rating events
// to extend functionality.
package plugin

import (
	"context"

	"github.com/xraph/rating/account"
	"github.com/xraph/rating/pricelist"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized. The engine is passed
// as interface{} because the root package depends on this one.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Transaction lifecycle hooks
// ──────────────────────────────────────────────────

// OnTransactionBegun is called after a transaction is appended to an
// account's running list.
type OnTransactionBegun interface {
	Plugin
	OnTransactionBegun(ctx context.Context, tenant, accountTag string, txn *account.RunningTransaction) error
}

// OnTransactionEnded is called after a running transaction is marked
// ended.
type OnTransactionEnded interface {
	Plugin
	OnTransactionEnded(ctx context.Context, tenant, accountTag string, txn *account.RunningTransaction) error
}

// OnTransactionCommitted is called after a transaction is settled and
// its fee charged against the account balance.
type OnTransactionCommitted interface {
	Plugin
	OnTransactionCommitted(ctx context.Context, tenant, accountTag, transactionTag string, fee int64) error
}

// OnTransactionRolledBack is called after a transaction is discarded
// without charging.
type OnTransactionRolledBack interface {
	Plugin
	OnTransactionRolledBack(ctx context.Context, tenant, accountTag, transactionTag string) error
}

// ──────────────────────────────────────────────────
// Balance hooks
// ──────────────────────────────────────────────────

// OnBalanceAdjusted is called after an administrative balance set or
// increment touches one or more accounts.
type OnBalanceAdjusted interface {
	Plugin
	OnBalanceAdjusted(ctx context.Context, tenant, accountTag string, tags []string, amount int64, absolute bool) error
}

// ──────────────────────────────────────────────────
// Rating hooks
// ──────────────────────────────────────────────────

// OnRateResolved is called after a destination rate lookup. The rate is
// nil when no prefix matched.
type OnRateResolved interface {
	Plugin
	OnRateResolved(ctx context.Context, tenant, accountTag, destination string, rate *pricelist.Rate) error
}

// OnRouteComputed is called after a least-cost routing computation.
type OnRouteComputed interface {
	Plugin
	OnRouteComputed(ctx context.Context, tenant, accountTag, destination string, routes int) error
}
