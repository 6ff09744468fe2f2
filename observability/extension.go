// Package observability provides a metrics extension for Rating that
// records lifecycle event counts via a MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/rating/account"
	"github.com/xraph/rating/plugin"
	"github.com/xraph/rating/pricelist"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                  = (*MetricsExtension)(nil)
	_ plugin.OnInit                  = (*MetricsExtension)(nil)
	_ plugin.OnTransactionBegun      = (*MetricsExtension)(nil)
	_ plugin.OnTransactionEnded      = (*MetricsExtension)(nil)
	_ plugin.OnTransactionCommitted  = (*MetricsExtension)(nil)
	_ plugin.OnTransactionRolledBack = (*MetricsExtension)(nil)
	_ plugin.OnBalanceAdjusted       = (*MetricsExtension)(nil)
	_ plugin.OnRateResolved          = (*MetricsExtension)(nil)
	_ plugin.OnRouteComputed         = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Rating plugin to automatically track rating metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Transaction metrics
	TransactionBegun      Counter
	TransactionEnded      Counter
	TransactionCommitted  Counter
	TransactionRolledBack Counter
	TransactionFee        Histogram
	TransactionDuration   Histogram

	// Balance metrics
	BalanceSets       Counter
	BalanceIncrements Counter

	// Rating metrics
	RateLookups    Counter
	RateMisses     Counter
	RoutesComputed Counter
	RouteCount     Histogram

	// Error metrics
	StoreErrors  Counter
	PluginErrors Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Transaction metrics
		TransactionBegun:      factory.Counter("rating.transaction.begun"),
		TransactionEnded:      factory.Counter("rating.transaction.ended"),
		TransactionCommitted:  factory.Counter("rating.transaction.committed"),
		TransactionRolledBack: factory.Counter("rating.transaction.rolled_back"),
		TransactionFee:        factory.Histogram("rating.transaction.fee"),
		TransactionDuration:   factory.Histogram("rating.transaction.duration_s"),

		// Balance metrics
		BalanceSets:       factory.Counter("rating.balance.sets"),
		BalanceIncrements: factory.Counter("rating.balance.increments"),

		// Rating metrics
		RateLookups:    factory.Counter("rating.rate.lookups"),
		RateMisses:     factory.Counter("rating.rate.misses"),
		RoutesComputed: factory.Counter("rating.route.computed"),
		RouteCount:     factory.Histogram("rating.route.count"),

		// Error metrics
		StoreErrors:  factory.Counter("rating.store.errors"),
		PluginErrors: factory.Counter("rating.plugin.errors"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Transaction lifecycle hooks
// ──────────────────────────────────────────────────

// OnTransactionBegun implements plugin.OnTransactionBegun.
func (m *MetricsExtension) OnTransactionBegun(_ context.Context, _, _ string, _ *account.RunningTransaction) error {
	m.TransactionBegun.Inc()
	return nil
}

// OnTransactionEnded implements plugin.OnTransactionEnded.
func (m *MetricsExtension) OnTransactionEnded(_ context.Context, _, _ string, txn *account.RunningTransaction) error {
	m.TransactionEnded.Inc()
	if txn != nil && txn.TimestampEnd != nil {
		m.TransactionDuration.Observe(txn.TimestampEnd.Sub(txn.TimestampBegin).Seconds())
	}
	return nil
}

// OnTransactionCommitted implements plugin.OnTransactionCommitted.
func (m *MetricsExtension) OnTransactionCommitted(_ context.Context, _, _, _ string, fee int64) error {
	m.TransactionCommitted.Inc()
	m.TransactionFee.Observe(float64(fee))
	return nil
}

// OnTransactionRolledBack implements plugin.OnTransactionRolledBack.
func (m *MetricsExtension) OnTransactionRolledBack(_ context.Context, _, _, _ string) error {
	m.TransactionRolledBack.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Balance hooks
// ──────────────────────────────────────────────────

// OnBalanceAdjusted implements plugin.OnBalanceAdjusted.
func (m *MetricsExtension) OnBalanceAdjusted(_ context.Context, _, _ string, _ []string, _ int64, absolute bool) error {
	if absolute {
		m.BalanceSets.Inc()
	} else {
		m.BalanceIncrements.Inc()
	}
	return nil
}

// ──────────────────────────────────────────────────
// Rating hooks
// ──────────────────────────────────────────────────

// OnRateResolved implements plugin.OnRateResolved.
func (m *MetricsExtension) OnRateResolved(_ context.Context, _, _, _ string, rate *pricelist.Rate) error {
	m.RateLookups.Inc()
	if rate == nil {
		m.RateMisses.Inc()
	}
	return nil
}

// OnRouteComputed implements plugin.OnRouteComputed.
func (m *MetricsExtension) OnRouteComputed(_ context.Context, _, _, _ string, routes int) error {
	m.RoutesComputed.Inc()
	m.RouteCount.Observe(float64(routes))
	return nil
}
