// Package audithook bridges Rating lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import
// Chronicle directly. Callers inject a RecorderFunc adapter that bridges
// to Chronicle at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/rating/account"
	"github.com/xraph/rating/plugin"
	"github.com/xraph/rating/pricelist"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                  = (*Extension)(nil)
	_ plugin.OnTransactionBegun      = (*Extension)(nil)
	_ plugin.OnTransactionEnded      = (*Extension)(nil)
	_ plugin.OnTransactionCommitted  = (*Extension)(nil)
	_ plugin.OnTransactionRolledBack = (*Extension)(nil)
	_ plugin.OnBalanceAdjusted       = (*Extension)(nil)
	_ plugin.OnRateResolved          = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// This matches chronicle.Emitter but is defined locally so that the
// audit_hook package does not import Chronicle directly — callers inject
// the concrete *chronicle.Chronicle at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
// It mirrors chronicle/audit.Event but avoids a module dependency.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Rating lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Transaction lifecycle hooks
// ──────────────────────────────────────────────────

// OnTransactionBegun implements plugin.OnTransactionBegun.
func (e *Extension) OnTransactionBegun(ctx context.Context, tenant, accountTag string, txn *account.RunningTransaction) error {
	return e.record(ctx, ActionTransactionBegun, SeverityInfo, OutcomeSuccess,
		ResourceTransaction, txn.TransactionTag, CategoryLedger, nil,
		"tenant", tenant,
		"account_tag", accountTag,
		"destination", txn.Destination,
		"inbound", txn.Inbound,
	)
}

// OnTransactionEnded implements plugin.OnTransactionEnded.
func (e *Extension) OnTransactionEnded(ctx context.Context, tenant, accountTag string, txn *account.RunningTransaction) error {
	return e.record(ctx, ActionTransactionEnded, SeverityInfo, OutcomeSuccess,
		ResourceTransaction, txn.TransactionTag, CategoryLedger, nil,
		"tenant", tenant,
		"account_tag", accountTag,
	)
}

// OnTransactionCommitted implements plugin.OnTransactionCommitted.
func (e *Extension) OnTransactionCommitted(ctx context.Context, tenant, accountTag, transactionTag string, fee int64) error {
	return e.record(ctx, ActionTransactionCommitted, SeverityInfo, OutcomeSuccess,
		ResourceTransaction, transactionTag, CategoryLedger, nil,
		"tenant", tenant,
		"account_tag", accountTag,
		"fee", fee,
	)
}

// OnTransactionRolledBack implements plugin.OnTransactionRolledBack.
func (e *Extension) OnTransactionRolledBack(ctx context.Context, tenant, accountTag, transactionTag string) error {
	return e.record(ctx, ActionTransactionRolledBack, SeverityWarning, OutcomeSuccess,
		ResourceTransaction, transactionTag, CategoryLedger, nil,
		"tenant", tenant,
		"account_tag", accountTag,
	)
}

// ──────────────────────────────────────────────────
// Balance hooks
// ──────────────────────────────────────────────────

// OnBalanceAdjusted implements plugin.OnBalanceAdjusted.
func (e *Extension) OnBalanceAdjusted(ctx context.Context, tenant, accountTag string, tags []string, amount int64, absolute bool) error {
	action := ActionBalanceIncremented
	if absolute {
		action = ActionBalanceSet
	}

	return e.record(ctx, action, SeverityInfo, OutcomeSuccess,
		ResourceAccount, accountTag, CategoryBalance, nil,
		"tenant", tenant,
		"account_tag", accountTag,
		"tags", tags,
		"amount", amount,
	)
}

// ──────────────────────────────────────────────────
// Rating hooks
// ──────────────────────────────────────────────────

// OnRateResolved implements plugin.OnRateResolved.
func (e *Extension) OnRateResolved(ctx context.Context, tenant, accountTag, destination string, rate *pricelist.Rate) error {
	// Only audit misses; successful lookups are far too frequent.
	if rate != nil {
		return nil
	}

	return e.record(ctx, ActionRateResolved, SeverityWarning, OutcomeFailure,
		ResourceRate, destination, CategoryRating, nil,
		"tenant", tenant,
		"account_tag", accountTag,
		"destination", destination,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
