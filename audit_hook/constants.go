package audithook

// Action constants for audit events.
const (
	// Transaction actions
	ActionTransactionBegun      = "transaction.begun"
	ActionTransactionEnded      = "transaction.ended"
	ActionTransactionCommitted  = "transaction.committed"
	ActionTransactionRolledBack = "transaction.rolled_back"

	// Balance actions
	ActionBalanceSet         = "balance.set"
	ActionBalanceIncremented = "balance.incremented"

	// Rating actions
	ActionRateResolved  = "rate.resolved"
	ActionRouteComputed = "route.computed"
)

// Resource constants for audit events.
const (
	ResourceTransaction = "transaction"
	ResourceAccount     = "account"
	ResourceRate        = "rate"
	ResourceRoute       = "route"
)

// Category constants for audit events.
const (
	CategoryLedger  = "ledger"
	CategoryBalance = "balance"
	CategoryRating  = "rating"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
