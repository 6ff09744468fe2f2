package account

import (
	"context"
	"time"

	"github.com/xraph/rating/id"
)

// Store is the persistence contract for accounts and their embedded
// running-transaction lifecycle. Every mutating method must execute as
// a single atomic conditional update scoped by the full matching key;
// no method may split a read-modify-write across round trips.
type Store interface {
	Upsert(ctx context.Context, a *Account) (*Account, error)
	Get(ctx context.Context, accountID id.AccountID) (*Account, error)
	GetByTag(ctx context.Context, tenant, accountTag string) (*Account, error)
	List(ctx context.Context, opts ListOpts) ([]*Account, error)
	Count(ctx context.Context, filter Filter) (int64, error)
	Delete(ctx context.Context, accountID id.AccountID) (*Account, error)
	DeleteByTag(ctx context.Context, tenant, accountTag string) (*Account, error)

	// BeginTransaction appends txn to the account's running list iff no
	// running transaction with the same tag exists. Returns the stored
	// transaction, nil when the account does not exist, and
	// ErrTransactionExists on a duplicate tag.
	BeginTransaction(ctx context.Context, tenant, accountTag string, txn *RunningTransaction) (*RunningTransaction, error)

	// EndTransaction marks the matching running transaction ended and
	// stamps timestampEnd. Returns nil when no account+transaction pair
	// matches.
	EndTransaction(ctx context.Context, tenant, accountTag, transactionTag string, timestampEnd time.Time) (*RunningTransaction, error)

	// CommitTransaction decrements the balance by fee and removes the
	// matching running transaction in one atomic update. Reports
	// whether a match was found; a second commit of the same tag finds
	// nothing and reports false.
	CommitTransaction(ctx context.Context, tenant, accountTag, transactionTag string, fee int64) (bool, error)

	// RollbackTransaction removes the matching running transaction
	// without touching the balance. Reports whether a match was found.
	RollbackTransaction(ctx context.Context, tenant, accountTag, transactionTag string) (bool, error)

	// GetTransaction returns the running transaction with the given tag,
	// or nil when no account+transaction pair matches.
	GetTransaction(ctx context.Context, tenant, accountTag, transactionTag string) (*RunningTransaction, error)

	// SetBalance sets the balance on every account matched by tenant,
	// optional accountTag and optional tag membership. Reports whether
	// at least one account matched.
	SetBalance(ctx context.Context, tenant, accountTag string, tags []string, balance int64) (bool, error)

	// IncrementBalance adds delta to the balance of every matched
	// account. Reports whether at least one account matched.
	IncrementBalance(ctx context.Context, tenant, accountTag string, tags []string, delta int64) (bool, error)
}

type ListOpts struct {
	Filter     Filter
	SortField  string
	Descending bool
	Offset     int
	Limit      int
}
