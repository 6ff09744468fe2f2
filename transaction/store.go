package transaction

import (
	"context"

	"github.com/xraph/rating/id"
)

type Store interface {
	Upsert(ctx context.Context, t *Transaction) (*Transaction, error)
	Get(ctx context.Context, transactionID id.TransactionID) (*Transaction, error)
	GetByTag(ctx context.Context, tenant, transactionTag, accountTag string) (*Transaction, error)
	List(ctx context.Context, opts ListOpts) ([]*Transaction, error)
	Count(ctx context.Context, filter Filter) (int64, error)
	Delete(ctx context.Context, transactionID id.TransactionID) (*Transaction, error)
	DeleteByTag(ctx context.Context, tenant, transactionTag, accountTag string) (*Transaction, error)
}

type ListOpts struct {
	Filter     Filter
	SortField  string
	Descending bool
	Offset     int
	Limit      int
}
