package customer

import (
	"context"

	"github.com/xraph/rating/id"
)

type Store interface {
	Upsert(ctx context.Context, c *Customer) (*Customer, error)
	Get(ctx context.Context, customerID id.CustomerID) (*Customer, error)
	GetByTag(ctx context.Context, tenant, customerTag string) (*Customer, error)
	List(ctx context.Context, opts ListOpts) ([]*Customer, error)
	Count(ctx context.Context, filter Filter) (int64, error)
	Delete(ctx context.Context, customerID id.CustomerID) (*Customer, error)
	DeleteByTag(ctx context.Context, tenant, customerTag string) (*Customer, error)
}

type ListOpts struct {
	Filter     Filter
	SortField  string
	Descending bool
	Offset     int
	Limit      int
}
