package carrier

import (
	"context"

	"github.com/xraph/rating/id"
)

type Store interface {
	Upsert(ctx context.Context, c *Carrier) (*Carrier, error)
	Get(ctx context.Context, carrierID id.CarrierID) (*Carrier, error)
	GetByTag(ctx context.Context, tenant, carrierTag string) (*Carrier, error)
	List(ctx context.Context, opts ListOpts) ([]*Carrier, error)
	Count(ctx context.Context, filter Filter) (int64, error)
	Delete(ctx context.Context, carrierID id.CarrierID) (*Carrier, error)
	DeleteByTag(ctx context.Context, tenant, carrierTag string) (*Carrier, error)
}

type ListOpts struct {
	Filter     Filter
	SortField  string
	Descending bool
	Offset     int
	Limit      int
}
