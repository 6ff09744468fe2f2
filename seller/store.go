package seller

import (
	"context"

	"github.com/xraph/rating/id"
)

type Store interface {
	Upsert(ctx context.Context, s *Seller) (*Seller, error)
	Get(ctx context.Context, sellerID id.SellerID) (*Seller, error)
	GetByTag(ctx context.Context, tenant, sellerTag string) (*Seller, error)
	List(ctx context.Context, opts ListOpts) ([]*Seller, error)
	Count(ctx context.Context, filter Filter) (int64, error)
	Delete(ctx context.Context, sellerID id.SellerID) (*Seller, error)
	DeleteByTag(ctx context.Context, tenant, sellerTag string) (*Seller, error)
}

type ListOpts struct {
	Filter     Filter
	SortField  string
	Descending bool
	Offset     int
	Limit      int
}
