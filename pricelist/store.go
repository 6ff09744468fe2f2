package pricelist

import (
	"context"

	"github.com/xraph/rating/id"
)

type Store interface {
	Upsert(ctx context.Context, p *PriceList) (*PriceList, error)
	Get(ctx context.Context, priceListID id.PriceListID) (*PriceList, error)
	GetByTag(ctx context.Context, tenant, pricelistTag string) (*PriceList, error)
	List(ctx context.Context, opts ListOpts) ([]*PriceList, error)
	Count(ctx context.Context, filter Filter) (int64, error)
	Delete(ctx context.Context, priceListID id.PriceListID) (*PriceList, error)
	DeleteByTag(ctx context.Context, tenant, pricelistTag string) (*PriceList, error)

	UpsertRate(ctx context.Context, r *Rate) (*Rate, error)
	GetRate(ctx context.Context, rateID id.RateID) (*Rate, error)
	GetRateByKey(ctx context.Context, tenant, pricelistTag, carrierTag, prefix string) (*Rate, error)
	ListRates(ctx context.Context, opts RateListOpts) ([]*Rate, error)
	CountRates(ctx context.Context, filter RateFilter) (int64, error)
	DeleteRate(ctx context.Context, rateID id.RateID) (*Rate, error)
	DeleteRateByKey(ctx context.Context, tenant, pricelistTag, carrierTag, prefix string) (*Rate, error)

	// FindRates returns the active rates matching the query's prefix
	// candidates, longest prefix first. All matches are returned; the
	// caller applies its own selection or ordering.
	FindRates(ctx context.Context, q RateQuery) ([]*Rate, error)
}

type ListOpts struct {
	Filter     Filter
	SortField  string
	Descending bool
	Offset     int
	Limit      int
}

type RateListOpts struct {
	Filter     RateFilter
	SortField  string
	Descending bool
	Offset     int
	Limit      int
}
