package invoice

import (
	"context"

	"github.com/xraph/rating/id"
)

type Store interface {
	Upsert(ctx context.Context, inv *Invoice) (*Invoice, error)
	Get(ctx context.Context, invoiceID id.InvoiceID) (*Invoice, error)
	GetByNumber(ctx context.Context, tenant, invoiceNumber string) (*Invoice, error)
	List(ctx context.Context, opts ListOpts) ([]*Invoice, error)
	Count(ctx context.Context, filter Filter) (int64, error)
	Delete(ctx context.Context, invoiceID id.InvoiceID) (*Invoice, error)
	DeleteByNumber(ctx context.Context, tenant, invoiceNumber string) (*Invoice, error)
}

type ListOpts struct {
	Filter     Filter
	SortField  string
	Descending bool
	Offset     int
	Limit      int
}
