package invoice

import (
	"time"

	"github.com/xraph/rating/id"
	"github.com/xraph/rating/types"
)

// Invoice is a billed statement issued to a customer. Amounts are
// integers in minor currency units; VATRate is a flat percentage.
type Invoice struct {
	types.Entity
	ID            id.InvoiceID `json:"id"`
	Tenant        string       `json:"tenant"`
	InvoiceNumber string       `json:"invoice_number"`
	InvoiceDate   time.Time    `json:"invoice_date"`
	CustomerTag   string       `json:"customer_tag"`
	Rows          []Row        `json:"rows"`
	NetTotal      int64        `json:"net_total"`
	VATRate       int64        `json:"vat_rate"`
	Total         int64        `json:"total"`
}

// Row is a single invoice line, typically one rated destination prefix.
type Row struct {
	Prefix      string `json:"prefix"`
	Description string `json:"description"`
	UnitPrice   int64  `json:"unit_price"`
	Quantity    int64  `json:"quantity"`
	Total       int64  `json:"total"`
}

// ComputeTotals recalculates NetTotal from the rows and Total by
// applying the flat VAT rate on top.
func (inv *Invoice) ComputeTotals() {
	var net int64
	for i := range inv.Rows {
		net += inv.Rows[i].Total
	}
	inv.NetTotal = net
	inv.Total = net + net*inv.VATRate/100
}

// Filter narrows invoice listings.
type Filter struct {
	Q             string
	IDs           []id.InvoiceID
	Tenant        string
	InvoiceNumber string
	InvoiceDate   *time.Time
	CustomerTag   string
}
