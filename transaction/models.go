package transaction

import (
	"time"

	"github.com/xraph/rating/id"
	"github.com/xraph/rating/pricelist"
	"github.com/xraph/rating/types"
)

// Transaction is the archived record of a completed call. Running
// calls live embedded in their account; once committed they are
// persisted here for invoicing and reporting. DestinationRate is the
// snapshot taken at begin time.
type Transaction struct {
	types.Entity
	ID              id.TransactionID `json:"id"`
	Tenant          string           `json:"tenant"`
	TransactionTag  string           `json:"transaction_tag"`
	AccountTag      string           `json:"account_tag"`
	InvoiceNumber   string           `json:"invoice_number"`
	Source          string           `json:"source"`
	SourceIP        string           `json:"source_ip"`
	Destination     string           `json:"destination"`
	CarrierIP       string           `json:"carrier_ip"`
	Tags            []string         `json:"tags"`
	Authorized      bool             `json:"authorized"`
	DestinationRate *pricelist.Rate  `json:"destination_rate,omitempty"`
	TimestampAuth   *time.Time       `json:"timestamp_auth,omitempty"`
	TimestampBegin  *time.Time       `json:"timestamp_begin,omitempty"`
	TimestampEnd    *time.Time       `json:"timestamp_end,omitempty"`
	Primary         bool             `json:"primary"`
	Inbound         bool             `json:"inbound"`
	Failed          bool             `json:"failed"`
	FailedReason    string           `json:"failed_reason"`
	Duration        int64            `json:"duration"`
	Fee             int64            `json:"fee"`
}

// Filter narrows transaction listings.
type Filter struct {
	Q              string
	IDs            []id.TransactionID
	Tenant         string
	TransactionTag string
	AccountTag     string
	InvoiceNumber  string
	Primary        *bool
	Inbound        *bool
}
