package account

import (
	"time"

	"github.com/xraph/rating/id"
	"github.com/xraph/rating/pricelist"
	"github.com/xraph/rating/types"
)

// Type distinguishes prepaid accounts (balance consumed ahead of use)
// from postpaid accounts (balance may run negative until invoiced).
type Type string

const (
	TypePrepaid  Type = "prepaid"
	TypePostpaid Type = "postpaid"
)

// TransactionStatus is the lifecycle state of a running transaction.
// Committed and rolled-back transactions are removed from the running
// list rather than stored in a terminal state.
type TransactionStatus string

const (
	TransactionBegun TransactionStatus = "begun"
	TransactionEnded TransactionStatus = "ended"
)

// Account is a billable party within a tenant. Balance is an integer
// in minor currency units and may go negative. It is mutated only by
// commit and the bulk set/increment operations, each as a single
// atomic store update.
type Account struct {
	types.Entity
	ID                        id.AccountID         `json:"id"`
	Tenant                    string               `json:"tenant"`
	AccountTag                string               `json:"account_tag"`
	Name                      string               `json:"name"`
	Type                      Type                 `json:"type"`
	CustomerTag               string               `json:"customer_tag"`
	NotificationEmail         string               `json:"notification_email"`
	NotificationMobile        string               `json:"notification_mobile"`
	Active                    bool                 `json:"active"`
	Balance                   int64                `json:"balance"`
	MaxConcurrentTransactions int                  `json:"max_concurrent_transactions"`
	MaxInboundTransactions    int                  `json:"max_inbound_transactions"`
	MaxOutboundTransactions   int                  `json:"max_outbound_transactions"`
	RunningTransactions       []RunningTransaction `json:"running_transactions"`
	CarrierTags               []string             `json:"carrier_tags"`
	CarrierTagsOverride       []string             `json:"carrier_tags_override"`
	PricelistTags             []string             `json:"pricelist_tags"`
	Tags                      []string             `json:"tags"`
	LinkedAccounts            []string             `json:"linked_accounts"`
}

// RunningTransaction is an in-flight, not-yet-billed call embedded in
// its owning account. DestinationRate is a point-in-time snapshot of
// the rate resolved at begin time, never re-resolved afterwards.
type RunningTransaction struct {
	TransactionTag  string            `json:"transaction_tag"`
	ProxyTag        string            `json:"proxy_tag"`
	Source          string            `json:"source"`
	SourceIP        string            `json:"source_ip"`
	Destination     string            `json:"destination"`
	CarrierIP       string            `json:"carrier_ip"`
	Tags            []string          `json:"tags"`
	DestinationRate *pricelist.Rate   `json:"destination_rate,omitempty"`
	Status          TransactionStatus `json:"status"`
	Inbound         bool              `json:"inbound"`
	Primary         bool              `json:"primary"`
	TimestampBegin  time.Time         `json:"timestamp_begin"`
	TimestampEnd    *time.Time        `json:"timestamp_end,omitempty"`
}

// InProgress reports whether the transaction has not yet ended.
func (t *RunningTransaction) InProgress() bool {
	return t.Status == TransactionBegun
}

// FindRunningTransaction returns the running transaction with the
// given tag, or nil.
func (a *Account) FindRunningTransaction(transactionTag string) *RunningTransaction {
	for i := range a.RunningTransactions {
		if a.RunningTransactions[i].TransactionTag == transactionTag {
			return &a.RunningTransactions[i]
		}
	}
	return nil
}

// EffectiveCarrierTags returns CarrierTagsOverride when set, else
// CarrierTags. The override wins for both rate resolution and routing.
func (a *Account) EffectiveCarrierTags() []string {
	if len(a.CarrierTagsOverride) > 0 {
		return a.CarrierTagsOverride
	}
	return a.CarrierTags
}

// Filter narrows account listings. WithRunningTransactions selects
// accounts holding any in-progress outbound transaction;
// WithLongRunningTransactions selects accounts holding one that began
// before the staleness cutoff supplied by the caller.
type Filter struct {
	Q                           string
	IDs                         []id.AccountID
	Tenant                      string
	AccountTag                  string
	CustomerTag                 string
	Type                        Type
	Active                      *bool
	WithRunningTransactions     bool
	WithLongRunningTransactions bool
	StaleBefore                 time.Time
}
