package pricelist

import (
	"time"

	"github.com/xraph/rating/id"
	"github.com/xraph/rating/types"
)

// Currency is the billing currency of a price list.
type Currency string

const (
	CurrencyEUR Currency = "eur"
	CurrencyUSD Currency = "usd"
)

// MaxPrefixLength caps how many leading digits of a destination are
// considered when matching rates. Candidate prefixes beyond 9 digits
// never occur in practice and would only widen the lookup.
const MaxPrefixLength = 9

// PriceList is a named container of prefix rates within a tenant.
type PriceList struct {
	types.Entity
	ID           id.PriceListID `json:"id"`
	Tenant       string         `json:"tenant"`
	PricelistTag string         `json:"pricelist_tag"`
	Name         string         `json:"name"`
	Currency     Currency       `json:"currency"`
	Active       bool           `json:"active"`
}

// Rate prices calls to destinations starting with Prefix. Rates are
// addressed by (tenant, pricelist_tag, prefix, carrier_tag) and matched
// against a destination by exact prefix-candidate membership.
//
// ConnectFee and Rate are expressed in minor currency units. Rate is
// the charge per RateIncrement seconds of billable time; the first
// IntervalStart seconds are billed regardless of actual duration.
type Rate struct {
	types.Entity
	ID            id.RateID      `json:"id"`
	Tenant        string         `json:"tenant"`
	PricelistID   id.PriceListID `json:"pricelist_id"`
	PricelistTag  string         `json:"pricelist_tag"`
	CarrierID     id.CarrierID   `json:"carrier_id"`
	CarrierTag    string         `json:"carrier_tag"`
	Prefix        string         `json:"prefix"`
	DatetimeStart *time.Time     `json:"datetime_start,omitempty"`
	DatetimeEnd   *time.Time     `json:"datetime_end,omitempty"`
	Active        bool           `json:"active"`
	ConnectFee    int64          `json:"connect_fee"`
	Rate          int64          `json:"rate"`
	RateIncrement int64          `json:"rate_increment"`
	IntervalStart int64          `json:"interval_start"`
	Description   string         `json:"description"`
}

// Cost computes the fee for a call of the given duration, in minor
// units of the given currency. Billable time below IntervalStart is
// rounded up to IntervalStart, then rounded up to a whole number of
// RateIncrement periods. A zero RateIncrement bills per second.
func (r *Rate) Cost(duration time.Duration, currency string) types.Money {
	seconds := int64(duration / time.Second)
	if duration%time.Second != 0 {
		seconds++
	}
	if seconds < 0 {
		seconds = 0
	}

	if seconds < r.IntervalStart {
		seconds = r.IntervalStart
	}

	increment := r.RateIncrement
	if increment <= 0 {
		increment = 1
	}

	periods := seconds / increment
	if seconds%increment != 0 {
		periods++
	}

	return types.Money{
		Amount:   r.ConnectFee + r.Rate*periods,
		Currency: currency,
	}
}

// PrefixCandidates returns every non-empty leading substring of
// destination up to MaxPrefixLength characters, shortest first.
// A rate matches the destination iff its Prefix equals one of the
// candidates exactly.
func PrefixCandidates(destination string) []string {
	n := len(destination)
	if n > MaxPrefixLength {
		n = MaxPrefixLength
	}

	candidates := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		candidates = append(candidates, destination[:i])
	}
	return candidates
}

// Filter narrows price list listings.
type Filter struct {
	Q            string
	IDs          []id.PriceListID
	Tenant       string
	PricelistTag string
}

// RateFilter narrows rate listings.
type RateFilter struct {
	Q            string
	IDs          []id.RateID
	Tenant       string
	PricelistID  id.PriceListID
	PricelistTag string
	CarrierID    id.CarrierID
	CarrierTag   string
	Prefix       string
	Active       *bool
}

// RateQuery selects the rates eligible for a destination lookup.
// Prefixes are matched by exact membership; empty PricelistTags or
// CarrierTags leave that dimension unrestricted. Only active rates
// are considered.
type RateQuery struct {
	Tenant        string
	PricelistTags []string
	CarrierTags   []string
	Prefixes      []string
}
