// Package memory provides an in-memory Store implementation. All data
// is lost on restart; intended for tests and local development.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xraph/rating"
	"github.com/xraph/rating/account"
	"github.com/xraph/rating/carrier"
	"github.com/xraph/rating/customer"
	"github.com/xraph/rating/id"
	"github.com/xraph/rating/invoice"
	"github.com/xraph/rating/pricelist"
	"github.com/xraph/rating/seller"
	"github.com/xraph/rating/transaction"
	"github.com/xraph/rating/types"
)

// Store keeps every entity in maps keyed by ID. A single RWMutex
// serializes mutations, which makes each ledger operation atomic by
// construction.
type Store struct {
	mu sync.RWMutex

	accounts     map[string]*account.Account
	carriers     map[string]*carrier.Carrier
	pricelists   map[string]*pricelist.PriceList
	rates        map[string]*pricelist.Rate
	customers    map[string]*customer.Customer
	sellers      map[string]*seller.Seller
	invoices     map[string]*invoice.Invoice
	transactions map[string]*transaction.Transaction

	closed bool
}

func New() *Store {
	return &Store{
		accounts:     make(map[string]*account.Account),
		carriers:     make(map[string]*carrier.Carrier),
		pricelists:   make(map[string]*pricelist.PriceList),
		rates:        make(map[string]*pricelist.Rate),
		customers:    make(map[string]*customer.Customer),
		sellers:      make(map[string]*seller.Seller),
		invoices:     make(map[string]*invoice.Invoice),
		transactions: make(map[string]*transaction.Transaction),
	}
}

// Account methods

func (s *Store) UpsertAccount(_ context.Context, a *account.Account) (*account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.accounts[a.ID.String()]
	if existing == nil {
		existing = s.findAccountByTag(a.Tenant, a.AccountTag)
	}
	if existing != nil {
		a.ID = existing.ID
		a.CreatedAt = existing.CreatedAt
		// The running list and its lifecycle are ledger-owned; an
		// administrative upsert never rewrites them.
		a.RunningTransactions = existing.RunningTransactions
		a.Touch()
	} else {
		if a.ID.IsNil() {
			a.ID = id.NewAccountID()
		}
		if a.CreatedAt.IsZero() {
			a.Entity = types.NewEntity()
		}
	}

	s.accounts[a.ID.String()] = a
	return a, nil
}

func (s *Store) GetAccount(_ context.Context, accountID id.AccountID) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if a, ok := s.accounts[accountID.String()]; ok {
		return a, nil
	}
	return nil, rating.ErrAccountNotFound
}

func (s *Store) GetAccountByTag(_ context.Context, tenant, accountTag string) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if a := s.findAccountByTag(tenant, accountTag); a != nil {
		return a, nil
	}
	return nil, rating.ErrAccountNotFound
}

func (s *Store) ListAccounts(_ context.Context, opts account.ListOpts) ([]*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*account.Account, 0)
	for _, a := range s.accounts {
		if matchAccount(a, opts.Filter) {
			result = append(result, a)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		less := accountLess(result[i], result[j], opts.SortField)
		if opts.Descending {
			return !less
		}
		return less
	})

	return page(result, opts.Offset, opts.Limit), nil
}

func (s *Store) CountAccounts(_ context.Context, filter account.Filter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, a := range s.accounts {
		if matchAccount(a, filter) {
			n++
		}
	}
	return n, nil
}

func (s *Store) DeleteAccount(_ context.Context, accountID id.AccountID) (*account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[accountID.String()]
	if !ok {
		return nil, rating.ErrAccountNotFound
	}
	delete(s.accounts, accountID.String())
	return a, nil
}

func (s *Store) DeleteAccountByTag(_ context.Context, tenant, accountTag string) (*account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.findAccountByTag(tenant, accountTag)
	if a == nil {
		return nil, rating.ErrAccountNotFound
	}
	delete(s.accounts, a.ID.String())
	return a, nil
}

// Account ledger methods

func (s *Store) BeginTransaction(_ context.Context, tenant, accountTag string, txn *account.RunningTransaction) (*account.RunningTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.findAccountByTag(tenant, accountTag)
	if a == nil {
		return nil, rating.ErrAccountNotFound
	}
	if a.FindRunningTransaction(txn.TransactionTag) != nil {
		return nil, rating.ErrTransactionExists
	}

	txn.Status = account.TransactionBegun
	txn.TimestampEnd = nil
	a.RunningTransactions = append(a.RunningTransactions, *txn)
	a.Touch()

	stored := a.RunningTransactions[len(a.RunningTransactions)-1]
	return &stored, nil
}

func (s *Store) EndTransaction(_ context.Context, tenant, accountTag, transactionTag string, timestampEnd time.Time) (*account.RunningTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.findAccountByTag(tenant, accountTag)
	if a == nil {
		return nil, rating.ErrTransactionNotFound
	}
	txn := a.FindRunningTransaction(transactionTag)
	if txn == nil {
		return nil, rating.ErrTransactionNotFound
	}

	txn.Status = account.TransactionEnded
	end := timestampEnd
	txn.TimestampEnd = &end
	a.Touch()

	copied := *txn
	return &copied, nil
}

func (s *Store) CommitTransaction(_ context.Context, tenant, accountTag, transactionTag string, fee int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.findAccountByTag(tenant, accountTag)
	if a == nil {
		return false, nil
	}
	idx := indexOfTransaction(a, transactionTag)
	if idx < 0 {
		return false, nil
	}

	// Balance decrement and list removal happen in one step under the
	// lock, mirroring the single-document atomic update of the mongo
	// backend.
	a.Balance -= fee
	a.RunningTransactions = append(a.RunningTransactions[:idx], a.RunningTransactions[idx+1:]...)
	a.Touch()
	return true, nil
}

func (s *Store) RollbackTransaction(_ context.Context, tenant, accountTag, transactionTag string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.findAccountByTag(tenant, accountTag)
	if a == nil {
		return false, nil
	}
	idx := indexOfTransaction(a, transactionTag)
	if idx < 0 {
		return false, nil
	}

	a.RunningTransactions = append(a.RunningTransactions[:idx], a.RunningTransactions[idx+1:]...)
	a.Touch()
	return true, nil
}

func (s *Store) GetRunningTransaction(_ context.Context, tenant, accountTag, transactionTag string) (*account.RunningTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a := s.findAccountByTag(tenant, accountTag)
	if a == nil {
		return nil, rating.ErrTransactionNotFound
	}
	txn := a.FindRunningTransaction(transactionTag)
	if txn == nil {
		return nil, rating.ErrTransactionNotFound
	}
	copied := *txn
	return &copied, nil
}

func (s *Store) SetBalance(_ context.Context, tenant, accountTag string, tags []string, balance int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := false
	for _, a := range s.accounts {
		if !matchBalanceScope(a, tenant, accountTag, tags) {
			continue
		}
		a.Balance = balance
		a.Touch()
		matched = true
	}
	return matched, nil
}

func (s *Store) IncrementBalance(_ context.Context, tenant, accountTag string, tags []string, delta int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := false
	for _, a := range s.accounts {
		if !matchBalanceScope(a, tenant, accountTag, tags) {
			continue
		}
		a.Balance += delta
		a.Touch()
		matched = true
	}
	return matched, nil
}

// Carrier methods

func (s *Store) UpsertCarrier(_ context.Context, c *carrier.Carrier) (*carrier.Carrier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.carriers[c.ID.String()]
	if existing == nil {
		existing = s.findCarrierByTag(c.Tenant, c.CarrierTag)
	}
	if existing != nil {
		c.ID = existing.ID
		c.CreatedAt = existing.CreatedAt
		c.Touch()
	} else {
		if c.ID.IsNil() {
			c.ID = id.NewCarrierID()
		}
		if c.CreatedAt.IsZero() {
			c.Entity = types.NewEntity()
		}
	}

	s.carriers[c.ID.String()] = c
	return c, nil
}

func (s *Store) GetCarrier(_ context.Context, carrierID id.CarrierID) (*carrier.Carrier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.carriers[carrierID.String()]; ok {
		return c, nil
	}
	return nil, rating.ErrCarrierNotFound
}

func (s *Store) GetCarrierByTag(_ context.Context, tenant, carrierTag string) (*carrier.Carrier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c := s.findCarrierByTag(tenant, carrierTag); c != nil {
		return c, nil
	}
	return nil, rating.ErrCarrierNotFound
}

func (s *Store) ListCarriers(_ context.Context, opts carrier.ListOpts) ([]*carrier.Carrier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*carrier.Carrier, 0)
	for _, c := range s.carriers {
		if matchCarrier(c, opts.Filter) {
			result = append(result, c)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		less := result[i].CarrierTag < result[j].CarrierTag
		if opts.SortField == "id" {
			less = result[i].ID.String() < result[j].ID.String()
		}
		if opts.Descending {
			return !less
		}
		return less
	})

	return page(result, opts.Offset, opts.Limit), nil
}

func (s *Store) CountCarriers(_ context.Context, filter carrier.Filter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, c := range s.carriers {
		if matchCarrier(c, filter) {
			n++
		}
	}
	return n, nil
}

func (s *Store) DeleteCarrier(_ context.Context, carrierID id.CarrierID) (*carrier.Carrier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carriers[carrierID.String()]
	if !ok {
		return nil, rating.ErrCarrierNotFound
	}
	delete(s.carriers, carrierID.String())
	return c, nil
}

func (s *Store) DeleteCarrierByTag(_ context.Context, tenant, carrierTag string) (*carrier.Carrier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.findCarrierByTag(tenant, carrierTag)
	if c == nil {
		return nil, rating.ErrCarrierNotFound
	}
	delete(s.carriers, c.ID.String())
	return c, nil
}

// Price list methods

func (s *Store) UpsertPriceList(_ context.Context, p *pricelist.PriceList) (*pricelist.PriceList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.pricelists[p.ID.String()]
	if existing == nil {
		existing = s.findPriceListByTag(p.Tenant, p.PricelistTag)
	}
	if existing != nil {
		p.ID = existing.ID
		p.CreatedAt = existing.CreatedAt
		p.Touch()
	} else {
		if p.ID.IsNil() {
			p.ID = id.NewPriceListID()
		}
		if p.CreatedAt.IsZero() {
			p.Entity = types.NewEntity()
		}
	}

	s.pricelists[p.ID.String()] = p
	return p, nil
}

func (s *Store) GetPriceList(_ context.Context, priceListID id.PriceListID) (*pricelist.PriceList, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.pricelists[priceListID.String()]; ok {
		return p, nil
	}
	return nil, rating.ErrPriceListNotFound
}

func (s *Store) GetPriceListByTag(_ context.Context, tenant, pricelistTag string) (*pricelist.PriceList, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p := s.findPriceListByTag(tenant, pricelistTag); p != nil {
		return p, nil
	}
	return nil, rating.ErrPriceListNotFound
}

func (s *Store) ListPriceLists(_ context.Context, opts pricelist.ListOpts) ([]*pricelist.PriceList, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*pricelist.PriceList, 0)
	for _, p := range s.pricelists {
		if matchPriceList(p, opts.Filter) {
			result = append(result, p)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		less := result[i].PricelistTag < result[j].PricelistTag
		if opts.Descending {
			return !less
		}
		return less
	})

	return page(result, opts.Offset, opts.Limit), nil
}

func (s *Store) CountPriceLists(_ context.Context, filter pricelist.Filter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, p := range s.pricelists {
		if matchPriceList(p, filter) {
			n++
		}
	}
	return n, nil
}

func (s *Store) DeletePriceList(_ context.Context, priceListID id.PriceListID) (*pricelist.PriceList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pricelists[priceListID.String()]
	if !ok {
		return nil, rating.ErrPriceListNotFound
	}
	delete(s.pricelists, priceListID.String())
	return p, nil
}

func (s *Store) DeletePriceListByTag(_ context.Context, tenant, pricelistTag string) (*pricelist.PriceList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.findPriceListByTag(tenant, pricelistTag)
	if p == nil {
		return nil, rating.ErrPriceListNotFound
	}
	delete(s.pricelists, p.ID.String())
	return p, nil
}

// Rate methods

func (s *Store) UpsertRate(_ context.Context, r *pricelist.Rate) (*pricelist.Rate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.rates[r.ID.String()]
	if existing == nil {
		existing = s.findRateByKey(r.Tenant, r.PricelistTag, r.CarrierTag, r.Prefix)
	}
	if existing != nil {
		r.ID = existing.ID
		r.CreatedAt = existing.CreatedAt
		r.Touch()
	} else {
		if r.ID.IsNil() {
			r.ID = id.NewRateID()
		}
		if r.CreatedAt.IsZero() {
			r.Entity = types.NewEntity()
		}
	}

	s.rates[r.ID.String()] = r
	return r, nil
}

func (s *Store) GetRate(_ context.Context, rateID id.RateID) (*pricelist.Rate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r, ok := s.rates[rateID.String()]; ok {
		return r, nil
	}
	return nil, rating.ErrRateNotFound
}

func (s *Store) GetRateByKey(_ context.Context, tenant, pricelistTag, carrierTag, prefix string) (*pricelist.Rate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r := s.findRateByKey(tenant, pricelistTag, carrierTag, prefix); r != nil {
		return r, nil
	}
	return nil, rating.ErrRateNotFound
}

func (s *Store) ListRates(_ context.Context, opts pricelist.RateListOpts) ([]*pricelist.Rate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*pricelist.Rate, 0)
	for _, r := range s.rates {
		if matchRate(r, opts.Filter) {
			result = append(result, r)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		less := rateLess(result[i], result[j], opts.SortField)
		if opts.Descending {
			return !less
		}
		return less
	})

	return page(result, opts.Offset, opts.Limit), nil
}

func (s *Store) CountRates(_ context.Context, filter pricelist.RateFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, r := range s.rates {
		if matchRate(r, filter) {
			n++
		}
	}
	return n, nil
}

func (s *Store) DeleteRate(_ context.Context, rateID id.RateID) (*pricelist.Rate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rates[rateID.String()]
	if !ok {
		return nil, rating.ErrRateNotFound
	}
	delete(s.rates, rateID.String())
	return r, nil
}

func (s *Store) DeleteRateByKey(_ context.Context, tenant, pricelistTag, carrierTag, prefix string) (*pricelist.Rate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.findRateByKey(tenant, pricelistTag, carrierTag, prefix)
	if r == nil {
		return nil, rating.ErrRateNotFound
	}
	delete(s.rates, r.ID.String())
	return r, nil
}

func (s *Store) FindRates(_ context.Context, q pricelist.RateQuery) ([]*pricelist.Rate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefixes := make(map[string]bool, len(q.Prefixes))
	for _, p := range q.Prefixes {
		prefixes[p] = true
	}

	result := make([]*pricelist.Rate, 0)
	for _, r := range s.rates {
		if r.Tenant != q.Tenant || !r.Active || !prefixes[r.Prefix] {
			continue
		}
		if len(q.PricelistTags) > 0 && !contains(q.PricelistTags, r.PricelistTag) {
			continue
		}
		if len(q.CarrierTags) > 0 && !contains(q.CarrierTags, r.CarrierTag) {
			continue
		}
		result = append(result, r)
	}

	// Longest prefix first, then cheapest, then stable natural keys so
	// equal-length matches resolve the same way on every backend.
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if len(a.Prefix) != len(b.Prefix) {
			return len(a.Prefix) > len(b.Prefix)
		}
		if a.Rate != b.Rate {
			return a.Rate < b.Rate
		}
		if a.CarrierTag != b.CarrierTag {
			return a.CarrierTag < b.CarrierTag
		}
		return a.PricelistTag < b.PricelistTag
	})

	return result, nil
}

// Customer methods

func (s *Store) UpsertCustomer(_ context.Context, c *customer.Customer) (*customer.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.customers[c.ID.String()]
	if existing == nil {
		existing = s.findCustomerByTag(c.Tenant, c.CustomerTag)
	}
	if existing != nil {
		c.ID = existing.ID
		c.CreatedAt = existing.CreatedAt
		c.Touch()
	} else {
		if c.ID.IsNil() {
			c.ID = id.NewCustomerID()
		}
		if c.CreatedAt.IsZero() {
			c.Entity = types.NewEntity()
		}
	}

	s.customers[c.ID.String()] = c
	return c, nil
}

func (s *Store) GetCustomer(_ context.Context, customerID id.CustomerID) (*customer.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.customers[customerID.String()]; ok {
		return c, nil
	}
	return nil, rating.ErrCustomerNotFound
}

func (s *Store) GetCustomerByTag(_ context.Context, tenant, customerTag string) (*customer.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c := s.findCustomerByTag(tenant, customerTag); c != nil {
		return c, nil
	}
	return nil, rating.ErrCustomerNotFound
}

func (s *Store) ListCustomers(_ context.Context, opts customer.ListOpts) ([]*customer.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*customer.Customer, 0)
	for _, c := range s.customers {
		if matchCustomer(c, opts.Filter) {
			result = append(result, c)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		less := result[i].CustomerTag < result[j].CustomerTag
		if opts.Descending {
			return !less
		}
		return less
	})

	return page(result, opts.Offset, opts.Limit), nil
}

func (s *Store) CountCustomers(_ context.Context, filter customer.Filter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, c := range s.customers {
		if matchCustomer(c, filter) {
			n++
		}
	}
	return n, nil
}

func (s *Store) DeleteCustomer(_ context.Context, customerID id.CustomerID) (*customer.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.customers[customerID.String()]
	if !ok {
		return nil, rating.ErrCustomerNotFound
	}
	delete(s.customers, customerID.String())
	return c, nil
}

func (s *Store) DeleteCustomerByTag(_ context.Context, tenant, customerTag string) (*customer.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.findCustomerByTag(tenant, customerTag)
	if c == nil {
		return nil, rating.ErrCustomerNotFound
	}
	delete(s.customers, c.ID.String())
	return c, nil
}

// Seller methods

func (s *Store) UpsertSeller(_ context.Context, sl *seller.Seller) (*seller.Seller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.sellers[sl.ID.String()]
	if existing == nil {
		existing = s.findSellerByTag(sl.Tenant, sl.SellerTag)
	}
	if existing != nil {
		sl.ID = existing.ID
		sl.CreatedAt = existing.CreatedAt
		sl.Touch()
	} else {
		if sl.ID.IsNil() {
			sl.ID = id.NewSellerID()
		}
		if sl.CreatedAt.IsZero() {
			sl.Entity = types.NewEntity()
		}
	}

	s.sellers[sl.ID.String()] = sl
	return sl, nil
}

func (s *Store) GetSeller(_ context.Context, sellerID id.SellerID) (*seller.Seller, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sl, ok := s.sellers[sellerID.String()]; ok {
		return sl, nil
	}
	return nil, rating.ErrSellerNotFound
}

func (s *Store) GetSellerByTag(_ context.Context, tenant, sellerTag string) (*seller.Seller, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sl := s.findSellerByTag(tenant, sellerTag); sl != nil {
		return sl, nil
	}
	return nil, rating.ErrSellerNotFound
}

func (s *Store) ListSellers(_ context.Context, opts seller.ListOpts) ([]*seller.Seller, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*seller.Seller, 0)
	for _, sl := range s.sellers {
		if matchSeller(sl, opts.Filter) {
			result = append(result, sl)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		less := result[i].SellerTag < result[j].SellerTag
		if opts.Descending {
			return !less
		}
		return less
	})

	return page(result, opts.Offset, opts.Limit), nil
}

func (s *Store) CountSellers(_ context.Context, filter seller.Filter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, sl := range s.sellers {
		if matchSeller(sl, filter) {
			n++
		}
	}
	return n, nil
}

func (s *Store) DeleteSeller(_ context.Context, sellerID id.SellerID) (*seller.Seller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.sellers[sellerID.String()]
	if !ok {
		return nil, rating.ErrSellerNotFound
	}
	delete(s.sellers, sellerID.String())
	return sl, nil
}

func (s *Store) DeleteSellerByTag(_ context.Context, tenant, sellerTag string) (*seller.Seller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl := s.findSellerByTag(tenant, sellerTag)
	if sl == nil {
		return nil, rating.ErrSellerNotFound
	}
	delete(s.sellers, sl.ID.String())
	return sl, nil
}

// Invoice methods

func (s *Store) UpsertInvoice(_ context.Context, inv *invoice.Invoice) (*invoice.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.invoices[inv.ID.String()]
	if existing == nil {
		existing = s.findInvoiceByNumber(inv.Tenant, inv.InvoiceNumber)
	}
	if existing != nil {
		inv.ID = existing.ID
		inv.CreatedAt = existing.CreatedAt
		inv.Touch()
	} else {
		if inv.ID.IsNil() {
			inv.ID = id.NewInvoiceID()
		}
		if inv.CreatedAt.IsZero() {
			inv.Entity = types.NewEntity()
		}
	}

	s.invoices[inv.ID.String()] = inv
	return inv, nil
}

func (s *Store) GetInvoice(_ context.Context, invoiceID id.InvoiceID) (*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if inv, ok := s.invoices[invoiceID.String()]; ok {
		return inv, nil
	}
	return nil, rating.ErrInvoiceNotFound
}

func (s *Store) GetInvoiceByNumber(_ context.Context, tenant, invoiceNumber string) (*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if inv := s.findInvoiceByNumber(tenant, invoiceNumber); inv != nil {
		return inv, nil
	}
	return nil, rating.ErrInvoiceNotFound
}

func (s *Store) ListInvoices(_ context.Context, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*invoice.Invoice, 0)
	for _, inv := range s.invoices {
		if matchInvoice(inv, opts.Filter) {
			result = append(result, inv)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		less := result[i].InvoiceNumber < result[j].InvoiceNumber
		if opts.Descending {
			return !less
		}
		return less
	})

	return page(result, opts.Offset, opts.Limit), nil
}

func (s *Store) CountInvoices(_ context.Context, filter invoice.Filter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, inv := range s.invoices {
		if matchInvoice(inv, filter) {
			n++
		}
	}
	return n, nil
}

func (s *Store) DeleteInvoice(_ context.Context, invoiceID id.InvoiceID) (*invoice.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invoices[invoiceID.String()]
	if !ok {
		return nil, rating.ErrInvoiceNotFound
	}
	delete(s.invoices, invoiceID.String())
	return inv, nil
}

func (s *Store) DeleteInvoiceByNumber(_ context.Context, tenant, invoiceNumber string) (*invoice.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv := s.findInvoiceByNumber(tenant, invoiceNumber)
	if inv == nil {
		return nil, rating.ErrInvoiceNotFound
	}
	delete(s.invoices, inv.ID.String())
	return inv, nil
}

// Archived transaction methods

func (s *Store) UpsertTransaction(_ context.Context, t *transaction.Transaction) (*transaction.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.transactions[t.ID.String()]
	if existing == nil {
		existing = s.findTransactionByTag(t.Tenant, t.TransactionTag, t.AccountTag)
	}
	if existing != nil {
		t.ID = existing.ID
		t.CreatedAt = existing.CreatedAt
		t.Touch()
	} else {
		if t.ID.IsNil() {
			t.ID = id.NewTransactionID()
		}
		if t.CreatedAt.IsZero() {
			t.Entity = types.NewEntity()
		}
	}

	s.transactions[t.ID.String()] = t
	return t, nil
}

func (s *Store) GetTransaction(_ context.Context, transactionID id.TransactionID) (*transaction.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if t, ok := s.transactions[transactionID.String()]; ok {
		return t, nil
	}
	return nil, rating.ErrTransactionNotFound
}

func (s *Store) GetTransactionByTag(_ context.Context, tenant, transactionTag, accountTag string) (*transaction.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if t := s.findTransactionByTag(tenant, transactionTag, accountTag); t != nil {
		return t, nil
	}
	return nil, rating.ErrTransactionNotFound
}

func (s *Store) ListTransactions(_ context.Context, opts transaction.ListOpts) ([]*transaction.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*transaction.Transaction, 0)
	for _, t := range s.transactions {
		if matchTransaction(t, opts.Filter) {
			result = append(result, t)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		less := result[i].TransactionTag < result[j].TransactionTag
		if opts.Descending {
			return !less
		}
		return less
	})

	return page(result, opts.Offset, opts.Limit), nil
}

func (s *Store) CountTransactions(_ context.Context, filter transaction.Filter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, t := range s.transactions {
		if matchTransaction(t, filter) {
			n++
		}
	}
	return n, nil
}

func (s *Store) DeleteTransaction(_ context.Context, transactionID id.TransactionID) (*transaction.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.transactions[transactionID.String()]
	if !ok {
		return nil, rating.ErrTransactionNotFound
	}
	delete(s.transactions, transactionID.String())
	return t, nil
}

func (s *Store) DeleteTransactionByTag(_ context.Context, tenant, transactionTag, accountTag string) (*transaction.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.findTransactionByTag(tenant, transactionTag, accountTag)
	if t == nil {
		return nil, rating.ErrTransactionNotFound
	}
	delete(s.transactions, t.ID.String())
	return t, nil
}

// Core methods

func (s *Store) Migrate(_ context.Context) error { return nil }

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return rating.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

// Lookup helpers. Callers hold s.mu.

func (s *Store) findAccountByTag(tenant, accountTag string) *account.Account {
	for _, a := range s.accounts {
		if a.Tenant == tenant && a.AccountTag == accountTag {
			return a
		}
	}
	return nil
}

func (s *Store) findCarrierByTag(tenant, carrierTag string) *carrier.Carrier {
	for _, c := range s.carriers {
		if c.Tenant == tenant && c.CarrierTag == carrierTag {
			return c
		}
	}
	return nil
}

func (s *Store) findPriceListByTag(tenant, pricelistTag string) *pricelist.PriceList {
	for _, p := range s.pricelists {
		if p.Tenant == tenant && p.PricelistTag == pricelistTag {
			return p
		}
	}
	return nil
}

func (s *Store) findRateByKey(tenant, pricelistTag, carrierTag, prefix string) *pricelist.Rate {
	for _, r := range s.rates {
		if r.Tenant == tenant && r.PricelistTag == pricelistTag &&
			r.CarrierTag == carrierTag && r.Prefix == prefix {
			return r
		}
	}
	return nil
}

func (s *Store) findCustomerByTag(tenant, customerTag string) *customer.Customer {
	for _, c := range s.customers {
		if c.Tenant == tenant && c.CustomerTag == customerTag {
			return c
		}
	}
	return nil
}

func (s *Store) findSellerByTag(tenant, sellerTag string) *seller.Seller {
	for _, sl := range s.sellers {
		if sl.Tenant == tenant && sl.SellerTag == sellerTag {
			return sl
		}
	}
	return nil
}

func (s *Store) findInvoiceByNumber(tenant, invoiceNumber string) *invoice.Invoice {
	for _, inv := range s.invoices {
		if inv.Tenant == tenant && inv.InvoiceNumber == invoiceNumber {
			return inv
		}
	}
	return nil
}

func (s *Store) findTransactionByTag(tenant, transactionTag, accountTag string) *transaction.Transaction {
	for _, t := range s.transactions {
		if t.Tenant == tenant && t.TransactionTag == transactionTag && t.AccountTag == accountTag {
			return t
		}
	}
	return nil
}

func indexOfTransaction(a *account.Account, transactionTag string) int {
	for i := range a.RunningTransactions {
		if a.RunningTransactions[i].TransactionTag == transactionTag {
			return i
		}
	}
	return -1
}

func matchBalanceScope(a *account.Account, tenant, accountTag string, tags []string) bool {
	if a.Tenant != tenant {
		return false
	}
	if accountTag != "" && a.AccountTag != accountTag {
		return false
	}
	if len(tags) > 0 && !intersects(a.Tags, tags) {
		return false
	}
	return true
}

// Filter matchers

func matchAccount(a *account.Account, f account.Filter) bool {
	if f.Tenant != "" && a.Tenant != f.Tenant {
		return false
	}
	if f.AccountTag != "" && a.AccountTag != f.AccountTag {
		return false
	}
	if f.CustomerTag != "" && a.CustomerTag != f.CustomerTag {
		return false
	}
	if f.Type != "" && a.Type != f.Type {
		return false
	}
	if f.Active != nil && a.Active != *f.Active {
		return false
	}
	if len(f.IDs) > 0 && !containsID(f.IDs, a.ID) {
		return false
	}
	if f.Q != "" && !containsFold(f.Q, a.AccountTag, a.Name) {
		return false
	}
	if f.WithRunningTransactions && !hasRunningOutbound(a) {
		return false
	}
	if f.WithLongRunningTransactions && !hasStaleRunning(a, f.StaleBefore) {
		return false
	}
	return true
}

func hasRunningOutbound(a *account.Account) bool {
	for i := range a.RunningTransactions {
		t := &a.RunningTransactions[i]
		if t.InProgress() && !t.Inbound {
			return true
		}
	}
	return false
}

func hasStaleRunning(a *account.Account, cutoff time.Time) bool {
	for i := range a.RunningTransactions {
		t := &a.RunningTransactions[i]
		if t.InProgress() && t.TimestampBegin.Before(cutoff) {
			return true
		}
	}
	return false
}

func matchCarrier(c *carrier.Carrier, f carrier.Filter) bool {
	if f.Tenant != "" && c.Tenant != f.Tenant {
		return false
	}
	if f.CarrierTag != "" && c.CarrierTag != f.CarrierTag {
		return false
	}
	if len(f.IDs) > 0 && !containsID(f.IDs, c.ID) {
		return false
	}
	if f.Q != "" && !containsFold(f.Q, c.CarrierTag, c.Host) {
		return false
	}
	return true
}

func matchPriceList(p *pricelist.PriceList, f pricelist.Filter) bool {
	if f.Tenant != "" && p.Tenant != f.Tenant {
		return false
	}
	if f.PricelistTag != "" && p.PricelistTag != f.PricelistTag {
		return false
	}
	if len(f.IDs) > 0 && !containsID(f.IDs, p.ID) {
		return false
	}
	if f.Q != "" && !containsFold(f.Q, p.PricelistTag, p.Name) {
		return false
	}
	return true
}

func matchRate(r *pricelist.Rate, f pricelist.RateFilter) bool {
	if f.Tenant != "" && r.Tenant != f.Tenant {
		return false
	}
	if f.PricelistTag != "" && r.PricelistTag != f.PricelistTag {
		return false
	}
	if f.CarrierTag != "" && r.CarrierTag != f.CarrierTag {
		return false
	}
	if !f.PricelistID.IsNil() && r.PricelistID.String() != f.PricelistID.String() {
		return false
	}
	if !f.CarrierID.IsNil() && r.CarrierID.String() != f.CarrierID.String() {
		return false
	}
	if f.Prefix != "" && r.Prefix != f.Prefix {
		return false
	}
	if f.Active != nil && r.Active != *f.Active {
		return false
	}
	if len(f.IDs) > 0 && !containsID(f.IDs, r.ID) {
		return false
	}
	if f.Q != "" && !containsFold(f.Q, r.Prefix, r.Description) {
		return false
	}
	return true
}

func matchCustomer(c *customer.Customer, f customer.Filter) bool {
	if f.Tenant != "" && c.Tenant != f.Tenant {
		return false
	}
	if f.CustomerTag != "" && c.CustomerTag != f.CustomerTag {
		return false
	}
	if len(f.IDs) > 0 && !containsID(f.IDs, c.ID) {
		return false
	}
	if f.Q != "" && !containsFold(f.Q, c.CustomerTag, c.CompanyName, c.Email) {
		return false
	}
	return true
}

func matchSeller(sl *seller.Seller, f seller.Filter) bool {
	if f.Tenant != "" && sl.Tenant != f.Tenant {
		return false
	}
	if f.SellerTag != "" && sl.SellerTag != f.SellerTag {
		return false
	}
	if len(f.IDs) > 0 && !containsID(f.IDs, sl.ID) {
		return false
	}
	if f.Q != "" && !containsFold(f.Q, sl.SellerTag, sl.CompanyName, sl.Email) {
		return false
	}
	return true
}

func matchInvoice(inv *invoice.Invoice, f invoice.Filter) bool {
	if f.Tenant != "" && inv.Tenant != f.Tenant {
		return false
	}
	if f.InvoiceNumber != "" && inv.InvoiceNumber != f.InvoiceNumber {
		return false
	}
	if f.CustomerTag != "" && inv.CustomerTag != f.CustomerTag {
		return false
	}
	if f.InvoiceDate != nil && !inv.InvoiceDate.Equal(*f.InvoiceDate) {
		return false
	}
	if len(f.IDs) > 0 && !containsID(f.IDs, inv.ID) {
		return false
	}
	if f.Q != "" && !containsFold(f.Q, inv.InvoiceNumber, inv.CustomerTag) {
		return false
	}
	return true
}

func matchTransaction(t *transaction.Transaction, f transaction.Filter) bool {
	if f.Tenant != "" && t.Tenant != f.Tenant {
		return false
	}
	if f.TransactionTag != "" && t.TransactionTag != f.TransactionTag {
		return false
	}
	if f.AccountTag != "" && t.AccountTag != f.AccountTag {
		return false
	}
	if f.InvoiceNumber != "" && t.InvoiceNumber != f.InvoiceNumber {
		return false
	}
	if f.Primary != nil && t.Primary != *f.Primary {
		return false
	}
	if f.Inbound != nil && t.Inbound != *f.Inbound {
		return false
	}
	if len(f.IDs) > 0 && !containsID(f.IDs, t.ID) {
		return false
	}
	if f.Q != "" && !containsFold(f.Q, t.TransactionTag, t.AccountTag, t.Destination) {
		return false
	}
	return true
}

func accountLess(a, b *account.Account, sortField string) bool {
	switch sortField {
	case "balance":
		return a.Balance < b.Balance
	case "name":
		return a.Name < b.Name
	case "id":
		return a.ID.String() < b.ID.String()
	default:
		return a.AccountTag < b.AccountTag
	}
}

func rateLess(a, b *pricelist.Rate, sortField string) bool {
	switch sortField {
	case "rate":
		return a.Rate < b.Rate
	case "carrier_tag":
		return a.CarrierTag < b.CarrierTag
	case "id":
		return a.ID.String() < b.ID.String()
	default:
		return a.Prefix < b.Prefix
	}
}

// Slice helpers

func page[T any](items []T, offset, limit int) []T {
	start := offset
	if start > len(items) {
		start = len(items)
	}
	end := start + limit
	if limit == 0 || end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func intersects(a, b []string) bool {
	for _, s := range a {
		if contains(b, s) {
			return true
		}
	}
	return false
}

func containsID(ids []id.ID, target id.ID) bool {
	for _, i := range ids {
		if i.String() == target.String() {
			return true
		}
	}
	return false
}

func containsFold(q string, fields ...string) bool {
	q = strings.ToLower(q)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}
