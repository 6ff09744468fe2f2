package rating

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/xraph/rating/account"
	"github.com/xraph/rating/carrier"
	"github.com/xraph/rating/customer"
	"github.com/xraph/rating/id"
	"github.com/xraph/rating/invoice"
	"github.com/xraph/rating/plugin"
	"github.com/xraph/rating/pricelist"
	"github.com/xraph/rating/seller"
	"github.com/xraph/rating/store"
	"github.com/xraph/rating/transaction"
	"github.com/xraph/rating/types"
)

const (
	// DefaultTenant is used when an operation does not name a tenant.
	DefaultTenant = "default"

	// DefaultStaleTransactionAge is the age after which an in-progress
	// transaction is considered abandoned.
	DefaultStaleTransactionAge = 3 * time.Hour
)

// Engine is the main rating and ledger engine.
type Engine struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger

	// Configuration
	defaultTenant       string
	staleTransactionAge time.Duration
}

// New creates a new Engine instance.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:               s,
		plugins:             plugin.NewRegistry(),
		logger:              slog.Default(),
		defaultTenant:       DefaultTenant,
		staleTransactionAge: DefaultStaleTransactionAge,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Option configures an Engine instance.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithDefaultTenant sets the tenant used when operations omit one.
func WithDefaultTenant(tenant string) Option {
	return func(e *Engine) {
		if tenant != "" {
			e.defaultTenant = tenant
		}
	}
}

// WithStaleTransactionAge sets the age after which in-progress
// transactions are reported as stale.
func WithStaleTransactionAge(age time.Duration) Option {
	return func(e *Engine) {
		if age > 0 {
			e.staleTransactionAge = age
		}
	}
}

// Start migrates the store and initializes plugins.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.store.Migrate(ctx); err != nil {
		return err
	}

	e.plugins.EmitInit(ctx, e)

	e.logger.Info("rating engine started",
		"default_tenant", e.defaultTenant,
		"stale_transaction_age", e.staleTransactionAge,
	)

	return nil
}

// Stop shuts down the Engine.
func (e *Engine) Stop() error {
	ctx := context.Background()
	e.plugins.EmitShutdown(ctx)

	return e.store.Close()
}

// Store returns the underlying store for direct queries.
func (e *Engine) Store() store.Store { return e.store }

// StaleTransactionAge returns the configured stale transaction age.
func (e *Engine) StaleTransactionAge() time.Duration { return e.staleTransactionAge }

// tenantOrDefault substitutes the configured default tenant for an
// empty one.
func (e *Engine) tenantOrDefault(tenant string) string {
	if tenant == "" {
		return e.defaultTenant
	}
	return tenant
}

// ──────────────────────────────────────────────────
// Rating
// ──────────────────────────────────────────────────

// ResolveDestinationRate returns the best rate for the destination
// under the account's price list and carrier constraints, or (nil, nil)
// if no prefix matches. A non-empty carrierTagsOverride replaces
// carrierTags entirely.
func (e *Engine) ResolveDestinationRate(ctx context.Context, tenant string, pricelistTags, carrierTags, carrierTagsOverride []string, destination string) (*pricelist.Rate, error) {
	tenant = e.tenantOrDefault(tenant)

	prefixes := pricelist.PrefixCandidates(destination)
	if len(prefixes) == 0 {
		return nil, nil
	}

	matches, err := e.store.FindRates(ctx, pricelist.RateQuery{
		Tenant:        tenant,
		PricelistTags: pricelistTags,
		CarrierTags:   effectiveCarrierTags(carrierTags, carrierTagsOverride),
		Prefixes:      prefixes,
	})
	if err != nil {
		return nil, err
	}

	if len(matches) == 0 {
		e.plugins.EmitRateResolved(ctx, tenant, "", destination, nil)
		return nil, nil
	}

	// The store orders matches longest prefix first with deterministic
	// tie-breaks, so the head is the winner.
	best := matches[0]
	e.plugins.EmitRateResolved(ctx, tenant, "", destination, best)
	return best, nil
}

// ResolveAccountRate resolves the best rate for a destination as seen
// from a specific account, honoring its price list tags and carrier
// override.
func (e *Engine) ResolveAccountRate(ctx context.Context, tenant, accountTag, destination string) (*pricelist.Rate, error) {
	tenant = e.tenantOrDefault(tenant)

	a, err := e.store.GetAccountByTag(ctx, tenant, accountTag)
	if err != nil {
		return nil, err
	}

	prefixes := pricelist.PrefixCandidates(destination)
	if len(prefixes) == 0 {
		return nil, nil
	}

	matches, err := e.store.FindRates(ctx, pricelist.RateQuery{
		Tenant:        tenant,
		PricelistTags: a.PricelistTags,
		CarrierTags:   a.EffectiveCarrierTags(),
		Prefixes:      prefixes,
	})
	if err != nil {
		return nil, err
	}

	if len(matches) == 0 {
		e.plugins.EmitRateResolved(ctx, tenant, accountTag, destination, nil)
		return nil, nil
	}

	best := matches[0]
	e.plugins.EmitRateResolved(ctx, tenant, accountTag, destination, best)
	return best, nil
}

// LeastCostRouting returns the carriers able to reach the destination,
// cheapest rate first. Rates whose carrier no longer resolves or is
// inactive are dropped; a carrier reachable through several matching
// rates appears once per rate.
func (e *Engine) LeastCostRouting(ctx context.Context, tenant string, carrierTags, carrierTagsOverride []string, destination string) ([]*carrier.Carrier, error) {
	tenant = e.tenantOrDefault(tenant)

	prefixes := pricelist.PrefixCandidates(destination)
	if len(prefixes) == 0 {
		return nil, nil
	}

	matches, err := e.store.FindRates(ctx, pricelist.RateQuery{
		Tenant:      tenant,
		CarrierTags: effectiveCarrierTags(carrierTags, carrierTagsOverride),
		Prefixes:    prefixes,
	})
	if err != nil {
		return nil, err
	}

	// Routing wants the cheapest rate first. Longer prefixes and then
	// carrier tags break ties the same way on every run.
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Rate != b.Rate {
			return a.Rate < b.Rate
		}
		if len(a.Prefix) != len(b.Prefix) {
			return len(a.Prefix) > len(b.Prefix)
		}
		return a.CarrierTag < b.CarrierTag
	})

	routes := make([]*carrier.Carrier, 0, len(matches))
	for _, r := range matches {
		c, err := e.store.GetCarrierByTag(ctx, tenant, r.CarrierTag)
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, err
		}
		if !c.Active {
			continue
		}
		routes = append(routes, c)
	}

	e.plugins.EmitRouteComputed(ctx, tenant, "", destination, len(routes))
	return routes, nil
}

// effectiveCarrierTags returns the override when set, the base tags
// otherwise.
func effectiveCarrierTags(carrierTags, carrierTagsOverride []string) []string {
	if len(carrierTagsOverride) > 0 {
		return carrierTagsOverride
	}
	return carrierTags
}

// ──────────────────────────────────────────────────
// Account ledger
// ──────────────────────────────────────────────────

// BeginTransaction appends a running transaction to the account. It
// returns (nil, nil) when the account does not exist; a transaction tag
// already running on the account is rejected with ErrTransactionExists.
func (e *Engine) BeginTransaction(ctx context.Context, tenant, accountTag string, txn *account.RunningTransaction) (*account.RunningTransaction, error) {
	tenant = e.tenantOrDefault(tenant)

	if txn == nil || txn.TransactionTag == "" {
		return nil, ValidationError{Field: "transaction_tag", Message: "must not be empty"}
	}
	if txn.TimestampBegin.IsZero() {
		txn.TimestampBegin = time.Now().UTC()
	}

	begun, err := e.store.BeginTransaction(ctx, tenant, accountTag, txn)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, nil
		}
		return nil, err
	}

	e.plugins.EmitTransactionBegun(ctx, tenant, accountTag, begun)
	e.logger.Debug("transaction begun",
		"tenant", tenant,
		"account_tag", accountTag,
		"transaction_tag", begun.TransactionTag,
	)
	return begun, nil
}

// EndTransaction marks a running transaction ended in place. It returns
// (nil, nil) when no matching transaction is running.
func (e *Engine) EndTransaction(ctx context.Context, tenant, accountTag, transactionTag string, timestampEnd time.Time) (*account.RunningTransaction, error) {
	tenant = e.tenantOrDefault(tenant)

	if timestampEnd.IsZero() {
		timestampEnd = time.Now().UTC()
	}

	ended, err := e.store.EndTransaction(ctx, tenant, accountTag, transactionTag, timestampEnd)
	if err != nil {
		if errors.Is(err, ErrTransactionNotFound) {
			return nil, nil
		}
		return nil, err
	}

	e.plugins.EmitTransactionEnded(ctx, tenant, accountTag, ended)
	e.logger.Debug("transaction ended",
		"tenant", tenant,
		"account_tag", accountTag,
		"transaction_tag", transactionTag,
	)
	return ended, nil
}

// CommitTransaction settles a running transaction: one atomic update
// charges the fee against the balance and removes the entry. The bool
// result reports whether a matching transaction existed; committing an
// unknown tag is not an error.
func (e *Engine) CommitTransaction(ctx context.Context, tenant, accountTag, transactionTag string, fee int64) (bool, error) {
	tenant = e.tenantOrDefault(tenant)

	committed, err := e.store.CommitTransaction(ctx, tenant, accountTag, transactionTag, fee)
	if err != nil {
		return false, err
	}
	if !committed {
		return false, nil
	}

	e.plugins.EmitTransactionCommitted(ctx, tenant, accountTag, transactionTag, fee)
	e.logger.Debug("transaction committed",
		"tenant", tenant,
		"account_tag", accountTag,
		"transaction_tag", transactionTag,
		"fee", fee,
	)
	return true, nil
}

// SettleTransaction computes the fee of an ended running transaction
// from its rate snapshot and commits it. The returned Money is the
// charged fee; the bool mirrors CommitTransaction.
func (e *Engine) SettleTransaction(ctx context.Context, tenant, accountTag, transactionTag, currency string) (types.Money, bool, error) {
	tenant = e.tenantOrDefault(tenant)

	txn, err := e.store.GetRunningTransaction(ctx, tenant, accountTag, transactionTag)
	if err != nil {
		if errors.Is(err, ErrTransactionNotFound) {
			return types.Zero(currency), false, nil
		}
		return types.Zero(currency), false, err
	}

	if txn.Status != account.TransactionEnded || txn.TimestampEnd == nil {
		return types.Zero(currency), false, ValidationError{
			Field:   "transaction_tag",
			Message: "transaction must be ended before settling",
		}
	}

	fee := types.Zero(currency)
	if txn.DestinationRate != nil {
		fee = txn.DestinationRate.Cost(txn.TimestampEnd.Sub(txn.TimestampBegin), currency)
	}

	committed, err := e.CommitTransaction(ctx, tenant, accountTag, transactionTag, fee.Amount)
	if err != nil {
		return types.Zero(currency), false, err
	}
	return fee, committed, nil
}

// RollbackTransaction discards a running transaction without touching
// the balance. The bool result reports whether a matching transaction
// existed.
func (e *Engine) RollbackTransaction(ctx context.Context, tenant, accountTag, transactionTag string) (bool, error) {
	tenant = e.tenantOrDefault(tenant)

	rolledBack, err := e.store.RollbackTransaction(ctx, tenant, accountTag, transactionTag)
	if err != nil {
		return false, err
	}
	if !rolledBack {
		return false, nil
	}

	e.plugins.EmitTransactionRolledBack(ctx, tenant, accountTag, transactionTag)
	e.logger.Debug("transaction rolled back",
		"tenant", tenant,
		"account_tag", accountTag,
		"transaction_tag", transactionTag,
	)
	return true, nil
}

// GetRunningTransaction returns a transaction currently running on the
// account.
func (e *Engine) GetRunningTransaction(ctx context.Context, tenant, accountTag, transactionTag string) (*account.RunningTransaction, error) {
	return e.store.GetRunningTransaction(ctx, e.tenantOrDefault(tenant), accountTag, transactionTag)
}

// SetBalance sets the balance of every account matched by the tenant,
// the optional account tag and the optional tag set. It reports whether
// at least one account matched.
func (e *Engine) SetBalance(ctx context.Context, tenant, accountTag string, tags []string, balance int64) (bool, error) {
	tenant = e.tenantOrDefault(tenant)

	matched, err := e.store.SetBalance(ctx, tenant, accountTag, tags, balance)
	if err != nil {
		return false, err
	}
	if matched {
		e.plugins.EmitBalanceAdjusted(ctx, tenant, accountTag, tags, balance, true)
	}
	return matched, nil
}

// IncrementBalance adds delta to the balance of every matched account.
// Negative deltas charge. It reports whether at least one account
// matched.
func (e *Engine) IncrementBalance(ctx context.Context, tenant, accountTag string, tags []string, delta int64) (bool, error) {
	tenant = e.tenantOrDefault(tenant)

	matched, err := e.store.IncrementBalance(ctx, tenant, accountTag, tags, delta)
	if err != nil {
		return false, err
	}
	if matched {
		e.plugins.EmitBalanceAdjusted(ctx, tenant, accountTag, tags, delta, false)
	}
	return matched, nil
}

// ListAccountsWithRunningTransactions returns accounts holding at least
// one in-progress outbound transaction.
func (e *Engine) ListAccountsWithRunningTransactions(ctx context.Context, tenant string) ([]*account.Account, error) {
	return e.store.ListAccounts(ctx, account.ListOpts{
		Filter: account.Filter{
			Tenant:                  e.tenantOrDefault(tenant),
			WithRunningTransactions: true,
		},
	})
}

// ListAccountsWithStaleTransactions returns accounts holding an
// in-progress transaction older than the configured stale age.
func (e *Engine) ListAccountsWithStaleTransactions(ctx context.Context, tenant string) ([]*account.Account, error) {
	return e.store.ListAccounts(ctx, account.ListOpts{
		Filter: account.Filter{
			Tenant:                      e.tenantOrDefault(tenant),
			WithLongRunningTransactions: true,
			StaleBefore:                 time.Now().UTC().Add(-e.staleTransactionAge),
		},
	})
}

// ──────────────────────────────────────────────────
// Account management
// ──────────────────────────────────────────────────

// UpsertAccount creates or updates an account, keyed by id when set,
// by (tenant, account_tag) otherwise. A customer tag, when present,
// must reference an existing customer.
func (e *Engine) UpsertAccount(ctx context.Context, a *account.Account) (*account.Account, error) {
	a.Tenant = e.tenantOrDefault(a.Tenant)

	if a.AccountTag == "" {
		return nil, ValidationError{Field: "account_tag", Message: "must not be empty"}
	}
	if a.CustomerTag != "" {
		if _, err := e.store.GetCustomerByTag(ctx, a.Tenant, a.CustomerTag); err != nil {
			if IsNotFound(err) {
				return nil, ValidationError{Field: "customer_tag", Message: "unknown customer: " + a.CustomerTag}
			}
			return nil, err
		}
	}

	return e.store.UpsertAccount(ctx, a)
}

// GetAccount retrieves an account by id or by (tenant, account_tag).
func (e *Engine) GetAccount(ctx context.Context, accountID id.AccountID, tenant, accountTag string) (*account.Account, error) {
	if !accountID.IsNil() {
		return e.store.GetAccount(ctx, accountID)
	}
	if accountTag == "" {
		return nil, ErrAmbiguousLookup
	}
	return e.store.GetAccountByTag(ctx, e.tenantOrDefault(tenant), accountTag)
}

// ListAccounts lists accounts matching the filter.
func (e *Engine) ListAccounts(ctx context.Context, opts account.ListOpts) ([]*account.Account, error) {
	opts.Filter.Tenant = e.tenantOrDefault(opts.Filter.Tenant)
	return e.store.ListAccounts(ctx, opts)
}

// CountAccounts counts accounts matching the filter.
func (e *Engine) CountAccounts(ctx context.Context, filter account.Filter) (int64, error) {
	filter.Tenant = e.tenantOrDefault(filter.Tenant)
	return e.store.CountAccounts(ctx, filter)
}

// DeleteAccount removes an account by id or by (tenant, account_tag)
// and returns it.
func (e *Engine) DeleteAccount(ctx context.Context, accountID id.AccountID, tenant, accountTag string) (*account.Account, error) {
	if !accountID.IsNil() {
		return e.store.DeleteAccount(ctx, accountID)
	}
	if accountTag == "" {
		return nil, ErrAmbiguousLookup
	}
	return e.store.DeleteAccountByTag(ctx, e.tenantOrDefault(tenant), accountTag)
}

// ──────────────────────────────────────────────────
// Carrier management
// ──────────────────────────────────────────────────

// UpsertCarrier creates or updates a carrier.
func (e *Engine) UpsertCarrier(ctx context.Context, c *carrier.Carrier) (*carrier.Carrier, error) {
	c.Tenant = e.tenantOrDefault(c.Tenant)

	if c.CarrierTag == "" {
		return nil, ValidationError{Field: "carrier_tag", Message: "must not be empty"}
	}

	return e.store.UpsertCarrier(ctx, c)
}

// GetCarrier retrieves a carrier by id or by (tenant, carrier_tag).
func (e *Engine) GetCarrier(ctx context.Context, carrierID id.CarrierID, tenant, carrierTag string) (*carrier.Carrier, error) {
	if !carrierID.IsNil() {
		return e.store.GetCarrier(ctx, carrierID)
	}
	if carrierTag == "" {
		return nil, ErrAmbiguousLookup
	}
	return e.store.GetCarrierByTag(ctx, e.tenantOrDefault(tenant), carrierTag)
}

// ListCarriers lists carriers matching the filter.
func (e *Engine) ListCarriers(ctx context.Context, opts carrier.ListOpts) ([]*carrier.Carrier, error) {
	opts.Filter.Tenant = e.tenantOrDefault(opts.Filter.Tenant)
	return e.store.ListCarriers(ctx, opts)
}

// CountCarriers counts carriers matching the filter.
func (e *Engine) CountCarriers(ctx context.Context, filter carrier.Filter) (int64, error) {
	filter.Tenant = e.tenantOrDefault(filter.Tenant)
	return e.store.CountCarriers(ctx, filter)
}

// DeleteCarrier removes a carrier by id or by (tenant, carrier_tag).
func (e *Engine) DeleteCarrier(ctx context.Context, carrierID id.CarrierID, tenant, carrierTag string) (*carrier.Carrier, error) {
	if !carrierID.IsNil() {
		return e.store.DeleteCarrier(ctx, carrierID)
	}
	if carrierTag == "" {
		return nil, ErrAmbiguousLookup
	}
	return e.store.DeleteCarrierByTag(ctx, e.tenantOrDefault(tenant), carrierTag)
}

// ──────────────────────────────────────────────────
// Price list and rate management
// ──────────────────────────────────────────────────

// UpsertPriceList creates or updates a price list.
func (e *Engine) UpsertPriceList(ctx context.Context, p *pricelist.PriceList) (*pricelist.PriceList, error) {
	p.Tenant = e.tenantOrDefault(p.Tenant)

	if p.PricelistTag == "" {
		return nil, ValidationError{Field: "pricelist_tag", Message: "must not be empty"}
	}

	return e.store.UpsertPriceList(ctx, p)
}

// GetPriceList retrieves a price list by id or by (tenant,
// pricelist_tag).
func (e *Engine) GetPriceList(ctx context.Context, priceListID id.PriceListID, tenant, pricelistTag string) (*pricelist.PriceList, error) {
	if !priceListID.IsNil() {
		return e.store.GetPriceList(ctx, priceListID)
	}
	if pricelistTag == "" {
		return nil, ErrAmbiguousLookup
	}
	return e.store.GetPriceListByTag(ctx, e.tenantOrDefault(tenant), pricelistTag)
}

// ListPriceLists lists price lists matching the filter.
func (e *Engine) ListPriceLists(ctx context.Context, opts pricelist.ListOpts) ([]*pricelist.PriceList, error) {
	opts.Filter.Tenant = e.tenantOrDefault(opts.Filter.Tenant)
	return e.store.ListPriceLists(ctx, opts)
}

// CountPriceLists counts price lists matching the filter.
func (e *Engine) CountPriceLists(ctx context.Context, filter pricelist.Filter) (int64, error) {
	filter.Tenant = e.tenantOrDefault(filter.Tenant)
	return e.store.CountPriceLists(ctx, filter)
}

// DeletePriceList removes a price list by id or by (tenant,
// pricelist_tag).
func (e *Engine) DeletePriceList(ctx context.Context, priceListID id.PriceListID, tenant, pricelistTag string) (*pricelist.PriceList, error) {
	if !priceListID.IsNil() {
		return e.store.DeletePriceList(ctx, priceListID)
	}
	if pricelistTag == "" {
		return nil, ErrAmbiguousLookup
	}
	return e.store.DeletePriceListByTag(ctx, e.tenantOrDefault(tenant), pricelistTag)
}

// UpsertRate creates or updates a rate. The referenced price list and
// carrier must exist in the tenant.
func (e *Engine) UpsertRate(ctx context.Context, r *pricelist.Rate) (*pricelist.Rate, error) {
	r.Tenant = e.tenantOrDefault(r.Tenant)

	if r.Prefix == "" {
		return nil, ValidationError{Field: "prefix", Message: "must not be empty"}
	}
	if len(r.Prefix) > pricelist.MaxPrefixLength {
		return nil, ValidationError{Field: "prefix", Message: "longer than the maximum matchable prefix"}
	}

	p, err := e.store.GetPriceListByTag(ctx, r.Tenant, r.PricelistTag)
	if err != nil {
		if IsNotFound(err) {
			return nil, ValidationError{Field: "pricelist_tag", Message: "unknown price list: " + r.PricelistTag}
		}
		return nil, err
	}
	c, err := e.store.GetCarrierByTag(ctx, r.Tenant, r.CarrierTag)
	if err != nil {
		if IsNotFound(err) {
			return nil, ValidationError{Field: "carrier_tag", Message: "unknown carrier: " + r.CarrierTag}
		}
		return nil, err
	}

	r.PricelistID = p.ID
	r.CarrierID = c.ID

	return e.store.UpsertRate(ctx, r)
}

// GetRate retrieves a rate by id or by its natural key.
func (e *Engine) GetRate(ctx context.Context, rateID id.RateID, tenant, pricelistTag, carrierTag, prefix string) (*pricelist.Rate, error) {
	if !rateID.IsNil() {
		return e.store.GetRate(ctx, rateID)
	}
	if pricelistTag == "" || carrierTag == "" || prefix == "" {
		return nil, ErrAmbiguousLookup
	}
	return e.store.GetRateByKey(ctx, e.tenantOrDefault(tenant), pricelistTag, carrierTag, prefix)
}

// ListRates lists rates matching the filter.
func (e *Engine) ListRates(ctx context.Context, opts pricelist.RateListOpts) ([]*pricelist.Rate, error) {
	opts.Filter.Tenant = e.tenantOrDefault(opts.Filter.Tenant)
	return e.store.ListRates(ctx, opts)
}

// CountRates counts rates matching the filter.
func (e *Engine) CountRates(ctx context.Context, filter pricelist.RateFilter) (int64, error) {
	filter.Tenant = e.tenantOrDefault(filter.Tenant)
	return e.store.CountRates(ctx, filter)
}

// DeleteRate removes a rate by id or by its natural key.
func (e *Engine) DeleteRate(ctx context.Context, rateID id.RateID, tenant, pricelistTag, carrierTag, prefix string) (*pricelist.Rate, error) {
	if !rateID.IsNil() {
		return e.store.DeleteRate(ctx, rateID)
	}
	if pricelistTag == "" || carrierTag == "" || prefix == "" {
		return nil, ErrAmbiguousLookup
	}
	return e.store.DeleteRateByKey(ctx, e.tenantOrDefault(tenant), pricelistTag, carrierTag, prefix)
}

// ──────────────────────────────────────────────────
// Customer and seller management
// ──────────────────────────────────────────────────

// UpsertCustomer creates or updates a customer.
func (e *Engine) UpsertCustomer(ctx context.Context, c *customer.Customer) (*customer.Customer, error) {
	c.Tenant = e.tenantOrDefault(c.Tenant)

	if c.CustomerTag == "" {
		return nil, ValidationError{Field: "customer_tag", Message: "must not be empty"}
	}

	return e.store.UpsertCustomer(ctx, c)
}

// GetCustomer retrieves a customer by id or by (tenant, customer_tag).
func (e *Engine) GetCustomer(ctx context.Context, customerID id.CustomerID, tenant, customerTag string) (*customer.Customer, error) {
	if !customerID.IsNil() {
		return e.store.GetCustomer(ctx, customerID)
	}
	if customerTag == "" {
		return nil, ErrAmbiguousLookup
	}
	return e.store.GetCustomerByTag(ctx, e.tenantOrDefault(tenant), customerTag)
}

// ListCustomers lists customers matching the filter.
func (e *Engine) ListCustomers(ctx context.Context, opts customer.ListOpts) ([]*customer.Customer, error) {
	opts.Filter.Tenant = e.tenantOrDefault(opts.Filter.Tenant)
	return e.store.ListCustomers(ctx, opts)
}

// CountCustomers counts customers matching the filter.
func (e *Engine) CountCustomers(ctx context.Context, filter customer.Filter) (int64, error) {
	filter.Tenant = e.tenantOrDefault(filter.Tenant)
	return e.store.CountCustomers(ctx, filter)
}

// DeleteCustomer removes a customer by id or by (tenant, customer_tag).
func (e *Engine) DeleteCustomer(ctx context.Context, customerID id.CustomerID, tenant, customerTag string) (*customer.Customer, error) {
	if !customerID.IsNil() {
		return e.store.DeleteCustomer(ctx, customerID)
	}
	if customerTag == "" {
		return nil, ErrAmbiguousLookup
	}
	return e.store.DeleteCustomerByTag(ctx, e.tenantOrDefault(tenant), customerTag)
}

// UpsertSeller creates or updates a seller.
func (e *Engine) UpsertSeller(ctx context.Context, s *seller.Seller) (*seller.Seller, error) {
	s.Tenant = e.tenantOrDefault(s.Tenant)

	if s.SellerTag == "" {
		return nil, ValidationError{Field: "seller_tag", Message: "must not be empty"}
	}

	return e.store.UpsertSeller(ctx, s)
}

// GetSeller retrieves a seller by id or by (tenant, seller_tag).
func (e *Engine) GetSeller(ctx context.Context, sellerID id.SellerID, tenant, sellerTag string) (*seller.Seller, error) {
	if !sellerID.IsNil() {
		return e.store.GetSeller(ctx, sellerID)
	}
	if sellerTag == "" {
		return nil, ErrAmbiguousLookup
	}
	return e.store.GetSellerByTag(ctx, e.tenantOrDefault(tenant), sellerTag)
}

// ListSellers lists sellers matching the filter.
func (e *Engine) ListSellers(ctx context.Context, opts seller.ListOpts) ([]*seller.Seller, error) {
	opts.Filter.Tenant = e.tenantOrDefault(opts.Filter.Tenant)
	return e.store.ListSellers(ctx, opts)
}

// CountSellers counts sellers matching the filter.
func (e *Engine) CountSellers(ctx context.Context, filter seller.Filter) (int64, error) {
	filter.Tenant = e.tenantOrDefault(filter.Tenant)
	return e.store.CountSellers(ctx, filter)
}

// DeleteSeller removes a seller by id or by (tenant, seller_tag).
func (e *Engine) DeleteSeller(ctx context.Context, sellerID id.SellerID, tenant, sellerTag string) (*seller.Seller, error) {
	if !sellerID.IsNil() {
		return e.store.DeleteSeller(ctx, sellerID)
	}
	if sellerTag == "" {
		return nil, ErrAmbiguousLookup
	}
	return e.store.DeleteSellerByTag(ctx, e.tenantOrDefault(tenant), sellerTag)
}

// ──────────────────────────────────────────────────
// Invoice management
// ──────────────────────────────────────────────────

// UpsertInvoice creates or updates an invoice. Totals are recomputed
// from the rows before storing.
func (e *Engine) UpsertInvoice(ctx context.Context, inv *invoice.Invoice) (*invoice.Invoice, error) {
	inv.Tenant = e.tenantOrDefault(inv.Tenant)

	if inv.InvoiceNumber == "" {
		return nil, ValidationError{Field: "invoice_number", Message: "must not be empty"}
	}
	if inv.CustomerTag != "" {
		if _, err := e.store.GetCustomerByTag(ctx, inv.Tenant, inv.CustomerTag); err != nil {
			if IsNotFound(err) {
				return nil, ValidationError{Field: "customer_tag", Message: "unknown customer: " + inv.CustomerTag}
			}
			return nil, err
		}
	}

	inv.ComputeTotals()

	return e.store.UpsertInvoice(ctx, inv)
}

// GetInvoice retrieves an invoice by id or by (tenant, invoice_number).
func (e *Engine) GetInvoice(ctx context.Context, invoiceID id.InvoiceID, tenant, invoiceNumber string) (*invoice.Invoice, error) {
	if !invoiceID.IsNil() {
		return e.store.GetInvoice(ctx, invoiceID)
	}
	if invoiceNumber == "" {
		return nil, ErrAmbiguousLookup
	}
	return e.store.GetInvoiceByNumber(ctx, e.tenantOrDefault(tenant), invoiceNumber)
}

// ListInvoices lists invoices matching the filter.
func (e *Engine) ListInvoices(ctx context.Context, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	opts.Filter.Tenant = e.tenantOrDefault(opts.Filter.Tenant)
	return e.store.ListInvoices(ctx, opts)
}

// CountInvoices counts invoices matching the filter.
func (e *Engine) CountInvoices(ctx context.Context, filter invoice.Filter) (int64, error) {
	filter.Tenant = e.tenantOrDefault(filter.Tenant)
	return e.store.CountInvoices(ctx, filter)
}

// DeleteInvoice removes an invoice by id or by (tenant,
// invoice_number).
func (e *Engine) DeleteInvoice(ctx context.Context, invoiceID id.InvoiceID, tenant, invoiceNumber string) (*invoice.Invoice, error) {
	if !invoiceID.IsNil() {
		return e.store.DeleteInvoice(ctx, invoiceID)
	}
	if invoiceNumber == "" {
		return nil, ErrAmbiguousLookup
	}
	return e.store.DeleteInvoiceByNumber(ctx, e.tenantOrDefault(tenant), invoiceNumber)
}

// ──────────────────────────────────────────────────
// Archived transaction management
// ──────────────────────────────────────────────────

// UpsertTransaction stores an archived transaction record.
func (e *Engine) UpsertTransaction(ctx context.Context, t *transaction.Transaction) (*transaction.Transaction, error) {
	t.Tenant = e.tenantOrDefault(t.Tenant)

	if t.TransactionTag == "" {
		return nil, ValidationError{Field: "transaction_tag", Message: "must not be empty"}
	}
	if t.AccountTag == "" {
		return nil, ValidationError{Field: "account_tag", Message: "must not be empty"}
	}

	return e.store.UpsertTransaction(ctx, t)
}

// GetTransaction retrieves an archived transaction by id or by
// (tenant, transaction_tag, account_tag).
func (e *Engine) GetTransaction(ctx context.Context, transactionID id.TransactionID, tenant, transactionTag, accountTag string) (*transaction.Transaction, error) {
	if !transactionID.IsNil() {
		return e.store.GetTransaction(ctx, transactionID)
	}
	if transactionTag == "" || accountTag == "" {
		return nil, ErrAmbiguousLookup
	}
	return e.store.GetTransactionByTag(ctx, e.tenantOrDefault(tenant), transactionTag, accountTag)
}

// ListTransactions lists archived transactions matching the filter.
func (e *Engine) ListTransactions(ctx context.Context, opts transaction.ListOpts) ([]*transaction.Transaction, error) {
	opts.Filter.Tenant = e.tenantOrDefault(opts.Filter.Tenant)
	return e.store.ListTransactions(ctx, opts)
}

// CountTransactions counts archived transactions matching the filter.
func (e *Engine) CountTransactions(ctx context.Context, filter transaction.Filter) (int64, error) {
	filter.Tenant = e.tenantOrDefault(filter.Tenant)
	return e.store.CountTransactions(ctx, filter)
}

// DeleteTransaction removes an archived transaction by id or by
// (tenant, transaction_tag, account_tag).
func (e *Engine) DeleteTransaction(ctx context.Context, transactionID id.TransactionID, tenant, transactionTag, accountTag string) (*transaction.Transaction, error) {
	if !transactionID.IsNil() {
		return e.store.DeleteTransaction(ctx, transactionID)
	}
	if transactionTag == "" || accountTag == "" {
		return nil, ErrAmbiguousLookup
	}
	return e.store.DeleteTransactionByTag(ctx, e.tenantOrDefault(tenant), transactionTag, accountTag)
}
