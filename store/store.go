package store

import (
	"context"
	"time"

	"github.com/xraph/rating/account"
	"github.com/xraph/rating/carrier"
	"github.com/xraph/rating/customer"
	"github.com/xraph/rating/id"
	"github.com/xraph/rating/invoice"
	"github.com/xraph/rating/pricelist"
	"github.com/xraph/rating/seller"
	"github.com/xraph/rating/transaction"
)

// Store is the unified storage interface for all Rating entities.
// Instead of embedding the sub-interfaces, we explicitly declare all methods
// to avoid naming conflicts.
//
// Every account-ledger mutation (begin/end/commit/rollback and the bulk
// balance operations) must be a single atomic conditional update against
// the backing store; implementations may not split a read-modify-write
// across round trips.
type Store interface {
	// Account methods
	UpsertAccount(ctx context.Context, a *account.Account) (*account.Account, error)
	GetAccount(ctx context.Context, accountID id.AccountID) (*account.Account, error)
	GetAccountByTag(ctx context.Context, tenant, accountTag string) (*account.Account, error)
	ListAccounts(ctx context.Context, opts account.ListOpts) ([]*account.Account, error)
	CountAccounts(ctx context.Context, filter account.Filter) (int64, error)
	DeleteAccount(ctx context.Context, accountID id.AccountID) (*account.Account, error)
	DeleteAccountByTag(ctx context.Context, tenant, accountTag string) (*account.Account, error)

	// Account ledger methods
	BeginTransaction(ctx context.Context, tenant, accountTag string, txn *account.RunningTransaction) (*account.RunningTransaction, error)
	EndTransaction(ctx context.Context, tenant, accountTag, transactionTag string, timestampEnd time.Time) (*account.RunningTransaction, error)
	CommitTransaction(ctx context.Context, tenant, accountTag, transactionTag string, fee int64) (bool, error)
	RollbackTransaction(ctx context.Context, tenant, accountTag, transactionTag string) (bool, error)
	GetRunningTransaction(ctx context.Context, tenant, accountTag, transactionTag string) (*account.RunningTransaction, error)
	SetBalance(ctx context.Context, tenant, accountTag string, tags []string, balance int64) (bool, error)
	IncrementBalance(ctx context.Context, tenant, accountTag string, tags []string, delta int64) (bool, error)

	// Carrier methods
	UpsertCarrier(ctx context.Context, c *carrier.Carrier) (*carrier.Carrier, error)
	GetCarrier(ctx context.Context, carrierID id.CarrierID) (*carrier.Carrier, error)
	GetCarrierByTag(ctx context.Context, tenant, carrierTag string) (*carrier.Carrier, error)
	ListCarriers(ctx context.Context, opts carrier.ListOpts) ([]*carrier.Carrier, error)
	CountCarriers(ctx context.Context, filter carrier.Filter) (int64, error)
	DeleteCarrier(ctx context.Context, carrierID id.CarrierID) (*carrier.Carrier, error)
	DeleteCarrierByTag(ctx context.Context, tenant, carrierTag string) (*carrier.Carrier, error)

	// Price list methods
	UpsertPriceList(ctx context.Context, p *pricelist.PriceList) (*pricelist.PriceList, error)
	GetPriceList(ctx context.Context, priceListID id.PriceListID) (*pricelist.PriceList, error)
	GetPriceListByTag(ctx context.Context, tenant, pricelistTag string) (*pricelist.PriceList, error)
	ListPriceLists(ctx context.Context, opts pricelist.ListOpts) ([]*pricelist.PriceList, error)
	CountPriceLists(ctx context.Context, filter pricelist.Filter) (int64, error)
	DeletePriceList(ctx context.Context, priceListID id.PriceListID) (*pricelist.PriceList, error)
	DeletePriceListByTag(ctx context.Context, tenant, pricelistTag string) (*pricelist.PriceList, error)

	// Rate methods
	UpsertRate(ctx context.Context, r *pricelist.Rate) (*pricelist.Rate, error)
	GetRate(ctx context.Context, rateID id.RateID) (*pricelist.Rate, error)
	GetRateByKey(ctx context.Context, tenant, pricelistTag, carrierTag, prefix string) (*pricelist.Rate, error)
	ListRates(ctx context.Context, opts pricelist.RateListOpts) ([]*pricelist.Rate, error)
	CountRates(ctx context.Context, filter pricelist.RateFilter) (int64, error)
	DeleteRate(ctx context.Context, rateID id.RateID) (*pricelist.Rate, error)
	DeleteRateByKey(ctx context.Context, tenant, pricelistTag, carrierTag, prefix string) (*pricelist.Rate, error)
	FindRates(ctx context.Context, q pricelist.RateQuery) ([]*pricelist.Rate, error)

	// Customer methods
	UpsertCustomer(ctx context.Context, c *customer.Customer) (*customer.Customer, error)
	GetCustomer(ctx context.Context, customerID id.CustomerID) (*customer.Customer, error)
	GetCustomerByTag(ctx context.Context, tenant, customerTag string) (*customer.Customer, error)
	ListCustomers(ctx context.Context, opts customer.ListOpts) ([]*customer.Customer, error)
	CountCustomers(ctx context.Context, filter customer.Filter) (int64, error)
	DeleteCustomer(ctx context.Context, customerID id.CustomerID) (*customer.Customer, error)
	DeleteCustomerByTag(ctx context.Context, tenant, customerTag string) (*customer.Customer, error)

	// Seller methods
	UpsertSeller(ctx context.Context, s *seller.Seller) (*seller.Seller, error)
	GetSeller(ctx context.Context, sellerID id.SellerID) (*seller.Seller, error)
	GetSellerByTag(ctx context.Context, tenant, sellerTag string) (*seller.Seller, error)
	ListSellers(ctx context.Context, opts seller.ListOpts) ([]*seller.Seller, error)
	CountSellers(ctx context.Context, filter seller.Filter) (int64, error)
	DeleteSeller(ctx context.Context, sellerID id.SellerID) (*seller.Seller, error)
	DeleteSellerByTag(ctx context.Context, tenant, sellerTag string) (*seller.Seller, error)

	// Invoice methods
	UpsertInvoice(ctx context.Context, inv *invoice.Invoice) (*invoice.Invoice, error)
	GetInvoice(ctx context.Context, invoiceID id.InvoiceID) (*invoice.Invoice, error)
	GetInvoiceByNumber(ctx context.Context, tenant, invoiceNumber string) (*invoice.Invoice, error)
	ListInvoices(ctx context.Context, opts invoice.ListOpts) ([]*invoice.Invoice, error)
	CountInvoices(ctx context.Context, filter invoice.Filter) (int64, error)
	DeleteInvoice(ctx context.Context, invoiceID id.InvoiceID) (*invoice.Invoice, error)
	DeleteInvoiceByNumber(ctx context.Context, tenant, invoiceNumber string) (*invoice.Invoice, error)

	// Archived transaction methods
	UpsertTransaction(ctx context.Context, t *transaction.Transaction) (*transaction.Transaction, error)
	GetTransaction(ctx context.Context, transactionID id.TransactionID) (*transaction.Transaction, error)
	GetTransactionByTag(ctx context.Context, tenant, transactionTag, accountTag string) (*transaction.Transaction, error)
	ListTransactions(ctx context.Context, opts transaction.ListOpts) ([]*transaction.Transaction, error)
	CountTransactions(ctx context.Context, filter transaction.Filter) (int64, error)
	DeleteTransaction(ctx context.Context, transactionID id.TransactionID) (*transaction.Transaction, error)
	DeleteTransactionByTag(ctx context.Context, tenant, transactionTag, accountTag string) (*transaction.Transaction, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
