package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	rating "github.com/xraph/rating"
	"github.com/xraph/rating/account"
	"github.com/xraph/rating/carrier"
	"github.com/xraph/rating/customer"
	"github.com/xraph/rating/id"
	"github.com/xraph/rating/invoice"
	"github.com/xraph/rating/pricelist"
	"github.com/xraph/rating/seller"
	ratingstore "github.com/xraph/rating/store"
	"github.com/xraph/rating/transaction"
	"github.com/xraph/rating/types"
)

// Collection name constants.
const (
	colAccounts     = "rating_accounts"
	colCarriers     = "rating_carriers"
	colPriceLists   = "rating_pricelists"
	colRates        = "rating_rates"
	colCustomers    = "rating_customers"
	colSellers      = "rating_sellers"
	colInvoices     = "rating_invoices"
	colTransactions = "rating_transactions"
)

// compile-time interface check
var _ ratingstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM. Ledger
// mutations go through the raw driver so each one is a single
// conditional update on the owning account document.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all rating collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("rating/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Account Store ====================

func (s *Store) UpsertAccount(ctx context.Context, a *account.Account) (*account.Account, error) {
	existing, err := s.resolveAccount(ctx, a)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		if a.ID.IsNil() {
			a.ID = id.NewAccountID()
		}
		if a.CreatedAt.IsZero() {
			a.Entity = types.NewEntity()
		}
		m := toAccountModel(a)
		if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
			return nil, fmt.Errorf("rating/mongo: upsert account: %w", err)
		}
		return a, nil
	}

	a.ID = existing.ID
	a.CreatedAt = existing.CreatedAt
	a.RunningTransactions = existing.RunningTransactions
	a.Touch()

	// The running list is ledger-owned, so the update sets every field
	// except running_transactions.
	m := toAccountModel(a)
	_, err = s.mdb.NewUpdate((*accountModel)(nil)).
		Filter(bson.M{"_id": m.ID}).
		SetUpdate(bson.M{"$set": bson.M{
			"tenant":                      m.Tenant,
			"account_tag":                 m.AccountTag,
			"name":                        m.Name,
			"type":                        m.Type,
			"customer_tag":                m.CustomerTag,
			"notification_email":          m.NotificationEmail,
			"notification_mobile":         m.NotificationMobile,
			"active":                      m.Active,
			"balance":                     m.Balance,
			"max_concurrent_transactions": m.MaxConcurrentTransactions,
			"max_inbound_transactions":    m.MaxInboundTransactions,
			"max_outbound_transactions":   m.MaxOutboundTransactions,
			"carrier_tags":                m.CarrierTags,
			"carrier_tags_override":       m.CarrierTagsOverride,
			"pricelist_tags":              m.PricelistTags,
			"tags":                        m.Tags,
			"linked_accounts":             m.LinkedAccounts,
			"updated_at":                  m.UpdatedAt,
		}}).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("rating/mongo: upsert account: %w", err)
	}
	return a, nil
}

func (s *Store) resolveAccount(ctx context.Context, a *account.Account) (*account.Account, error) {
	var m accountModel

	if !a.ID.IsNil() {
		err := s.mdb.NewFind(&m).Filter(bson.M{"_id": a.ID.String()}).Scan(ctx)
		if err == nil {
			return fromAccountModel(&m)
		}
		if !isNoDocuments(err) {
			return nil, fmt.Errorf("rating/mongo: resolve account: %w", err)
		}
	}

	err := s.mdb.NewFind(&m).
		Filter(bson.M{"tenant": a.Tenant, "account_tag": a.AccountTag}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("rating/mongo: resolve account: %w", err)
	}
	return fromAccountModel(&m)
}

func (s *Store) GetAccount(ctx context.Context, accountID id.AccountID) (*account.Account, error) {
	var m accountModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": accountID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, rating.ErrAccountNotFound
		}
		return nil, fmt.Errorf("rating/mongo: get account: %w", err)
	}
	return fromAccountModel(&m)
}

func (s *Store) GetAccountByTag(ctx context.Context, tenant, accountTag string) (*account.Account, error) {
	var m accountModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"tenant": tenant, "account_tag": accountTag}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, rating.ErrAccountNotFound
		}
		return nil, fmt.Errorf("rating/mongo: get account by tag: %w", err)
	}
	return fromAccountModel(&m)
}

func (s *Store) ListAccounts(ctx context.Context, opts account.ListOpts) ([]*account.Account, error) {
	var models []accountModel

	q := s.mdb.NewFind(&models).
		Filter(accountFilterQuery(opts.Filter)).
		Sort(sortSpec(accountSortField(opts.SortField), opts.Descending))

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("rating/mongo: list accounts: %w", err)
	}

	result := make([]*account.Account, len(models))
	for i := range models {
		a, err := fromAccountModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = a
	}
	return result, nil
}

func (s *Store) CountAccounts(ctx context.Context, filter account.Filter) (int64, error) {
	n, err := s.mdb.Collection(colAccounts).CountDocuments(ctx, accountFilterQuery(filter))
	if err != nil {
		return 0, fmt.Errorf("rating/mongo: count accounts: %w", err)
	}
	return n, nil
}

func (s *Store) DeleteAccount(ctx context.Context, accountID id.AccountID) (*account.Account, error) {
	var m accountModel
	err := s.mdb.Collection(colAccounts).
		FindOneAndDelete(ctx, bson.M{"_id": accountID.String()}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, rating.ErrAccountNotFound
		}
		return nil, fmt.Errorf("rating/mongo: delete account: %w", err)
	}
	return fromAccountModel(&m)
}

func (s *Store) DeleteAccountByTag(ctx context.Context, tenant, accountTag string) (*account.Account, error) {
	var m accountModel
	err := s.mdb.Collection(colAccounts).
		FindOneAndDelete(ctx, bson.M{"tenant": tenant, "account_tag": accountTag}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, rating.ErrAccountNotFound
		}
		return nil, fmt.Errorf("rating/mongo: delete account by tag: %w", err)
	}
	return fromAccountModel(&m)
}

// ==================== Account ledger ====================

func (s *Store) BeginTransaction(ctx context.Context, tenant, accountTag string, txn *account.RunningTransaction) (*account.RunningTransaction, error) {
	txn.Status = account.TransactionBegun
	txn.TimestampEnd = nil
	m := toRunningTransactionModel(txn)

	// The filter excludes accounts already holding the tag, so a
	// duplicate begin matches nothing instead of double-pushing.
	filter := bson.M{
		"tenant":      tenant,
		"account_tag": accountTag,
		"running_transactions": bson.M{
			"$not": bson.M{"$elemMatch": bson.M{"transaction_tag": txn.TransactionTag}},
		},
	}
	update := bson.M{
		"$push": bson.M{"running_transactions": m},
		"$set":  bson.M{"updated_at": now()},
	}

	var updated accountModel
	err := s.mdb.Collection(colAccounts).
		FindOneAndUpdate(ctx, filter, update,
			options.FindOneAndUpdate().SetReturnDocument(options.After)).
		Decode(&updated)
	if err != nil {
		if !isNoDocuments(err) {
			return nil, fmt.Errorf("rating/mongo: begin transaction: %w", err)
		}
		n, countErr := s.mdb.Collection(colAccounts).
			CountDocuments(ctx, bson.M{"tenant": tenant, "account_tag": accountTag})
		if countErr != nil {
			return nil, fmt.Errorf("rating/mongo: begin transaction: %w", countErr)
		}
		if n == 0 {
			return nil, rating.ErrAccountNotFound
		}
		return nil, rating.ErrTransactionExists
	}

	return extractRunningTransaction(&updated, txn.TransactionTag)
}

func (s *Store) EndTransaction(ctx context.Context, tenant, accountTag, transactionTag string, timestampEnd time.Time) (*account.RunningTransaction, error) {
	filter := bson.M{
		"tenant":                               tenant,
		"account_tag":                          accountTag,
		"running_transactions.transaction_tag": transactionTag,
	}
	update := bson.M{
		"$set": bson.M{
			"running_transactions.$.status":        string(account.TransactionEnded),
			"running_transactions.$.timestamp_end": timestampEnd,
			"updated_at":                           now(),
		},
	}

	var updated accountModel
	err := s.mdb.Collection(colAccounts).
		FindOneAndUpdate(ctx, filter, update,
			options.FindOneAndUpdate().SetReturnDocument(options.After)).
		Decode(&updated)
	if err != nil {
		if isNoDocuments(err) {
			return nil, rating.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("rating/mongo: end transaction: %w", err)
	}

	return extractRunningTransaction(&updated, transactionTag)
}

func (s *Store) CommitTransaction(ctx context.Context, tenant, accountTag, transactionTag string, fee int64) (bool, error) {
	filter := bson.M{
		"tenant":                               tenant,
		"account_tag":                          accountTag,
		"running_transactions.transaction_tag": transactionTag,
	}
	update := bson.M{
		"$inc":  bson.M{"balance": -fee},
		"$pull": bson.M{"running_transactions": bson.M{"transaction_tag": transactionTag}},
		"$set":  bson.M{"updated_at": now()},
	}

	res, err := s.mdb.Collection(colAccounts).UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("rating/mongo: commit transaction: %w", err)
	}
	return res.MatchedCount > 0, nil
}

func (s *Store) RollbackTransaction(ctx context.Context, tenant, accountTag, transactionTag string) (bool, error) {
	filter := bson.M{
		"tenant":                               tenant,
		"account_tag":                          accountTag,
		"running_transactions.transaction_tag": transactionTag,
	}
	update := bson.M{
		"$pull": bson.M{"running_transactions": bson.M{"transaction_tag": transactionTag}},
		"$set":  bson.M{"updated_at": now()},
	}

	res, err := s.mdb.Collection(colAccounts).UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("rating/mongo: rollback transaction: %w", err)
	}
	return res.MatchedCount > 0, nil
}

func (s *Store) GetRunningTransaction(ctx context.Context, tenant, accountTag, transactionTag string) (*account.RunningTransaction, error) {
	var m accountModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{
			"tenant":                               tenant,
			"account_tag":                          accountTag,
			"running_transactions.transaction_tag": transactionTag,
		}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, rating.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("rating/mongo: get running transaction: %w", err)
	}
	return extractRunningTransaction(&m, transactionTag)
}

func (s *Store) SetBalance(ctx context.Context, tenant, accountTag string, tags []string, balance int64) (bool, error) {
	res, err := s.mdb.Collection(colAccounts).UpdateMany(ctx,
		balanceScopeQuery(tenant, accountTag, tags),
		bson.M{"$set": bson.M{"balance": balance, "updated_at": now()}})
	if err != nil {
		return false, fmt.Errorf("rating/mongo: set balance: %w", err)
	}
	return res.MatchedCount > 0, nil
}

func (s *Store) IncrementBalance(ctx context.Context, tenant, accountTag string, tags []string, delta int64) (bool, error) {
	res, err := s.mdb.Collection(colAccounts).UpdateMany(ctx,
		balanceScopeQuery(tenant, accountTag, tags),
		bson.M{
			"$inc": bson.M{"balance": delta},
			"$set": bson.M{"updated_at": now()},
		})
	if err != nil {
		return false, fmt.Errorf("rating/mongo: increment balance: %w", err)
	}
	return res.MatchedCount > 0, nil
}

// ==================== Carrier Store ====================

func (s *Store) UpsertCarrier(ctx context.Context, c *carrier.Carrier) (*carrier.Carrier, error) {
	existing, err := s.lookupID(ctx, colCarriers, c.ID.String(),
		bson.M{"tenant": c.Tenant, "carrier_tag": c.CarrierTag})
	if err != nil {
		return nil, fmt.Errorf("rating/mongo: upsert carrier: %w", err)
	}

	if existing == "" {
		if c.ID.IsNil() {
			c.ID = id.NewCarrierID()
		}
		if c.CreatedAt.IsZero() {
			c.Entity = types.NewEntity()
		}
		if _, err := s.mdb.NewInsert(toCarrierModel(c)).Exec(ctx); err != nil {
			return nil, fmt.Errorf("rating/mongo: upsert carrier: %w", err)
		}
		return c, nil
	}

	carrierID, err := id.ParseCarrierID(existing)
	if err != nil {
		return nil, err
	}
	c.ID = carrierID
	c.Touch()

	m := toCarrierModel(c)
	_, err = s.mdb.NewUpdate((*carrierModel)(nil)).
		Filter(bson.M{"_id": m.ID}).
		SetUpdate(bson.M{"$set": bson.M{
			"tenant":      m.Tenant,
			"carrier_tag": m.CarrierTag,
			"host":        m.Host,
			"port":        m.Port,
			"protocol":    m.Protocol,
			"active":      m.Active,
			"updated_at":  m.UpdatedAt,
		}}).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("rating/mongo: upsert carrier: %w", err)
	}
	return c, nil
}

func (s *Store) GetCarrier(ctx context.Context, carrierID id.CarrierID) (*carrier.Carrier, error) {
	var m carrierModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": carrierID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, rating.ErrCarrierNotFound
		}
		return nil, fmt.Errorf("rating/mongo: get carrier: %w", err)
	}
	return fromCarrierModel(&m)
}

func (s *Store) GetCarrierByTag(ctx context.Context, tenant, carrierTag string) (*carrier.Carrier, error) {
	var m carrierModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"tenant": tenant, "carrier_tag": carrierTag}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, rating.ErrCarrierNotFound
		}
		return nil, fmt.Errorf("rating/mongo: get carrier by tag: %w", err)
	}
	return fromCarrierModel(&m)
}

func (s *Store) ListCarriers(ctx context.Context, opts carrier.ListOpts) ([]*carrier.Carrier, error) {
	var models []carrierModel

	filter := bson.M{}
	if opts.Filter.Tenant != "" {
		filter["tenant"] = opts.Filter.Tenant
	}
	if opts.Filter.CarrierTag != "" {
		filter["carrier_tag"] = opts.Filter.CarrierTag
	}
	applyIDs(filter, idStrings(opts.Filter.IDs))
	applyQ(filter, opts.Filter.Q, "carrier_tag", "host")

	sortField := "carrier_tag"
	if opts.SortField == "id" {
		sortField = "_id"
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(sortSpec(sortField, opts.Descending))

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("rating/mongo: list carriers: %w", err)
	}

	result := make([]*carrier.Carrier, len(models))
	for i := range models {
		c, err := fromCarrierModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = c
	}
	return result, nil
}

func (s *Store) CountCarriers(ctx context.Context, f carrier.Filter) (int64, error) {
	filter := bson.M{}
	if f.Tenant != "" {
		filter["tenant"] = f.Tenant
	}
	if f.CarrierTag != "" {
		filter["carrier_tag"] = f.CarrierTag
	}
	applyIDs(filter, idStrings(f.IDs))
	applyQ(filter, f.Q, "carrier_tag", "host")

	n, err := s.mdb.Collection(colCarriers).CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("rating/mongo: count carriers: %w", err)
	}
	return n, nil
}

func (s *Store) DeleteCarrier(ctx context.Context, carrierID id.CarrierID) (*carrier.Carrier, error) {
	var m carrierModel
	err := s.mdb.Collection(colCarriers).
		FindOneAndDelete(ctx, bson.M{"_id": carrierID.String()}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, rating.ErrCarrierNotFound
		}
		return nil, fmt.Errorf("rating/mongo: delete carrier: %w", err)
	}
	return fromCarrierModel(&m)
}

func (s *Store) DeleteCarrierByTag(ctx context.Context, tenant, carrierTag string) (*carrier.Carrier, error) {
	var m carrierModel
	err := s.mdb.Collection(colCarriers).
		FindOneAndDelete(ctx, bson.M{"tenant": tenant, "carrier_tag": carrierTag}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, rating.ErrCarrierNotFound
		}
		return nil, fmt.Errorf("rating/mongo: delete carrier by tag: %w", err)
	}
	return fromCarrierModel(&m)
}

// ==================== Price list Store ====================

func (s *Store) UpsertPriceList(ctx context.Context, p *pricelist.PriceList) (*pricelist.PriceList, error) {
	existing, err := s.lookupID(ctx, colPriceLists, p.ID.String(),
		bson.M{"tenant": p.Tenant, "pricelist_tag": p.PricelistTag})
	if err != nil {
		return nil, fmt.Errorf("rating/mongo: upsert price list: %w", err)
	}

	if existing == "" {
		if p.ID.IsNil() {
			p.ID = id.NewPriceListID()
		}
		if p.CreatedAt.IsZero() {
			p.Entity = types.NewEntity()
		}
		if _, err := s.mdb.NewInsert(toPriceListModel(p)).Exec(ctx); err != nil {
			return nil, fmt.Errorf("rating/mongo: upsert price list: %w", err)
		}
		return p, nil
	}

	priceListID, err := id.ParsePriceListID(existing)
	if err != nil {
		return nil, err
	}
	p.ID = priceListID
	p.Touch()

	m := toPriceListModel(p)
	_, err = s.mdb.NewUpdate((*priceListModel)(nil)).
		Filter(bson.M{"_id": m.ID}).
		SetUpdate(bson.M{"$set": bson.M{
			"tenant":        m.Tenant,
			"pricelist_tag": m.PricelistTag,
			"name":          m.Name,
			"currency":      m.Currency,
			"active":        m.Active,
			"updated_at":    m.UpdatedAt,
		}}).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("rating/mongo: upsert price list: %w", err)
	}
	return p, nil
}

func (s *Store) GetPriceList(ctx context.Context, priceListID id.PriceListID) (*pricelist.PriceList, error) {
	var m priceListModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": priceListID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, rating.ErrPriceListNotFound
		}
		return nil, fmt.Errorf("rating/mongo: get price list: %w", err)
	}
	return fromPriceListModel(&m)
}

func (s *Store) GetPriceListByTag(ctx context.Context, tenant, pricelistTag string) (*pricelist.PriceList, error) {
	var m priceListModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"tenant": tenant, "pricelist_tag": pricelistTag}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, rating.ErrPriceListNotFound
		}
		return nil, fmt.Errorf("rating/mongo: get price list by tag: %w", err)
	}
	return fromPriceListModel(&m)
}

func (s *Store) ListPriceLists(ctx context.Context, opts pricelist.ListOpts) ([]*pricelist.PriceList, error) {
	var models []priceListModel

	filter := bson.M{}
	if opts.Filter.Tenant != "" {
		filter["tenant"] = opts.Filter.Tenant
	}
	if opts.Filter.PricelistTag != "" {
		filter["pricelist_tag"] = opts.Filter.PricelistTag
	}
	applyIDs(filter, idStrings(opts.Filter.IDs))
	applyQ(filter, opts.Filter.Q, "pricelist_tag", "name")

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(sortSpec("pricelist_tag", opts.Descending))

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("rating/mongo: list price lists: %w", err)
	}

	result := make([]*pricelist.PriceList, len(models))
	for i := range models {
		p, err := fromPriceListModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = p
	}
	return result, nil
}

func (s *Store) CountPriceLists(ctx context.Context, f pricelist.Filter) (int64, error) {
	filter := bson.M{}
	if f.Tenant != "" {
		filter["tenant"] = f.Tenant
	}
	if f.PricelistTag != "" {
		filter["pricelist_tag"] = f.PricelistTag
	}
	applyIDs(filter, idStrings(f.IDs))
	applyQ(filter, f.Q, "pricelist_tag", "name")

	n, err := s.mdb.Collection(colPriceLists).CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("rating/mongo: count price lists: %w", err)
	}
	return n, nil
}

func (s *Store) DeletePriceList(ctx context.Context, priceListID id.PriceListID) (*pricelist.PriceList, error) {
	var m priceListModel
	err := s.mdb.Collection(colPriceLists).
		FindOneAndDelete(ctx, bson.M{"_id": priceListID.String()}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, rating.ErrPriceListNotFound
		}
		return nil, fmt.Errorf("rating/mongo: delete price list: %w", err)
	}
	return fromPriceListModel(&m)
}

func (s *Store) DeletePriceListByTag(ctx context.Context, tenant, pricelistTag string) (*pricelist.PriceList, error) {
	var m priceListModel
	err := s.mdb.Collection(colPriceLists).
		FindOneAndDelete(ctx, bson.M{"tenant": tenant, "pricelist_tag": pricelistTag}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, rating.ErrPriceListNotFound
		}
		return nil, fmt.Errorf("rating/mongo: delete price list by tag: %w", err)
	}
	return fromPriceListModel(&m)
}

// ==================== Rate Store ====================

func (s *Store) UpsertRate(ctx context.Context, r *pricelist.Rate) (*pricelist.Rate, error) {
	existing, err := s.lookupID(ctx, colRates, r.ID.String(), bson.M{
		"tenant":        r.Tenant,
		"pricelist_tag": r.PricelistTag,
		"carrier_tag":   r.CarrierTag,
		"prefix":        r.Prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("rating/mongo: upsert rate: %w", err)
	}

	if existing == "" {
		if r.ID.IsNil() {
			r.ID = id.NewRateID()
		}
		if r.CreatedAt.IsZero() {
			r.Entity = types.NewEntity()
		}
		if _, err := s.mdb.NewInsert(toRateModel(r)).Exec(ctx); err != nil {
			return nil, fmt.Errorf("rating/mongo: upsert rate: %w", err)
		}
		return r, nil
	}

	rateID, err := id.ParseRateID(existing)
	if err != nil {
		return nil, err
	}
	r.ID = rateID
	r.Touch()

	m := toRateModel(r)
	_, err = s.mdb.NewUpdate((*rateModel)(nil)).
		Filter(bson.M{"_id": m.ID}).
		SetUpdate(bson.M{"$set": bson.M{
			"tenant":         m.Tenant,
			"pricelist_id":   m.PricelistID,
			"pricelist_tag":  m.PricelistTag,
			"carrier_id":     m.CarrierID,
			"carrier_tag":    m.CarrierTag,
			"prefix":         m.Prefix,
			"prefix_len":     m.PrefixLen,
			"datetime_start": m.DatetimeStart,
			"datetime_end":   m.DatetimeEnd,
			"active":         m.Active,
			"connect_fee":    m.ConnectFee,
			"rate":           m.Rate,
			"rate_increment": m.RateIncrement,
			"interval_start": m.IntervalStart,
			"description":    m.Description,
			"updated_at":     m.UpdatedAt,
		}}).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("rating/mongo: upsert rate: %w", err)
	}
	return r, nil
}

func (s *Store) GetRate(ctx context.Context, rateID id.RateID) (*pricelist.Rate, error) {
	var m rateModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": rateID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, rating.ErrRateNotFound
		}
		return nil, fmt.Errorf("rating/mongo: get rate: %w", err)
	}
	return fromRateModel(&m)
}

func (s *Store) GetRateByKey(ctx context.Context, tenant, pricelistTag, carrierTag, prefix string) (*pricelist.Rate, error) {
	var m rateModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{
			"tenant":        tenant,
			"pricelist_tag": pricelistTag,
			"carrier_tag":   carrierTag,
			"prefix":        prefix,
		}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, rating.ErrRateNotFound
		}
		return nil, fmt.Errorf("rating/mongo: get rate by key: %w", err)
	}
	return fromRateModel(&m)
}

func (s *Store) ListRates(ctx context.Context, opts pricelist.RateListOpts) ([]*pricelist.Rate, error) {
	var models []rateModel

	q := s.mdb.NewFind(&models).
		Filter(rateFilterQuery(opts.Filter)).
		Sort(sortSpec(rateSortField(opts.SortField), opts.Descending))

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("rating/mongo: list rates: %w", err)
	}

	result := make([]*pricelist.Rate, len(models))
	for i := range models {
		r, err := fromRateModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = r
	}
	return result, nil
}

func (s *Store) CountRates(ctx context.Context, f pricelist.RateFilter) (int64, error) {
	n, err := s.mdb.Collection(colRates).CountDocuments(ctx, rateFilterQuery(f))
	if err != nil {
		return 0, fmt.Errorf("rating/mongo: count rates: %w", err)
	}
	return n, nil
}

func (s *Store) DeleteRate(ctx context.Context, rateID id.RateID) (*pricelist.Rate, error) {
	var m rateModel
	err := s.mdb.Collection(colRates).
		FindOneAndDelete(ctx, bson.M{"_id": rateID.String()}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, rating.ErrRateNotFound
		}
		return nil, fmt.Errorf("rating/mongo: delete rate: %w", err)
	}
	return fromRateModel(&m)
}

func (s *Store) DeleteRateByKey(ctx context.Context, tenant, pricelistTag, carrierTag, prefix string) (*pricelist.Rate, error) {
	var m rateModel
	err := s.mdb.Collection(colRates).
		FindOneAndDelete(ctx, bson.M{
			"tenant":        tenant,
			"pricelist_tag": pricelistTag,
			"carrier_tag":   carrierTag,
			"prefix":        prefix,
		}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, rating.ErrRateNotFound
		}
		return nil, fmt.Errorf("rating/mongo: delete rate by key: %w", err)
	}
	return fromRateModel(&m)
}

func (s *Store) FindRates(ctx context.Context, q pricelist.RateQuery) ([]*pricelist.Rate, error) {
	filter := bson.M{
		"tenant": q.Tenant,
		"active": true,
		"prefix": bson.M{"$in": q.Prefixes},
	}
	if len(q.PricelistTags) > 0 {
		filter["pricelist_tag"] = bson.M{"$in": q.PricelistTags}
	}
	if len(q.CarrierTags) > 0 {
		filter["carrier_tag"] = bson.M{"$in": q.CarrierTags}
	}

	var models []rateModel
	err := s.mdb.NewFind(&models).
		Filter(filter).
		// Longest prefix first, then cheapest, then stable natural keys
		// so equal-length matches resolve the same way on every backend.
		Sort(bson.D{
			{Key: "prefix_len", Value: -1},
			{Key: "rate", Value: 1},
			{Key: "carrier_tag", Value: 1},
			{Key: "pricelist_tag", Value: 1},
		}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("rating/mongo: find rates: %w", err)
	}

	result := make([]*pricelist.Rate, len(models))
	for i := range models {
		r, convErr := fromRateModel(&models[i])
		if convErr != nil {
			return nil, convErr
		}
		result[i] = r
	}
	return result, nil
}

// ==================== Customer Store ====================

func (s *Store) UpsertCustomer(ctx context.Context, c *customer.Customer) (*customer.Customer, error) {
	existing, err := s.lookupID(ctx, colCustomers, c.ID.String(),
		bson.M{"tenant": c.Tenant, "customer_tag": c.CustomerTag})
	if err != nil {
		return nil, fmt.Errorf("rating/mongo: upsert customer: %w", err)
	}

	if existing == "" {
		if c.ID.IsNil() {
			c.ID = id.NewCustomerID()
		}
		if c.CreatedAt.IsZero() {
			c.Entity = types.NewEntity()
		}
		if _, err := s.mdb.NewInsert(toCustomerModel(c)).Exec(ctx); err != nil {
			return nil, fmt.Errorf("rating/mongo: upsert customer: %w", err)
		}
		return c, nil
	}

	customerID, err := id.ParseCustomerID(existing)
	if err != nil {
		return nil, err
	}
	c.ID = customerID
	c.Touch()

	m := toCustomerModel(c)
	_, err = s.mdb.NewUpdate((*customerModel)(nil)).
		Filter(bson.M{"_id": m.ID}).
		SetUpdate(bson.M{"$set": bson.M{
			"tenant":       m.Tenant,
			"customer_tag": m.CustomerTag,
			"company_name": m.CompanyName,
			"firstname":    m.Firstname,
			"lastname":     m.Lastname,
			"email":        m.Email,
			"tax_number":   m.TaxNumber,
			"vat_number":   m.VATNumber,
			"vat_policy":   m.VATPolicy,
			"address":      m.Address,
			"zipcode":      m.Zipcode,
			"city":         m.City,
			"province":     m.Province,
			"country":      m.Country,
			"active":       m.Active,
			"updated_at":   m.UpdatedAt,
		}}).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("rating/mongo: upsert customer: %w", err)
	}
	return c, nil
}

func (s *Store) GetCustomer(ctx context.Context, customerID id.CustomerID) (*customer.Customer, error) {
	var m customerModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": customerID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, rating.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("rating/mongo: get customer: %w", err)
	}
	return fromCustomerModel(&m)
}

func (s *Store) GetCustomerByTag(ctx context.Context, tenant, customerTag string) (*customer.Customer, error) {
	var m customerModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"tenant": tenant, "customer_tag": customerTag}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, rating.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("rating/mongo: get customer by tag: %w", err)
	}
	return fromCustomerModel(&m)
}

func (s *Store) ListCustomers(ctx context.Context, opts customer.ListOpts) ([]*customer.Customer, error) {
	var models []customerModel

	filter := bson.M{}
	if opts.Filter.Tenant != "" {
		filter["tenant"] = opts.Filter.Tenant
	}
	if opts.Filter.CustomerTag != "" {
		filter["customer_tag"] = opts.Filter.CustomerTag
	}
	applyIDs(filter, idStrings(opts.Filter.IDs))
	applyQ(filter, opts.Filter.Q, "customer_tag", "company_name", "email")

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(sortSpec("customer_tag", opts.Descending))

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("rating/mongo: list customers: %w", err)
	}

	result := make([]*customer.Customer, len(models))
	for i := range models {
		c, err := fromCustomerModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = c
	}
	return result, nil
}

func (s *Store) CountCustomers(ctx context.Context, f customer.Filter) (int64, error) {
	filter := bson.M{}
	if f.Tenant != "" {
		filter["tenant"] = f.Tenant
	}
	if f.CustomerTag != "" {
		filter["customer_tag"] = f.CustomerTag
	}
	applyIDs(filter, idStrings(f.IDs))
	applyQ(filter, f.Q, "customer_tag", "company_name", "email")

	n, err := s.mdb.Collection(colCustomers).CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("rating/mongo: count customers: %w", err)
	}
	return n, nil
}

func (s *Store) DeleteCustomer(ctx context.Context, customerID id.CustomerID) (*customer.Customer, error) {
	var m customerModel
	err := s.mdb.Collection(colCustomers).
		FindOneAndDelete(ctx, bson.M{"_id": customerID.String()}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, rating.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("rating/mongo: delete customer: %w", err)
	}
	return fromCustomerModel(&m)
}

func (s *Store) DeleteCustomerByTag(ctx context.Context, tenant, customerTag string) (*customer.Customer, error) {
	var m customerModel
	err := s.mdb.Collection(colCustomers).
		FindOneAndDelete(ctx, bson.M{"tenant": tenant, "customer_tag": customerTag}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, rating.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("rating/mongo: delete customer by tag: %w", err)
	}
	return fromCustomerModel(&m)
}

// ==================== Seller Store ====================

func (s *Store) UpsertSeller(ctx context.Context, sl *seller.Seller) (*seller.Seller, error) {
	existing, err := s.lookupID(ctx, colSellers, sl.ID.String(),
		bson.M{"tenant": sl.Tenant, "seller_tag": sl.SellerTag})
	if err != nil {
		return nil, fmt.Errorf("rating/mongo: upsert seller: %w", err)
	}

	if existing == "" {
		if sl.ID.IsNil() {
			sl.ID = id.NewSellerID()
		}
		if sl.CreatedAt.IsZero() {
			sl.Entity = types.NewEntity()
		}
		if _, err := s.mdb.NewInsert(toSellerModel(sl)).Exec(ctx); err != nil {
			return nil, fmt.Errorf("rating/mongo: upsert seller: %w", err)
		}
		return sl, nil
	}

	sellerID, err := id.ParseSellerID(existing)
	if err != nil {
		return nil, err
	}
	sl.ID = sellerID
	sl.Touch()

	m := toSellerModel(sl)
	_, err = s.mdb.NewUpdate((*sellerModel)(nil)).
		Filter(bson.M{"_id": m.ID}).
		SetUpdate(bson.M{"$set": bson.M{
			"tenant":       m.Tenant,
			"seller_tag":   m.SellerTag,
			"company_name": m.CompanyName,
			"firstname":    m.Firstname,
			"lastname":     m.Lastname,
			"email":        m.Email,
			"tax_number":   m.TaxNumber,
			"vat_number":   m.VATNumber,
			"address":      m.Address,
			"zipcode":      m.Zipcode,
			"city":         m.City,
			"province":     m.Province,
			"country":      m.Country,
			"active":       m.Active,
			"updated_at":   m.UpdatedAt,
		}}).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("rating/mongo: upsert seller: %w", err)
	}
	return sl, nil
}

func (s *Store) GetSeller(ctx context.Context, sellerID id.SellerID) (*seller.Seller, error) {
	var m sellerModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": sellerID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, rating.ErrSellerNotFound
		}
		return nil, fmt.Errorf("rating/mongo: get seller: %w", err)
	}
	return fromSellerModel(&m)
}

func (s *Store) GetSellerByTag(ctx context.Context, tenant, sellerTag string) (*seller.Seller, error) {
	var m sellerModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"tenant": tenant, "seller_tag": sellerTag}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, rating.ErrSellerNotFound
		}
		return nil, fmt.Errorf("rating/mongo: get seller by tag: %w", err)
	}
	return fromSellerModel(&m)
}

func (s *Store) ListSellers(ctx context.Context, opts seller.ListOpts) ([]*seller.Seller, error) {
	var models []sellerModel

	filter := bson.M{}
	if opts.Filter.Tenant != "" {
		filter["tenant"] = opts.Filter.Tenant
	}
	if opts.Filter.SellerTag != "" {
		filter["seller_tag"] = opts.Filter.SellerTag
	}
	applyIDs(filter, idStrings(opts.Filter.IDs))
	applyQ(filter, opts.Filter.Q, "seller_tag", "company_name", "email")

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(sortSpec("seller_tag", opts.Descending))

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("rating/mongo: list sellers: %w", err)
	}

	result := make([]*seller.Seller, len(models))
	for i := range models {
		sl, err := fromSellerModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = sl
	}
	return result, nil
}

func (s *Store) CountSellers(ctx context.Context, f seller.Filter) (int64, error) {
	filter := bson.M{}
	if f.Tenant != "" {
		filter["tenant"] = f.Tenant
	}
	if f.SellerTag != "" {
		filter["seller_tag"] = f.SellerTag
	}
	applyIDs(filter, idStrings(f.IDs))
	applyQ(filter, f.Q, "seller_tag", "company_name", "email")

	n, err := s.mdb.Collection(colSellers).CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("rating/mongo: count sellers: %w", err)
	}
	return n, nil
}

func (s *Store) DeleteSeller(ctx context.Context, sellerID id.SellerID) (*seller.Seller, error) {
	var m sellerModel
	err := s.mdb.Collection(colSellers).
		FindOneAndDelete(ctx, bson.M{"_id": sellerID.String()}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, rating.ErrSellerNotFound
		}
		return nil, fmt.Errorf("rating/mongo: delete seller: %w", err)
	}
	return fromSellerModel(&m)
}

func (s *Store) DeleteSellerByTag(ctx context.Context, tenant, sellerTag string) (*seller.Seller, error) {
	var m sellerModel
	err := s.mdb.Collection(colSellers).
		FindOneAndDelete(ctx, bson.M{"tenant": tenant, "seller_tag": sellerTag}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, rating.ErrSellerNotFound
		}
		return nil, fmt.Errorf("rating/mongo: delete seller by tag: %w", err)
	}
	return fromSellerModel(&m)
}

// ==================== Invoice Store ====================

func (s *Store) UpsertInvoice(ctx context.Context, inv *invoice.Invoice) (*invoice.Invoice, error) {
	existing, err := s.lookupID(ctx, colInvoices, inv.ID.String(),
		bson.M{"tenant": inv.Tenant, "invoice_number": inv.InvoiceNumber})
	if err != nil {
		return nil, fmt.Errorf("rating/mongo: upsert invoice: %w", err)
	}

	if existing == "" {
		if inv.ID.IsNil() {
			inv.ID = id.NewInvoiceID()
		}
		if inv.CreatedAt.IsZero() {
			inv.Entity = types.NewEntity()
		}
		if _, err := s.mdb.NewInsert(toInvoiceModel(inv)).Exec(ctx); err != nil {
			return nil, fmt.Errorf("rating/mongo: upsert invoice: %w", err)
		}
		return inv, nil
	}

	invoiceID, err := id.ParseInvoiceID(existing)
	if err != nil {
		return nil, err
	}
	inv.ID = invoiceID
	inv.Touch()

	m := toInvoiceModel(inv)
	_, err = s.mdb.NewUpdate((*invoiceModel)(nil)).
		Filter(bson.M{"_id": m.ID}).
		SetUpdate(bson.M{"$set": bson.M{
			"tenant":         m.Tenant,
			"invoice_number": m.InvoiceNumber,
			"invoice_date":   m.InvoiceDate,
			"customer_tag":   m.CustomerTag,
			"rows":           m.Rows,
			"net_total":      m.NetTotal,
			"vat_rate":       m.VATRate,
			"total":          m.Total,
			"updated_at":     m.UpdatedAt,
		}}).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("rating/mongo: upsert invoice: %w", err)
	}
	return inv, nil
}

func (s *Store) GetInvoice(ctx context.Context, invoiceID id.InvoiceID) (*invoice.Invoice, error) {
	var m invoiceModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": invoiceID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, rating.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("rating/mongo: get invoice: %w", err)
	}
	return fromInvoiceModel(&m)
}

func (s *Store) GetInvoiceByNumber(ctx context.Context, tenant, invoiceNumber string) (*invoice.Invoice, error) {
	var m invoiceModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"tenant": tenant, "invoice_number": invoiceNumber}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, rating.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("rating/mongo: get invoice by number: %w", err)
	}
	return fromInvoiceModel(&m)
}

func (s *Store) ListInvoices(ctx context.Context, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	var models []invoiceModel

	filter := bson.M{}
	if opts.Filter.Tenant != "" {
		filter["tenant"] = opts.Filter.Tenant
	}
	if opts.Filter.InvoiceNumber != "" {
		filter["invoice_number"] = opts.Filter.InvoiceNumber
	}
	if opts.Filter.CustomerTag != "" {
		filter["customer_tag"] = opts.Filter.CustomerTag
	}
	if opts.Filter.InvoiceDate != nil {
		filter["invoice_date"] = *opts.Filter.InvoiceDate
	}
	applyIDs(filter, idStrings(opts.Filter.IDs))
	applyQ(filter, opts.Filter.Q, "invoice_number", "customer_tag")

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(sortSpec("invoice_number", opts.Descending))

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("rating/mongo: list invoices: %w", err)
	}

	result := make([]*invoice.Invoice, len(models))
	for i := range models {
		inv, err := fromInvoiceModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = inv
	}
	return result, nil
}

func (s *Store) CountInvoices(ctx context.Context, f invoice.Filter) (int64, error) {
	filter := bson.M{}
	if f.Tenant != "" {
		filter["tenant"] = f.Tenant
	}
	if f.InvoiceNumber != "" {
		filter["invoice_number"] = f.InvoiceNumber
	}
	if f.CustomerTag != "" {
		filter["customer_tag"] = f.CustomerTag
	}
	if f.InvoiceDate != nil {
		filter["invoice_date"] = *f.InvoiceDate
	}
	applyIDs(filter, idStrings(f.IDs))
	applyQ(filter, f.Q, "invoice_number", "customer_tag")

	n, err := s.mdb.Collection(colInvoices).CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("rating/mongo: count invoices: %w", err)
	}
	return n, nil
}

func (s *Store) DeleteInvoice(ctx context.Context, invoiceID id.InvoiceID) (*invoice.Invoice, error) {
	var m invoiceModel
	err := s.mdb.Collection(colInvoices).
		FindOneAndDelete(ctx, bson.M{"_id": invoiceID.String()}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, rating.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("rating/mongo: delete invoice: %w", err)
	}
	return fromInvoiceModel(&m)
}

func (s *Store) DeleteInvoiceByNumber(ctx context.Context, tenant, invoiceNumber string) (*invoice.Invoice, error) {
	var m invoiceModel
	err := s.mdb.Collection(colInvoices).
		FindOneAndDelete(ctx, bson.M{"tenant": tenant, "invoice_number": invoiceNumber}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, rating.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("rating/mongo: delete invoice by number: %w", err)
	}
	return fromInvoiceModel(&m)
}

// ==================== Archived transaction Store ====================

func (s *Store) UpsertTransaction(ctx context.Context, t *transaction.Transaction) (*transaction.Transaction, error) {
	existing, err := s.lookupID(ctx, colTransactions, t.ID.String(), bson.M{
		"tenant":          t.Tenant,
		"transaction_tag": t.TransactionTag,
		"account_tag":     t.AccountTag,
	})
	if err != nil {
		return nil, fmt.Errorf("rating/mongo: upsert transaction: %w", err)
	}

	if existing == "" {
		if t.ID.IsNil() {
			t.ID = id.NewTransactionID()
		}
		if t.CreatedAt.IsZero() {
			t.Entity = types.NewEntity()
		}
		if _, err := s.mdb.NewInsert(toTransactionModel(t)).Exec(ctx); err != nil {
			return nil, fmt.Errorf("rating/mongo: upsert transaction: %w", err)
		}
		return t, nil
	}

	transactionID, err := id.ParseTransactionID(existing)
	if err != nil {
		return nil, err
	}
	t.ID = transactionID
	t.Touch()

	m := toTransactionModel(t)
	_, err = s.mdb.NewUpdate((*transactionModel)(nil)).
		Filter(bson.M{"_id": m.ID}).
		SetUpdate(bson.M{"$set": bson.M{
			"tenant":           m.Tenant,
			"transaction_tag":  m.TransactionTag,
			"account_tag":      m.AccountTag,
			"invoice_number":   m.InvoiceNumber,
			"source":           m.Source,
			"source_ip":        m.SourceIP,
			"destination":      m.Destination,
			"carrier_ip":       m.CarrierIP,
			"tags":             m.Tags,
			"authorized":       m.Authorized,
			"destination_rate": m.DestinationRate,
			"timestamp_auth":   m.TimestampAuth,
			"timestamp_begin":  m.TimestampBegin,
			"timestamp_end":    m.TimestampEnd,
			"primary":          m.Primary,
			"inbound":          m.Inbound,
			"failed":           m.Failed,
			"failed_reason":    m.FailedReason,
			"duration":         m.Duration,
			"fee":              m.Fee,
			"updated_at":       m.UpdatedAt,
		}}).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("rating/mongo: upsert transaction: %w", err)
	}
	return t, nil
}

func (s *Store) GetTransaction(ctx context.Context, transactionID id.TransactionID) (*transaction.Transaction, error) {
	var m transactionModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": transactionID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, rating.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("rating/mongo: get transaction: %w", err)
	}
	return fromTransactionModel(&m)
}

func (s *Store) GetTransactionByTag(ctx context.Context, tenant, transactionTag, accountTag string) (*transaction.Transaction, error) {
	var m transactionModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{
			"tenant":          tenant,
			"transaction_tag": transactionTag,
			"account_tag":     accountTag,
		}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, rating.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("rating/mongo: get transaction by tag: %w", err)
	}
	return fromTransactionModel(&m)
}

func (s *Store) ListTransactions(ctx context.Context, opts transaction.ListOpts) ([]*transaction.Transaction, error) {
	var models []transactionModel

	q := s.mdb.NewFind(&models).
		Filter(transactionFilterQuery(opts.Filter)).
		Sort(sortSpec("transaction_tag", opts.Descending))

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("rating/mongo: list transactions: %w", err)
	}

	result := make([]*transaction.Transaction, len(models))
	for i := range models {
		t, err := fromTransactionModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = t
	}
	return result, nil
}

func (s *Store) CountTransactions(ctx context.Context, f transaction.Filter) (int64, error) {
	n, err := s.mdb.Collection(colTransactions).CountDocuments(ctx, transactionFilterQuery(f))
	if err != nil {
		return 0, fmt.Errorf("rating/mongo: count transactions: %w", err)
	}
	return n, nil
}

func (s *Store) DeleteTransaction(ctx context.Context, transactionID id.TransactionID) (*transaction.Transaction, error) {
	var m transactionModel
	err := s.mdb.Collection(colTransactions).
		FindOneAndDelete(ctx, bson.M{"_id": transactionID.String()}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, rating.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("rating/mongo: delete transaction: %w", err)
	}
	return fromTransactionModel(&m)
}

func (s *Store) DeleteTransactionByTag(ctx context.Context, tenant, transactionTag, accountTag string) (*transaction.Transaction, error) {
	var m transactionModel
	err := s.mdb.Collection(colTransactions).
		FindOneAndDelete(ctx, bson.M{
			"tenant":          tenant,
			"transaction_tag": transactionTag,
			"account_tag":     accountTag,
		}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, rating.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("rating/mongo: delete transaction by tag: %w", err)
	}
	return fromTransactionModel(&m)
}

// ==================== Helpers ====================

// lookupID resolves the _id of an existing document, trying the given
// primary key first and falling back to the natural key filter. An
// empty result means the document does not exist.
func (s *Store) lookupID(ctx context.Context, col, pk string, naturalKey bson.M) (string, error) {
	var doc struct {
		ID string `bson:"_id"`
	}

	proj := options.FindOne().SetProjection(bson.M{"_id": 1})

	if pk != "" {
		err := s.mdb.Collection(col).
			FindOne(ctx, bson.M{"_id": pk}, proj).
			Decode(&doc)
		if err == nil {
			return doc.ID, nil
		}
		if !isNoDocuments(err) {
			return "", err
		}
	}

	err := s.mdb.Collection(col).
		FindOne(ctx, naturalKey, proj).
		Decode(&doc)
	if err != nil {
		if isNoDocuments(err) {
			return "", nil
		}
		return "", err
	}
	return doc.ID, nil
}

func extractRunningTransaction(m *accountModel, transactionTag string) (*account.RunningTransaction, error) {
	for i := range m.RunningTransactions {
		if m.RunningTransactions[i].TransactionTag == transactionTag {
			return fromRunningTransactionModel(&m.RunningTransactions[i])
		}
	}
	return nil, rating.ErrTransactionNotFound
}

func accountFilterQuery(f account.Filter) bson.M {
	filter := bson.M{}
	if f.Tenant != "" {
		filter["tenant"] = f.Tenant
	}
	if f.AccountTag != "" {
		filter["account_tag"] = f.AccountTag
	}
	if f.CustomerTag != "" {
		filter["customer_tag"] = f.CustomerTag
	}
	if f.Type != "" {
		filter["type"] = string(f.Type)
	}
	if f.Active != nil {
		filter["active"] = *f.Active
	}
	if f.WithRunningTransactions {
		filter["running_transactions"] = bson.M{"$elemMatch": bson.M{
			"status":  string(account.TransactionBegun),
			"inbound": false,
		}}
	}
	if f.WithLongRunningTransactions {
		filter["running_transactions"] = bson.M{"$elemMatch": bson.M{
			"status":          string(account.TransactionBegun),
			"timestamp_begin": bson.M{"$lt": f.StaleBefore},
		}}
	}
	applyIDs(filter, idStrings(f.IDs))
	applyQ(filter, f.Q, "account_tag", "name")
	return filter
}

func rateFilterQuery(f pricelist.RateFilter) bson.M {
	filter := bson.M{}
	if f.Tenant != "" {
		filter["tenant"] = f.Tenant
	}
	if f.PricelistTag != "" {
		filter["pricelist_tag"] = f.PricelistTag
	}
	if f.CarrierTag != "" {
		filter["carrier_tag"] = f.CarrierTag
	}
	if !f.PricelistID.IsNil() {
		filter["pricelist_id"] = f.PricelistID.String()
	}
	if !f.CarrierID.IsNil() {
		filter["carrier_id"] = f.CarrierID.String()
	}
	if f.Prefix != "" {
		filter["prefix"] = f.Prefix
	}
	if f.Active != nil {
		filter["active"] = *f.Active
	}
	applyIDs(filter, idStrings(f.IDs))
	applyQ(filter, f.Q, "prefix", "description")
	return filter
}

func transactionFilterQuery(f transaction.Filter) bson.M {
	filter := bson.M{}
	if f.Tenant != "" {
		filter["tenant"] = f.Tenant
	}
	if f.TransactionTag != "" {
		filter["transaction_tag"] = f.TransactionTag
	}
	if f.AccountTag != "" {
		filter["account_tag"] = f.AccountTag
	}
	if f.InvoiceNumber != "" {
		filter["invoice_number"] = f.InvoiceNumber
	}
	if f.Primary != nil {
		filter["primary"] = *f.Primary
	}
	if f.Inbound != nil {
		filter["inbound"] = *f.Inbound
	}
	applyIDs(filter, idStrings(f.IDs))
	applyQ(filter, f.Q, "transaction_tag", "account_tag", "destination")
	return filter
}

func balanceScopeQuery(tenant, accountTag string, tags []string) bson.M {
	filter := bson.M{"tenant": tenant}
	if accountTag != "" {
		filter["account_tag"] = accountTag
	}
	if len(tags) > 0 {
		filter["tags"] = bson.M{"$in": tags}
	}
	return filter
}

func accountSortField(field string) string {
	switch field {
	case "balance", "name":
		return field
	case "id":
		return "_id"
	default:
		return "account_tag"
	}
}

func rateSortField(field string) string {
	switch field {
	case "rate", "carrier_tag":
		return field
	case "id":
		return "_id"
	default:
		return "prefix"
	}
}

func sortSpec(field string, descending bool) bson.D {
	dir := 1
	if descending {
		dir = -1
	}
	return bson.D{{Key: field, Value: dir}}
}

func applyIDs(filter bson.M, ids []string) {
	if len(ids) > 0 {
		filter["_id"] = bson.M{"$in": ids}
	}
}

// applyQ adds a case-insensitive substring match over the given fields.
func applyQ(filter bson.M, q string, fields ...string) {
	if q == "" {
		return
	}
	or := make(bson.A, len(fields))
	for i, f := range fields {
		or[i] = bson.M{f: bson.M{"$regex": q, "$options": "i"}}
	}
	filter["$or"] = or
}

func idStrings(ids []id.ID) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	for i, v := range ids {
		out[i] = v.String()
	}
	return out
}

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all rating
// collections. Natural keys are unique per tenant; the remaining
// indexes back destination lookups and stale-call sweeps.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colAccounts: {
			{
				Keys:    bson.D{{Key: "tenant", Value: 1}, {Key: "account_tag", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "tenant", Value: 1}, {Key: "account_tag", Value: 1}, {Key: "running_transactions.transaction_tag", Value: 1}}},
			{Keys: bson.D{{Key: "tenant", Value: 1}, {Key: "type", Value: 1}, {Key: "running_transactions.status", Value: 1}}},
		},
		colCarriers: {
			{
				Keys:    bson.D{{Key: "tenant", Value: 1}, {Key: "carrier_tag", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colPriceLists: {
			{
				Keys:    bson.D{{Key: "tenant", Value: 1}, {Key: "pricelist_tag", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colRates: {
			{
				Keys:    bson.D{{Key: "tenant", Value: 1}, {Key: "pricelist_tag", Value: 1}, {Key: "prefix", Value: 1}, {Key: "carrier_tag", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "tenant", Value: 1}, {Key: "prefix", Value: 1}, {Key: "pricelist_tag", Value: 1}}},
			{Keys: bson.D{{Key: "tenant", Value: 1}, {Key: "active", Value: 1}, {Key: "prefix_len", Value: -1}}},
		},
		colCustomers: {
			{
				Keys:    bson.D{{Key: "tenant", Value: 1}, {Key: "customer_tag", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colSellers: {
			{
				Keys:    bson.D{{Key: "tenant", Value: 1}, {Key: "seller_tag", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colInvoices: {
			{
				Keys:    bson.D{{Key: "tenant", Value: 1}, {Key: "invoice_number", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "tenant", Value: 1}, {Key: "customer_tag", Value: 1}, {Key: "invoice_date", Value: -1}}},
		},
		colTransactions: {
			{
				Keys:    bson.D{{Key: "tenant", Value: 1}, {Key: "transaction_tag", Value: 1}, {Key: "account_tag", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "tenant", Value: 1}, {Key: "account_tag", Value: 1}, {Key: "timestamp_begin", Value: -1}}},
			{Keys: bson.D{{Key: "tenant", Value: 1}, {Key: "invoice_number", Value: 1}}},
		},
	}
}
