package mongo

import (
	"time"

	"github.com/xraph/grove"

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

// ==================== Account models ====================

type accountModel struct {
	grove.BaseModel `grove:"table:rating_accounts"`

	ID                        string                    `grove:"id,pk"                       bson:"_id"`
	Tenant                    string                    `grove:"tenant"                      bson:"tenant"`
	AccountTag                string                    `grove:"account_tag"                 bson:"account_tag"`
	Name                      string                    `grove:"name"                        bson:"name"`
	Type                      string                    `grove:"type"                        bson:"type"`
	CustomerTag               string                    `grove:"customer_tag"                bson:"customer_tag"`
	NotificationEmail         string                    `grove:"notification_email"          bson:"notification_email"`
	NotificationMobile        string                    `grove:"notification_mobile"         bson:"notification_mobile"`
	Active                    bool                      `grove:"active"                      bson:"active"`
	Balance                   int64                     `grove:"balance"                     bson:"balance"`
	MaxConcurrentTransactions int                       `grove:"max_concurrent_transactions" bson:"max_concurrent_transactions"`
	MaxInboundTransactions    int                       `grove:"max_inbound_transactions"    bson:"max_inbound_transactions"`
	MaxOutboundTransactions   int                       `grove:"max_outbound_transactions"   bson:"max_outbound_transactions"`
	RunningTransactions       []runningTransactionModel `grove:"running_transactions"        bson:"running_transactions"`
	CarrierTags               []string                  `grove:"carrier_tags"                bson:"carrier_tags,omitempty"`
	CarrierTagsOverride       []string                  `grove:"carrier_tags_override"       bson:"carrier_tags_override,omitempty"`
	PricelistTags             []string                  `grove:"pricelist_tags"              bson:"pricelist_tags,omitempty"`
	Tags                      []string                  `grove:"tags"                        bson:"tags,omitempty"`
	LinkedAccounts            []string                  `grove:"linked_accounts"             bson:"linked_accounts,omitempty"`
	CreatedAt                 time.Time                 `grove:"created_at"                  bson:"created_at"`
	UpdatedAt                 time.Time                 `grove:"updated_at"                  bson:"updated_at"`
}

type runningTransactionModel struct {
	TransactionTag  string             `bson:"transaction_tag"`
	ProxyTag        string             `bson:"proxy_tag"`
	Source          string             `bson:"source"`
	SourceIP        string             `bson:"source_ip"`
	Destination     string             `bson:"destination"`
	CarrierIP       string             `bson:"carrier_ip"`
	Tags            []string           `bson:"tags,omitempty"`
	DestinationRate *rateSnapshotModel `bson:"destination_rate,omitempty"`
	Status          string             `bson:"status"`
	Inbound         bool               `bson:"inbound"`
	Primary         bool               `bson:"primary"`
	TimestampBegin  time.Time          `bson:"timestamp_begin"`
	TimestampEnd    *time.Time         `bson:"timestamp_end,omitempty"`
}

// rateSnapshotModel is the embedded copy of a rate taken at begin time.
// It carries the same fields as rateModel but lives inside its parent
// document rather than in the rates collection.
type rateSnapshotModel struct {
	ID            string     `bson:"id"`
	Tenant        string     `bson:"tenant"`
	PricelistID   string     `bson:"pricelist_id"`
	PricelistTag  string     `bson:"pricelist_tag"`
	CarrierID     string     `bson:"carrier_id"`
	CarrierTag    string     `bson:"carrier_tag"`
	Prefix        string     `bson:"prefix"`
	DatetimeStart *time.Time `bson:"datetime_start,omitempty"`
	DatetimeEnd   *time.Time `bson:"datetime_end,omitempty"`
	Active        bool       `bson:"active"`
	ConnectFee    int64      `bson:"connect_fee"`
	Rate          int64      `bson:"rate"`
	RateIncrement int64      `bson:"rate_increment"`
	IntervalStart int64      `bson:"interval_start"`
	Description   string     `bson:"description"`
	CreatedAt     time.Time  `bson:"created_at"`
	UpdatedAt     time.Time  `bson:"updated_at"`
}

func toAccountModel(a *account.Account) *accountModel {
	running := make([]runningTransactionModel, len(a.RunningTransactions))
	for i := range a.RunningTransactions {
		running[i] = toRunningTransactionModel(&a.RunningTransactions[i])
	}

	return &accountModel{
		ID:                        a.ID.String(),
		Tenant:                    a.Tenant,
		AccountTag:                a.AccountTag,
		Name:                      a.Name,
		Type:                      string(a.Type),
		CustomerTag:               a.CustomerTag,
		NotificationEmail:         a.NotificationEmail,
		NotificationMobile:        a.NotificationMobile,
		Active:                    a.Active,
		Balance:                   a.Balance,
		MaxConcurrentTransactions: a.MaxConcurrentTransactions,
		MaxInboundTransactions:    a.MaxInboundTransactions,
		MaxOutboundTransactions:   a.MaxOutboundTransactions,
		RunningTransactions:       running,
		CarrierTags:               a.CarrierTags,
		CarrierTagsOverride:       a.CarrierTagsOverride,
		PricelistTags:             a.PricelistTags,
		Tags:                      a.Tags,
		LinkedAccounts:            a.LinkedAccounts,
		CreatedAt:                 a.CreatedAt,
		UpdatedAt:                 a.UpdatedAt,
	}
}

func fromAccountModel(m *accountModel) (*account.Account, error) {
	accountID, err := id.ParseAccountID(m.ID)
	if err != nil {
		return nil, err
	}

	running := make([]account.RunningTransaction, len(m.RunningTransactions))
	for i := range m.RunningTransactions {
		txn, txnErr := fromRunningTransactionModel(&m.RunningTransactions[i])
		if txnErr != nil {
			return nil, txnErr
		}
		running[i] = *txn
	}

	return &account.Account{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:                        accountID,
		Tenant:                    m.Tenant,
		AccountTag:                m.AccountTag,
		Name:                      m.Name,
		Type:                      account.Type(m.Type),
		CustomerTag:               m.CustomerTag,
		NotificationEmail:         m.NotificationEmail,
		NotificationMobile:        m.NotificationMobile,
		Active:                    m.Active,
		Balance:                   m.Balance,
		MaxConcurrentTransactions: m.MaxConcurrentTransactions,
		MaxInboundTransactions:    m.MaxInboundTransactions,
		MaxOutboundTransactions:   m.MaxOutboundTransactions,
		RunningTransactions:       running,
		CarrierTags:               m.CarrierTags,
		CarrierTagsOverride:       m.CarrierTagsOverride,
		PricelistTags:             m.PricelistTags,
		Tags:                      m.Tags,
		LinkedAccounts:            m.LinkedAccounts,
	}, nil
}

func toRunningTransactionModel(t *account.RunningTransaction) runningTransactionModel {
	return runningTransactionModel{
		TransactionTag:  t.TransactionTag,
		ProxyTag:        t.ProxyTag,
		Source:          t.Source,
		SourceIP:        t.SourceIP,
		Destination:     t.Destination,
		CarrierIP:       t.CarrierIP,
		Tags:            t.Tags,
		DestinationRate: toRateSnapshotModel(t.DestinationRate),
		Status:          string(t.Status),
		Inbound:         t.Inbound,
		Primary:         t.Primary,
		TimestampBegin:  t.TimestampBegin,
		TimestampEnd:    t.TimestampEnd,
	}
}

func fromRunningTransactionModel(m *runningTransactionModel) (*account.RunningTransaction, error) {
	rate, err := fromRateSnapshotModel(m.DestinationRate)
	if err != nil {
		return nil, err
	}

	return &account.RunningTransaction{
		TransactionTag:  m.TransactionTag,
		ProxyTag:        m.ProxyTag,
		Source:          m.Source,
		SourceIP:        m.SourceIP,
		Destination:     m.Destination,
		CarrierIP:       m.CarrierIP,
		Tags:            m.Tags,
		DestinationRate: rate,
		Status:          account.TransactionStatus(m.Status),
		Inbound:         m.Inbound,
		Primary:         m.Primary,
		TimestampBegin:  m.TimestampBegin,
		TimestampEnd:    m.TimestampEnd,
	}, nil
}

func toRateSnapshotModel(r *pricelist.Rate) *rateSnapshotModel {
	if r == nil {
		return nil
	}
	return &rateSnapshotModel{
		ID:            r.ID.String(),
		Tenant:        r.Tenant,
		PricelistID:   r.PricelistID.String(),
		PricelistTag:  r.PricelistTag,
		CarrierID:     r.CarrierID.String(),
		CarrierTag:    r.CarrierTag,
		Prefix:        r.Prefix,
		DatetimeStart: r.DatetimeStart,
		DatetimeEnd:   r.DatetimeEnd,
		Active:        r.Active,
		ConnectFee:    r.ConnectFee,
		Rate:          r.Rate,
		RateIncrement: r.RateIncrement,
		IntervalStart: r.IntervalStart,
		Description:   r.Description,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func fromRateSnapshotModel(m *rateSnapshotModel) (*pricelist.Rate, error) {
	if m == nil {
		return nil, nil
	}

	rateID, err := parseOptionalID(m.ID)
	if err != nil {
		return nil, err
	}
	pricelistID, err := parseOptionalID(m.PricelistID)
	if err != nil {
		return nil, err
	}
	carrierID, err := parseOptionalID(m.CarrierID)
	if err != nil {
		return nil, err
	}

	return &pricelist.Rate{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:            rateID,
		Tenant:        m.Tenant,
		PricelistID:   pricelistID,
		PricelistTag:  m.PricelistTag,
		CarrierID:     carrierID,
		CarrierTag:    m.CarrierTag,
		Prefix:        m.Prefix,
		DatetimeStart: m.DatetimeStart,
		DatetimeEnd:   m.DatetimeEnd,
		Active:        m.Active,
		ConnectFee:    m.ConnectFee,
		Rate:          m.Rate,
		RateIncrement: m.RateIncrement,
		IntervalStart: m.IntervalStart,
		Description:   m.Description,
	}, nil
}

// parseOptionalID tolerates the empty string, which snapshots use for
// references that were never set.
func parseOptionalID(s string) (id.ID, error) {
	if s == "" {
		return id.Nil, nil
	}
	return id.ParseAny(s)
}

// ==================== Carrier models ====================

type carrierModel struct {
	grove.BaseModel `grove:"table:rating_carriers"`

	ID         string    `grove:"id,pk"       bson:"_id"`
	Tenant     string    `grove:"tenant"      bson:"tenant"`
	CarrierTag string    `grove:"carrier_tag" bson:"carrier_tag"`
	Host       string    `grove:"host"        bson:"host"`
	Port       int       `grove:"port"        bson:"port"`
	Protocol   string    `grove:"protocol"    bson:"protocol"`
	Active     bool      `grove:"active"      bson:"active"`
	CreatedAt  time.Time `grove:"created_at"  bson:"created_at"`
	UpdatedAt  time.Time `grove:"updated_at"  bson:"updated_at"`
}

func toCarrierModel(c *carrier.Carrier) *carrierModel {
	return &carrierModel{
		ID:         c.ID.String(),
		Tenant:     c.Tenant,
		CarrierTag: c.CarrierTag,
		Host:       c.Host,
		Port:       c.Port,
		Protocol:   string(c.Protocol),
		Active:     c.Active,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func fromCarrierModel(m *carrierModel) (*carrier.Carrier, error) {
	carrierID, err := id.ParseCarrierID(m.ID)
	if err != nil {
		return nil, err
	}

	return &carrier.Carrier{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:         carrierID,
		Tenant:     m.Tenant,
		CarrierTag: m.CarrierTag,
		Host:       m.Host,
		Port:       m.Port,
		Protocol:   carrier.Protocol(m.Protocol),
		Active:     m.Active,
	}, nil
}

// ==================== Price list models ====================

type priceListModel struct {
	grove.BaseModel `grove:"table:rating_pricelists"`

	ID           string    `grove:"id,pk"         bson:"_id"`
	Tenant       string    `grove:"tenant"        bson:"tenant"`
	PricelistTag string    `grove:"pricelist_tag" bson:"pricelist_tag"`
	Name         string    `grove:"name"          bson:"name"`
	Currency     string    `grove:"currency"      bson:"currency"`
	Active       bool      `grove:"active"        bson:"active"`
	CreatedAt    time.Time `grove:"created_at"    bson:"created_at"`
	UpdatedAt    time.Time `grove:"updated_at"    bson:"updated_at"`
}

func toPriceListModel(p *pricelist.PriceList) *priceListModel {
	return &priceListModel{
		ID:           p.ID.String(),
		Tenant:       p.Tenant,
		PricelistTag: p.PricelistTag,
		Name:         p.Name,
		Currency:     string(p.Currency),
		Active:       p.Active,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func fromPriceListModel(m *priceListModel) (*pricelist.PriceList, error) {
	priceListID, err := id.ParsePriceListID(m.ID)
	if err != nil {
		return nil, err
	}

	return &pricelist.PriceList{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:           priceListID,
		Tenant:       m.Tenant,
		PricelistTag: m.PricelistTag,
		Name:         m.Name,
		Currency:     pricelist.Currency(m.Currency),
		Active:       m.Active,
	}, nil
}

// ==================== Rate models ====================

// PrefixLen is stored alongside the prefix so destination lookups can
// sort longest-match-first server side.
type rateModel struct {
	grove.BaseModel `grove:"table:rating_rates"`

	ID            string     `grove:"id,pk"          bson:"_id"`
	Tenant        string     `grove:"tenant"         bson:"tenant"`
	PricelistID   string     `grove:"pricelist_id"   bson:"pricelist_id"`
	PricelistTag  string     `grove:"pricelist_tag"  bson:"pricelist_tag"`
	CarrierID     string     `grove:"carrier_id"     bson:"carrier_id"`
	CarrierTag    string     `grove:"carrier_tag"    bson:"carrier_tag"`
	Prefix        string     `grove:"prefix"         bson:"prefix"`
	PrefixLen     int        `grove:"prefix_len"     bson:"prefix_len"`
	DatetimeStart *time.Time `grove:"datetime_start" bson:"datetime_start,omitempty"`
	DatetimeEnd   *time.Time `grove:"datetime_end"   bson:"datetime_end,omitempty"`
	Active        bool       `grove:"active"         bson:"active"`
	ConnectFee    int64      `grove:"connect_fee"    bson:"connect_fee"`
	Rate          int64      `grove:"rate"           bson:"rate"`
	RateIncrement int64      `grove:"rate_increment" bson:"rate_increment"`
	IntervalStart int64      `grove:"interval_start" bson:"interval_start"`
	Description   string     `grove:"description"    bson:"description"`
	CreatedAt     time.Time  `grove:"created_at"     bson:"created_at"`
	UpdatedAt     time.Time  `grove:"updated_at"     bson:"updated_at"`
}

func toRateModel(r *pricelist.Rate) *rateModel {
	return &rateModel{
		ID:            r.ID.String(),
		Tenant:        r.Tenant,
		PricelistID:   r.PricelistID.String(),
		PricelistTag:  r.PricelistTag,
		CarrierID:     r.CarrierID.String(),
		CarrierTag:    r.CarrierTag,
		Prefix:        r.Prefix,
		PrefixLen:     len(r.Prefix),
		DatetimeStart: r.DatetimeStart,
		DatetimeEnd:   r.DatetimeEnd,
		Active:        r.Active,
		ConnectFee:    r.ConnectFee,
		Rate:          r.Rate,
		RateIncrement: r.RateIncrement,
		IntervalStart: r.IntervalStart,
		Description:   r.Description,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func fromRateModel(m *rateModel) (*pricelist.Rate, error) {
	rateID, err := id.ParseRateID(m.ID)
	if err != nil {
		return nil, err
	}
	pricelistID, err := parseOptionalID(m.PricelistID)
	if err != nil {
		return nil, err
	}
	carrierID, err := parseOptionalID(m.CarrierID)
	if err != nil {
		return nil, err
	}

	return &pricelist.Rate{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:            rateID,
		Tenant:        m.Tenant,
		PricelistID:   pricelistID,
		PricelistTag:  m.PricelistTag,
		CarrierID:     carrierID,
		CarrierTag:    m.CarrierTag,
		Prefix:        m.Prefix,
		DatetimeStart: m.DatetimeStart,
		DatetimeEnd:   m.DatetimeEnd,
		Active:        m.Active,
		ConnectFee:    m.ConnectFee,
		Rate:          m.Rate,
		RateIncrement: m.RateIncrement,
		IntervalStart: m.IntervalStart,
		Description:   m.Description,
	}, nil
}

// ==================== Customer models ====================

type customerModel struct {
	grove.BaseModel `grove:"table:rating_customers"`

	ID          string    `grove:"id,pk"        bson:"_id"`
	Tenant      string    `grove:"tenant"       bson:"tenant"`
	CustomerTag string    `grove:"customer_tag" bson:"customer_tag"`
	CompanyName string    `grove:"company_name" bson:"company_name"`
	Firstname   string    `grove:"firstname"    bson:"firstname"`
	Lastname    string    `grove:"lastname"     bson:"lastname"`
	Email       string    `grove:"email"        bson:"email"`
	TaxNumber   string    `grove:"tax_number"   bson:"tax_number"`
	VATNumber   string    `grove:"vat_number"   bson:"vat_number"`
	VATPolicy   string    `grove:"vat_policy"   bson:"vat_policy"`
	Address     string    `grove:"address"      bson:"address"`
	Zipcode     string    `grove:"zipcode"      bson:"zipcode"`
	City        string    `grove:"city"         bson:"city"`
	Province    string    `grove:"province"     bson:"province"`
	Country     string    `grove:"country"      bson:"country"`
	Active      bool      `grove:"active"       bson:"active"`
	CreatedAt   time.Time `grove:"created_at"   bson:"created_at"`
	UpdatedAt   time.Time `grove:"updated_at"   bson:"updated_at"`
}

func toCustomerModel(c *customer.Customer) *customerModel {
	return &customerModel{
		ID:          c.ID.String(),
		Tenant:      c.Tenant,
		CustomerTag: c.CustomerTag,
		CompanyName: c.CompanyName,
		Firstname:   c.Firstname,
		Lastname:    c.Lastname,
		Email:       c.Email,
		TaxNumber:   c.TaxNumber,
		VATNumber:   c.VATNumber,
		VATPolicy:   string(c.VATPolicy),
		Address:     c.Address,
		Zipcode:     c.Zipcode,
		City:        c.City,
		Province:    c.Province,
		Country:     c.Country,
		Active:      c.Active,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func fromCustomerModel(m *customerModel) (*customer.Customer, error) {
	customerID, err := id.ParseCustomerID(m.ID)
	if err != nil {
		return nil, err
	}

	return &customer.Customer{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:          customerID,
		Tenant:      m.Tenant,
		CustomerTag: m.CustomerTag,
		CompanyName: m.CompanyName,
		Firstname:   m.Firstname,
		Lastname:    m.Lastname,
		Email:       m.Email,
		TaxNumber:   m.TaxNumber,
		VATNumber:   m.VATNumber,
		VATPolicy:   customer.VATPolicy(m.VATPolicy),
		Address:     m.Address,
		Zipcode:     m.Zipcode,
		City:        m.City,
		Province:    m.Province,
		Country:     m.Country,
		Active:      m.Active,
	}, nil
}

// ==================== Seller models ====================

type sellerModel struct {
	grove.BaseModel `grove:"table:rating_sellers"`

	ID          string    `grove:"id,pk"        bson:"_id"`
	Tenant      string    `grove:"tenant"       bson:"tenant"`
	SellerTag   string    `grove:"seller_tag"   bson:"seller_tag"`
	CompanyName string    `grove:"company_name" bson:"company_name"`
	Firstname   string    `grove:"firstname"    bson:"firstname"`
	Lastname    string    `grove:"lastname"     bson:"lastname"`
	Email       string    `grove:"email"        bson:"email"`
	TaxNumber   string    `grove:"tax_number"   bson:"tax_number"`
	VATNumber   string    `grove:"vat_number"   bson:"vat_number"`
	Address     string    `grove:"address"      bson:"address"`
	Zipcode     string    `grove:"zipcode"      bson:"zipcode"`
	City        string    `grove:"city"         bson:"city"`
	Province    string    `grove:"province"     bson:"province"`
	Country     string    `grove:"country"      bson:"country"`
	Active      bool      `grove:"active"       bson:"active"`
	CreatedAt   time.Time `grove:"created_at"   bson:"created_at"`
	UpdatedAt   time.Time `grove:"updated_at"   bson:"updated_at"`
}

func toSellerModel(sl *seller.Seller) *sellerModel {
	return &sellerModel{
		ID:          sl.ID.String(),
		Tenant:      sl.Tenant,
		SellerTag:   sl.SellerTag,
		CompanyName: sl.CompanyName,
		Firstname:   sl.Firstname,
		Lastname:    sl.Lastname,
		Email:       sl.Email,
		TaxNumber:   sl.TaxNumber,
		VATNumber:   sl.VATNumber,
		Address:     sl.Address,
		Zipcode:     sl.Zipcode,
		City:        sl.City,
		Province:    sl.Province,
		Country:     sl.Country,
		Active:      sl.Active,
		CreatedAt:   sl.CreatedAt,
		UpdatedAt:   sl.UpdatedAt,
	}
}

func fromSellerModel(m *sellerModel) (*seller.Seller, error) {
	sellerID, err := id.ParseSellerID(m.ID)
	if err != nil {
		return nil, err
	}

	return &seller.Seller{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:          sellerID,
		Tenant:      m.Tenant,
		SellerTag:   m.SellerTag,
		CompanyName: m.CompanyName,
		Firstname:   m.Firstname,
		Lastname:    m.Lastname,
		Email:       m.Email,
		TaxNumber:   m.TaxNumber,
		VATNumber:   m.VATNumber,
		Address:     m.Address,
		Zipcode:     m.Zipcode,
		City:        m.City,
		Province:    m.Province,
		Country:     m.Country,
		Active:      m.Active,
	}, nil
}

// ==================== Invoice models ====================

type invoiceModel struct {
	grove.BaseModel `grove:"table:rating_invoices"`

	ID            string            `grove:"id,pk"          bson:"_id"`
	Tenant        string            `grove:"tenant"         bson:"tenant"`
	InvoiceNumber string            `grove:"invoice_number" bson:"invoice_number"`
	InvoiceDate   time.Time         `grove:"invoice_date"   bson:"invoice_date"`
	CustomerTag   string            `grove:"customer_tag"   bson:"customer_tag"`
	Rows          []invoiceRowModel `grove:"rows"           bson:"rows"`
	NetTotal      int64             `grove:"net_total"      bson:"net_total"`
	VATRate       int64             `grove:"vat_rate"       bson:"vat_rate"`
	Total         int64             `grove:"total"          bson:"total"`
	CreatedAt     time.Time         `grove:"created_at"     bson:"created_at"`
	UpdatedAt     time.Time         `grove:"updated_at"     bson:"updated_at"`
}

type invoiceRowModel struct {
	Prefix      string `bson:"prefix"`
	Description string `bson:"description"`
	UnitPrice   int64  `bson:"unit_price"`
	Quantity    int64  `bson:"quantity"`
	Total       int64  `bson:"total"`
}

func toInvoiceModel(inv *invoice.Invoice) *invoiceModel {
	rows := make([]invoiceRowModel, len(inv.Rows))
	for i, r := range inv.Rows {
		rows[i] = invoiceRowModel{
			Prefix:      r.Prefix,
			Description: r.Description,
			UnitPrice:   r.UnitPrice,
			Quantity:    r.Quantity,
			Total:       r.Total,
		}
	}

	return &invoiceModel{
		ID:            inv.ID.String(),
		Tenant:        inv.Tenant,
		InvoiceNumber: inv.InvoiceNumber,
		InvoiceDate:   inv.InvoiceDate,
		CustomerTag:   inv.CustomerTag,
		Rows:          rows,
		NetTotal:      inv.NetTotal,
		VATRate:       inv.VATRate,
		Total:         inv.Total,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
	}
}

func fromInvoiceModel(m *invoiceModel) (*invoice.Invoice, error) {
	invoiceID, err := id.ParseInvoiceID(m.ID)
	if err != nil {
		return nil, err
	}

	rows := make([]invoice.Row, len(m.Rows))
	for i, r := range m.Rows {
		rows[i] = invoice.Row{
			Prefix:      r.Prefix,
			Description: r.Description,
			UnitPrice:   r.UnitPrice,
			Quantity:    r.Quantity,
			Total:       r.Total,
		}
	}

	return &invoice.Invoice{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:            invoiceID,
		Tenant:        m.Tenant,
		InvoiceNumber: m.InvoiceNumber,
		InvoiceDate:   m.InvoiceDate,
		CustomerTag:   m.CustomerTag,
		Rows:          rows,
		NetTotal:      m.NetTotal,
		VATRate:       m.VATRate,
		Total:         m.Total,
	}, nil
}

// ==================== Archived transaction models ====================

type transactionModel struct {
	grove.BaseModel `grove:"table:rating_transactions"`

	ID              string             `grove:"id,pk"            bson:"_id"`
	Tenant          string             `grove:"tenant"           bson:"tenant"`
	TransactionTag  string             `grove:"transaction_tag"  bson:"transaction_tag"`
	AccountTag      string             `grove:"account_tag"      bson:"account_tag"`
	InvoiceNumber   string             `grove:"invoice_number"   bson:"invoice_number"`
	Source          string             `grove:"source"           bson:"source"`
	SourceIP        string             `grove:"source_ip"        bson:"source_ip"`
	Destination     string             `grove:"destination"      bson:"destination"`
	CarrierIP       string             `grove:"carrier_ip"       bson:"carrier_ip"`
	Tags            []string           `grove:"tags"             bson:"tags,omitempty"`
	Authorized      bool               `grove:"authorized"       bson:"authorized"`
	DestinationRate *rateSnapshotModel `grove:"destination_rate" bson:"destination_rate,omitempty"`
	TimestampAuth   *time.Time         `grove:"timestamp_auth"   bson:"timestamp_auth,omitempty"`
	TimestampBegin  *time.Time         `grove:"timestamp_begin"  bson:"timestamp_begin,omitempty"`
	TimestampEnd    *time.Time         `grove:"timestamp_end"    bson:"timestamp_end,omitempty"`
	Primary         bool               `grove:"primary"          bson:"primary"`
	Inbound         bool               `grove:"inbound"          bson:"inbound"`
	Failed          bool               `grove:"failed"           bson:"failed"`
	FailedReason    string             `grove:"failed_reason"    bson:"failed_reason"`
	Duration        int64              `grove:"duration"         bson:"duration"`
	Fee             int64              `grove:"fee"              bson:"fee"`
	CreatedAt       time.Time          `grove:"created_at"       bson:"created_at"`
	UpdatedAt       time.Time          `grove:"updated_at"       bson:"updated_at"`
}

func toTransactionModel(t *transaction.Transaction) *transactionModel {
	return &transactionModel{
		ID:              t.ID.String(),
		Tenant:          t.Tenant,
		TransactionTag:  t.TransactionTag,
		AccountTag:      t.AccountTag,
		InvoiceNumber:   t.InvoiceNumber,
		Source:          t.Source,
		SourceIP:        t.SourceIP,
		Destination:     t.Destination,
		CarrierIP:       t.CarrierIP,
		Tags:            t.Tags,
		Authorized:      t.Authorized,
		DestinationRate: toRateSnapshotModel(t.DestinationRate),
		TimestampAuth:   t.TimestampAuth,
		TimestampBegin:  t.TimestampBegin,
		TimestampEnd:    t.TimestampEnd,
		Primary:         t.Primary,
		Inbound:         t.Inbound,
		Failed:          t.Failed,
		FailedReason:    t.FailedReason,
		Duration:        t.Duration,
		Fee:             t.Fee,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

func fromTransactionModel(m *transactionModel) (*transaction.Transaction, error) {
	transactionID, err := id.ParseTransactionID(m.ID)
	if err != nil {
		return nil, err
	}
	rate, err := fromRateSnapshotModel(m.DestinationRate)
	if err != nil {
		return nil, err
	}

	return &transaction.Transaction{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:              transactionID,
		Tenant:          m.Tenant,
		TransactionTag:  m.TransactionTag,
		AccountTag:      m.AccountTag,
		InvoiceNumber:   m.InvoiceNumber,
		Source:          m.Source,
		SourceIP:        m.SourceIP,
		Destination:     m.Destination,
		CarrierIP:       m.CarrierIP,
		Tags:            m.Tags,
		Authorized:      m.Authorized,
		DestinationRate: rate,
		TimestampAuth:   m.TimestampAuth,
		TimestampBegin:  m.TimestampBegin,
		TimestampEnd:    m.TimestampEnd,
		Primary:         m.Primary,
		Inbound:         m.Inbound,
		Failed:          m.Failed,
		FailedReason:    m.FailedReason,
		Duration:        m.Duration,
		Fee:             m.Fee,
	}, nil
}
