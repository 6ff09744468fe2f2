package seller

import (
	"github.com/xraph/rating/id"
	"github.com/xraph/rating/types"
)

// Seller is the invoicing party: the legal entity that issues invoices
// to customers within a tenant.
type Seller struct {
	types.Entity
	ID          id.SellerID `json:"id"`
	Tenant      string      `json:"tenant"`
	SellerTag   string      `json:"seller_tag"`
	CompanyName string      `json:"company_name"`
	Firstname   string      `json:"firstname"`
	Lastname    string      `json:"lastname"`
	Email       string      `json:"email"`
	TaxNumber   string      `json:"tax_number"`
	VATNumber   string      `json:"vat_number"`
	Address     string      `json:"address"`
	Zipcode     string      `json:"zipcode"`
	City        string      `json:"city"`
	Province    string      `json:"province"`
	Country     string      `json:"country"`
	Active      bool        `json:"active"`
}

// Filter narrows seller listings.
type Filter struct {
	Q         string
	IDs       []id.SellerID
	Tenant    string
	SellerTag string
}
