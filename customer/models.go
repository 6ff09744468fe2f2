package customer

import (
	"github.com/xraph/rating/id"
	"github.com/xraph/rating/types"
)

// VATPolicy controls how VAT applies to a customer's invoices.
type VATPolicy string

const (
	VATExempt   VATPolicy = "exempt"
	VATIncluded VATPolicy = "vat_included"
	VATExcluded VATPolicy = "vat_excluded"
)

// Customer is the billed party behind one or more accounts.
type Customer struct {
	types.Entity
	ID          id.CustomerID `json:"id"`
	Tenant      string        `json:"tenant"`
	CustomerTag string        `json:"customer_tag"`
	CompanyName string        `json:"company_name"`
	Firstname   string        `json:"firstname"`
	Lastname    string        `json:"lastname"`
	Email       string        `json:"email"`
	TaxNumber   string        `json:"tax_number"`
	VATNumber   string        `json:"vat_number"`
	VATPolicy   VATPolicy     `json:"vat_policy"`
	Address     string        `json:"address"`
	Zipcode     string        `json:"zipcode"`
	City        string        `json:"city"`
	Province    string        `json:"province"`
	Country     string        `json:"country"`
	Active      bool          `json:"active"`
}

// Filter narrows customer listings.
type Filter struct {
	Q           string
	IDs         []id.CustomerID
	Tenant      string
	CustomerTag string
}
