package rating

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound        = errors.New("rating: not found")
	ErrAlreadyExists   = errors.New("rating: already exists")
	ErrInvalidInput    = errors.New("rating: invalid input")
	ErrAmbiguousLookup = errors.New("rating: provide either the id or the tenant and natural tag")

	// Account errors
	ErrAccountNotFound  = errors.New("rating: account not found")
	ErrAccountInactive  = errors.New("rating: account is inactive")
	ErrCustomerNotFound = errors.New("rating: customer not found")
	ErrSellerNotFound   = errors.New("rating: seller not found")

	// Transaction errors
	ErrTransactionNotFound = errors.New("rating: transaction not found")
	ErrTransactionExists   = errors.New("rating: running transaction with this tag already exists")

	// Rating errors
	ErrCarrierNotFound   = errors.New("rating: carrier not found")
	ErrPriceListNotFound = errors.New("rating: price list not found")
	ErrRateNotFound      = errors.New("rating: rate not found")

	// Invoice errors
	ErrInvoiceNotFound = errors.New("rating: invoice not found")

	// Store errors
	ErrStoreNotReady   = errors.New("rating: store not ready")
	ErrStoreClosed     = errors.New("rating: store is closed")
	ErrMigrationFailed = errors.New("rating: migration failed")
)

// ValidationError represents a caller-fixable validation failure, such
// as an ambiguous lookup or a rate referencing an unknown price list.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("rating: validation failed for %s: %s", e.Field, e.Message)
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrCustomerNotFound) ||
		errors.Is(err, ErrSellerNotFound) ||
		errors.Is(err, ErrTransactionNotFound) ||
		errors.Is(err, ErrCarrierNotFound) ||
		errors.Is(err, ErrPriceListNotFound) ||
		errors.Is(err, ErrRateNotFound) ||
		errors.Is(err, ErrInvoiceNotFound)
}

// IsValidation returns true if the error is caller-fixable.
func IsValidation(err error) bool {
	var v ValidationError
	return errors.As(err, &v) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrAmbiguousLookup)
}
