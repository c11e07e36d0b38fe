package checkout

import "fmt"

// Abort reasons surfaced to callers. Storage detail never rides along;
// it is logged internally and callers see only the reason code.
const (
	ReasonPermissionDenied    = "permission_denied"
	ReasonEmptyCart           = "empty_cart"
	ReasonInvalidQuantity     = "invalid_quantity"
	ReasonUnknownProduct      = "unknown_product"
	ReasonInsufficientStock   = "insufficient_stock"
	ReasonInsufficientPayment = "insufficient_payment"
	ReasonStorage             = "storage_error"
)

// AbortError is the terminal failure of a checkout. For stock failures it
// carries the offending product and the quantity that was available.
type AbortError struct {
	Reason    string
	ProductID int64
	Available int
}

func (e *AbortError) Error() string {
	if e.ProductID != 0 {
		return fmt.Sprintf("checkout aborted: %s (product %d, available %d)", e.Reason, e.ProductID, e.Available)
	}
	return "checkout aborted: " + e.Reason
}

func abortErr(reason string) *AbortError {
	return &AbortError{Reason: reason}
}

func abortProduct(reason string, productID int64, available int) *AbortError {
	return &AbortError{Reason: reason, ProductID: productID, Available: available}
}
