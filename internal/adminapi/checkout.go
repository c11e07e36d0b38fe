package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/palengkeplus/palengke/internal/checkout"
	"github.com/palengkeplus/palengke/internal/webserver"
	"github.com/palengkeplus/palengke/pkg/metrics"
)

func registerCheckoutRoutes() {
	webserver.ApiPOST("/checkout", processCheckout)
}

// processCheckout submits a cart. Totals in the payload are ignored; the
// orchestrator prices the cart from the catalog.
func processCheckout(c echo.Context) error {
	claims := currentClaims(c)
	if claims == nil {
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Login required", nil)
	}
	userID, err := claims.UserID()
	if err != nil {
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Login required", nil)
	}

	var req checkout.Request
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse checkout request", nil)
	}

	receipt, err := getApp(c).CheckoutService().Checkout(c.Request().Context(), userID, req)
	if err != nil {
		metrics.CounterIncr(metrics.CheckoutAborted, 1)
		var aerr *checkout.AbortError
		if errors.As(err, &aerr) {
			return failCheckout(c, aerr)
		}
		return fail(c, http.StatusInternalServerError, "CHECKOUT_FAILED", "Checkout failed", err.Error())
	}
	return ok(c, receipt)
}

// failCheckout maps abort reasons to HTTP statuses with the offending
// product attached where one exists.
func failCheckout(c echo.Context, aerr *checkout.AbortError) error {
	status := http.StatusUnprocessableEntity
	msg := "Checkout aborted"
	switch aerr.Reason {
	case checkout.ReasonPermissionDenied:
		status = http.StatusForbidden
		msg = "You do not have permission to process sales"
	case checkout.ReasonEmptyCart:
		status = http.StatusBadRequest
		msg = "Cart is empty"
	case checkout.ReasonInvalidQuantity:
		status = http.StatusBadRequest
		msg = "Item quantity must be greater than zero"
	case checkout.ReasonUnknownProduct:
		status = http.StatusBadRequest
		msg = "Cart references an unknown product"
	case checkout.ReasonInsufficientStock:
		msg = "Not enough stock available"
	case checkout.ReasonInsufficientPayment:
		msg = "Payment amount does not cover the total"
	case checkout.ReasonStorage:
		status = http.StatusInternalServerError
		msg = "Checkout failed"
	}

	body := map[string]interface{}{
		"success": false,
		"reason":  aerr.Reason,
		"message": msg,
	}
	if aerr.ProductID != 0 {
		body["product_id"] = aerr.ProductID
		if aerr.Reason == checkout.ReasonInsufficientStock {
			body["available"] = aerr.Available
		}
	}
	return c.JSON(status, body)
}
