package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/palengkeplus/palengke/internal/domain"
	"github.com/palengkeplus/palengke/internal/inventory"
	"github.com/palengkeplus/palengke/internal/webserver"
)

func registerTransactionRoutes() {
	webserver.ApiPOST("/transactions", createTransaction)
}

// createTransaction applies a manual stock movement: stock_in, stock_out
// or a record-only adjustment.
func createTransaction(c echo.Context) error {
	userID, err := authorize(c, domain.PermAddTransactions)
	if err != nil {
		return err
	}

	var adj inventory.Adjustment
	if err := c.Bind(&adj); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse transaction", nil)
	}

	p, err := getApp(c).InventoryService().Adjust(c.Request().Context(), userID, adj)
	switch {
	case errors.Is(err, inventory.ErrInvalidKind):
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Type must be stock_in, stock_out or adjustment", nil)
	case errors.Is(err, inventory.ErrInvalidAmount):
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Amount must be greater than zero", nil)
	case errors.Is(err, inventory.ErrUnknownProduct):
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	case errors.Is(err, inventory.ErrInsufficientQty):
		return fail(c, http.StatusUnprocessableEntity, "INSUFFICIENT_STOCK", "Not enough stock available", nil)
	case err != nil:
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to apply transaction", err.Error())
	}
	return ok(c, p)
}
