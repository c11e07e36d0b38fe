package adminapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/palengkeplus/palengke/internal/domain"
	"github.com/palengkeplus/palengke/internal/store"
	"github.com/palengkeplus/palengke/internal/webserver"
)

func registerLedgerRoutes() {
	webserver.ApiGET("/ledger", listLedger)
	webserver.ApiGET("/ledger/recent", listLedgerRecent)
	webserver.ApiGET("/ledger/product/:id", listLedgerByProduct)
}

// appendLedgerBestEffort records an audit entry for a manual edit. A
// failure is logged and swallowed; only checkout treats a missing ledger
// row as fatal.
func appendLedgerBestEffort(c echo.Context, kind string, amount int, desc string, productID, userID *int64) {
	if _, err := store.NewLedgerRepository(getDB(c)).Append(c.Request().Context(), kind, amount, desc, productID, userID); err != nil {
		zap.L().Warn("ledger append failed for manual edit",
			zap.String("kind", kind),
			zap.Error(err))
	}
}

func listLedger(c echo.Context) error {
	if _, err := authorize(c, domain.PermViewTransactions); err != nil {
		return err
	}
	from, to, err := parseRange(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_RANGE", "Invalid date range", nil)
	}
	page, pageSize := parsePagination(c)
	rows, total, err := store.NewLedgerRepository(getDB(c)).ListRange(c.Request().Context(), from, to, page, pageSize)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query ledger", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func listLedgerRecent(c echo.Context) error {
	if _, err := authorize(c, domain.PermViewTransactions); err != nil {
		return err
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	rows, err := store.NewLedgerRepository(getDB(c)).ListRecent(c.Request().Context(), limit)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query ledger", err.Error())
	}
	return ok(c, rows)
}

func listLedgerByProduct(c echo.Context) error {
	if _, err := authorize(c, domain.PermViewTransactions); err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	rows, err := store.NewLedgerRepository(getDB(c)).ListByProduct(c.Request().Context(), id, limit)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query ledger", err.Error())
	}
	return ok(c, rows)
}
