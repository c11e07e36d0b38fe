package adminapi

import (
	"net/http"
	"time"

	"github.com/araddon/dateparse"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/palengkeplus/palengke/internal/domain"
	"github.com/palengkeplus/palengke/internal/store"
	"github.com/palengkeplus/palengke/internal/webserver"
)

func registerSalesRoutes() {
	webserver.ApiGET("/sales", listSales)
	webserver.ApiGET("/sales/:id", getSale)
}

// parseRange reads from/to query params. Defaults: last 30 days, and the
// upper bound is exclusive at the start of the following day.
func parseRange(c echo.Context) (time.Time, time.Time, error) {
	now := time.Now()
	from := now.AddDate(0, 0, -30)
	to := now.AddDate(0, 0, 1).Truncate(24 * time.Hour)
	if raw := c.QueryParam("from"); raw != "" {
		t, err := dateparse.ParseIn(raw, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, errors.Wrap(err, "from")
		}
		from = t
	}
	if raw := c.QueryParam("to"); raw != "" {
		t, err := dateparse.ParseIn(raw, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, errors.Wrap(err, "to")
		}
		to = t
	}
	return from, to, nil
}

func listSales(c echo.Context) error {
	if _, err := authorize(c, domain.PermViewSales); err != nil {
		return err
	}
	from, to, err := parseRange(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_RANGE", "Invalid date range", nil)
	}
	page, pageSize := parsePagination(c)

	rows, total, err := store.NewSaleRepository(getDB(c)).ListRange(c.Request().Context(), from, to, page, pageSize)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query sales", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

type saleDetail struct {
	Header *domain.SaleHeader `json:"header"`
	Lines  []domain.SaleLine  `json:"lines"`
}

func getSale(c echo.Context) error {
	if _, err := authorize(c, domain.PermViewSales); err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid sale ID", nil)
	}
	header, lines, err := store.NewSaleRepository(getDB(c)).GetSale(c.Request().Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Sale not found", nil)
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query sale", err.Error())
	}
	return ok(c, saleDetail{Header: header, Lines: lines})
}
