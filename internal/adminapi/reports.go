package adminapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/labstack/echo/v4"
	"github.com/montanaflynn/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/palengkeplus/palengke/internal/domain"
	"github.com/palengkeplus/palengke/internal/store"
	"github.com/palengkeplus/palengke/internal/webserver"
)

func registerReportRoutes() {
	webserver.ApiGET("/reports/revenue", revenueReport)
	webserver.ApiGET("/reports/sales/export", exportSales)
}

type revenueReportResult struct {
	From     string             `json:"from"`
	To       string             `json:"to"`
	Currency string             `json:"currency"`
	Totals   *store.RangeTotals `json:"totals"`
	Mean     float64            `json:"mean_sale"`
	Median   float64            `json:"median_sale"`
	Max      float64            `json:"max_sale"`
}

// revenueReport aggregates committed sales over a date range.
func revenueReport(c echo.Context) error {
	if _, err := authorize(c, domain.PermViewReports); err != nil {
		return err
	}
	from, to, err := parseRange(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_RANGE", "Invalid date range", nil)
	}
	ctx := c.Request().Context()
	sales := store.NewSaleRepository(getDB(c))

	totals, err := sales.TotalsRange(ctx, from, to)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to aggregate sales", err.Error())
	}
	values, err := sales.TotalsByRange(ctx, from, to)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to aggregate sales", err.Error())
	}

	result := revenueReportResult{
		From:     from.Format("2006-01-02"),
		To:       to.Format("2006-01-02"),
		Currency: getApp(c).ConfigMgr().Currency(),
		Totals:   totals,
	}
	if len(values) > 0 {
		result.Mean, _ = stats.Mean(values)
		result.Median, _ = stats.Median(values)
		result.Max, _ = stats.Max(values)
	}
	return ok(c, result)
}

const exportPageSize = 500

type saleRangeLister interface {
	ListRange(ctx context.Context, from, to time.Time, page, pageSize int) ([]domain.SaleHeader, int64, error)
}

// collectSalesRange pages through the whole range so an export is never
// silently cut off at one page.
func collectSalesRange(ctx context.Context, lister saleRangeLister, from, to time.Time, pageSize int) ([]domain.SaleHeader, error) {
	var all []domain.SaleHeader
	for page := 1; ; page++ {
		rows, _, err := lister.ListRange(ctx, from, to, page, pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, rows...)
		if len(rows) < pageSize {
			return all, nil
		}
	}
}

// exportSales streams the sales in range as an xlsx workbook.
func exportSales(c echo.Context) error {
	if _, err := authorize(c, domain.PermViewReports); err != nil {
		return err
	}
	from, to, err := parseRange(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_RANGE", "Invalid date range", nil)
	}
	ctx := c.Request().Context()
	rows, err := collectSalesRange(ctx, store.NewSaleRepository(getDB(c)), from, to, exportPageSize)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query sales", err.Error())
	}

	printer := message.NewPrinter(language.Filipino)
	currency := getApp(c).ConfigMgr().Currency()

	f := excelize.NewFile()
	const sheet = "Sales"
	f.SetSheetName("Sheet1", sheet)
	headers := []string{"Sale ID", "Reference", "Cashier ID", "Date", "Subtotal", "Tax", "Total", "Payment"}
	for i, h := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheet, cell, h)
	}
	for i, h := range rows {
		r := i + 2
		total, _ := h.Total.Float64()
		subtotal, _ := h.Subtotal.Float64()
		tax, _ := h.Tax.Float64()
		f.SetCellValue(sheet, fmt.Sprintf("A%d", r), h.ID)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", r), h.Reference)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", r), h.UserID)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", r), h.SaleDate.Format("2006-01-02 15:04:05"))
		f.SetCellValue(sheet, fmt.Sprintf("E%d", r), printer.Sprintf("%s %.2f", currency, subtotal))
		f.SetCellValue(sheet, fmt.Sprintf("F%d", r), printer.Sprintf("%s %.2f", currency, tax))
		f.SetCellValue(sheet, fmt.Sprintf("G%d", r), printer.Sprintf("%s %.2f", currency, total))
		f.SetCellValue(sheet, fmt.Sprintf("H%d", r), h.PaymentMethod)
	}

	filename := fmt.Sprintf("sales_%s_%s.xlsx", from.Format("20060102"), to.Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	c.Response().Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Response().WriteHeader(http.StatusOK)
	return f.Write(c.Response())
}
