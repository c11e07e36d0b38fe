package adminapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/palengkeplus/palengke/internal/domain"
	"github.com/palengkeplus/palengke/internal/store"
	"github.com/palengkeplus/palengke/internal/webserver"
	"github.com/palengkeplus/palengke/pkg/common"
)

type productPayload struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       *int            `json:"stock_quantity"`
	Category    string          `json:"category"`
}

func registerProductRoutes() {
	webserver.ApiGET("/products", listProducts)
	webserver.ApiGET("/products/sellable", listSellableProducts)
	webserver.ApiGET("/products/:id", getProduct)
	webserver.ApiPOST("/products", createProduct)
	webserver.ApiPUT("/products/:id", updateProduct)
	webserver.ApiDELETE("/products/:id", deleteProduct)
}

func listProducts(c echo.Context) error {
	if _, err := authorize(c, domain.PermViewProducts); err != nil {
		return err
	}
	page, pageSize := parsePagination(c)

	order := strings.ToUpper(strings.TrimSpace(c.QueryParam("order")))
	filter := store.SearchFilter{
		Query:    c.QueryParam("q"),
		Category: strings.TrimSpace(c.QueryParam("category")),
		Page:     page,
		PageSize: pageSize,
		SortCol:  strings.TrimSpace(c.QueryParam("sort")),
		SortDesc: order == "DESC",
	}

	rows, total, err := store.NewCatalogRepository(getDB(c)).Search(c.Request().Context(), filter)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func listSellableProducts(c echo.Context) error {
	if _, err := authorize(c, domain.PermViewProducts); err != nil {
		return err
	}
	rows, err := store.NewCatalogRepository(getDB(c)).ListSellable(c.Request().Context())
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}
	return ok(c, rows)
}

func getProduct(c echo.Context) error {
	if _, err := authorize(c, domain.PermViewProducts); err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	p, err := store.NewCatalogRepository(getDB(c)).GetProduct(c.Request().Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query product", err.Error())
	}
	return ok(c, p)
}

func createProduct(c echo.Context) error {
	userID, err := authorize(c, domain.PermAddProducts)
	if err != nil {
		return err
	}
	var payload productPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", nil)
	}
	payload.Name = strings.TrimSpace(payload.Name)
	if payload.Name == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Name is required", nil)
	}
	if payload.Price.IsNegative() {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Price must be zero or greater", nil)
	}
	stock := 0
	if payload.Stock != nil {
		if *payload.Stock < 0 {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Stock quantity must be zero or greater", nil)
		}
		stock = *payload.Stock
	}

	now := time.Now()
	p := domain.Product{
		ID:            common.UUIDint64(),
		Name:          payload.Name,
		Description:   strings.TrimSpace(payload.Description),
		Price:         payload.Price.Round(2),
		StockQuantity: stock,
		Category:      strings.TrimSpace(payload.Category),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	ctx := c.Request().Context()
	if err := store.NewCatalogRepository(getDB(c)).Create(ctx, &p); err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create product", err.Error())
	}

	// Initial stock is a purchase in the ledger; a failed append is
	// logged, not fatal, the same as every other manual edit.
	if stock > 0 {
		desc := fmt.Sprintf("Initial stock of %d units of %s", stock, p.Name)
		appendLedgerBestEffort(c, domain.LedgerPurchase, stock, desc, &p.ID, &userID)
	}
	return ok(c, p)
}

func updateProduct(c echo.Context) error {
	userID, err := authorize(c, domain.PermEditProducts)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	ctx := c.Request().Context()
	catalog := store.NewCatalogRepository(getDB(c))
	p, err := catalog.GetProduct(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query product", err.Error())
	}

	var payload productPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", nil)
	}
	payload.Name = strings.TrimSpace(payload.Name)
	if payload.Name == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Name is required", nil)
	}
	if payload.Price.IsNegative() {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Price must be zero or greater", nil)
	}

	oldStock := p.StockQuantity
	newStock := oldStock
	if payload.Stock != nil {
		if *payload.Stock < 0 {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Stock quantity must be zero or greater", nil)
		}
		newStock = *payload.Stock
	}
	p.Name = payload.Name
	p.Description = strings.TrimSpace(payload.Description)
	p.Price = payload.Price.Round(2)
	p.Category = strings.TrimSpace(payload.Category)
	p.UpdatedAt = time.Now()

	if err := catalog.UpdateDetails(ctx, p); err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update product", err.Error())
	}

	// Stock edits apply as a delta through the conditional update, never a
	// blind write of the value read earlier. A checkout committing between
	// the read above and this point keeps its decrement.
	if kind, amount := stockChange(oldStock, newStock); amount > 0 {
		var serr error
		if kind == domain.LedgerStockIn {
			serr = catalog.IncrementStock(ctx, id, amount)
		} else {
			serr = catalog.DecrementStock(ctx, id, amount)
		}
		if errors.Is(serr, store.ErrInsufficientStock) {
			return fail(c, http.StatusUnprocessableEntity, "INSUFFICIENT_STOCK", "Stock was sold while editing; refresh and try again", nil)
		}
		if serr != nil {
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update stock", serr.Error())
		}
		desc := fmt.Sprintf("Stock corrected from %d to %d for %s", oldStock, newStock, p.Name)
		appendLedgerBestEffort(c, kind, amount, desc, &p.ID, &userID)
	}

	if fresh, err := catalog.GetProduct(ctx, id); err == nil {
		p = fresh
	}
	return ok(c, p)
}

// stockChange classifies an absolute stock edit as a ledger movement and
// the delta to apply.
func stockChange(oldStock, newStock int) (kind string, amount int) {
	switch {
	case newStock > oldStock:
		return domain.LedgerStockIn, newStock - oldStock
	case newStock < oldStock:
		return domain.LedgerStockOut, oldStock - newStock
	}
	return "", 0
}

func deleteProduct(c echo.Context) error {
	if _, err := authorize(c, domain.PermDeleteProducts); err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	err = store.NewCatalogRepository(getDB(c)).Delete(c.Request().Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete product", err.Error())
	}
	return ok(c, map[string]interface{}{"id": id})
}
