package app

import (
	"context"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/palengkeplus/palengke/internal/store"
	"github.com/palengkeplus/palengke/pkg/metrics"
)

func decimalFrom(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// initJob registers the maintenance jobs. Checkout itself is strictly
// request-scoped; these jobs only read and clean up.
func (a *Application) initJob() {
	pool, err := ants.NewPool(4, ants.WithNonblocking(true))
	if err != nil {
		zap.L().Error("failed to create job pool", zap.Error(err))
		return
	}
	a.jobPool = pool
	a.sched = cron.New()

	submit := func(name string, job func()) func() {
		return func() {
			if err := a.jobPool.Submit(job); err != nil {
				zap.L().Warn("job submit rejected", zap.String("job", name), zap.Error(err))
			}
		}
	}

	// Nightly low-stock scan
	if _, err := a.sched.AddFunc("5 0 * * *", submit("low_stock_scan", a.runLowStockScan)); err != nil {
		zap.L().Error("failed to schedule low stock scan", zap.Error(err))
	}
	// Hourly revoked-token purge
	if _, err := a.sched.AddFunc("@hourly", submit("token_purge", a.runTokenPurge)); err != nil {
		zap.L().Error("failed to schedule token purge", zap.Error(err))
	}
	// Daily revenue summary at closing time
	if _, err := a.sched.AddFunc("0 22 * * *", submit("revenue_summary", a.runRevenueSummary)); err != nil {
		zap.L().Error("failed to schedule revenue summary", zap.Error(err))
	}
}

// runLowStockScan reports products at or below the configured threshold.
func (a *Application) runLowStockScan() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	threshold := a.configManager.LowStockThreshold()
	catalog := store.NewCatalogRepository(a.gormDB)
	rows, err := catalog.LowStock(ctx, threshold)
	if err != nil {
		zap.L().Error("low stock scan failed", zap.Error(err))
		return
	}
	metrics.CounterIncr(metrics.LowStockProducts, float64(len(rows)))
	for _, p := range rows {
		zap.L().Warn("low stock",
			zap.Int64("product_id", p.ID),
			zap.String("name", p.Name),
			zap.Int("stock", p.StockQuantity),
			zap.Int("threshold", threshold))
	}
}

func (a *Application) runTokenPurge() {
	if a.tokenStore == nil {
		return
	}
	if err := a.tokenStore.Purge(time.Now()); err != nil {
		zap.L().Warn("token purge failed", zap.Error(err))
	}
}

// runRevenueSummary logs the day's revenue totals for the operator.
func (a *Application) runRevenueSummary() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := time.Now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	sales := store.NewSaleRepository(a.gormDB)
	totals, err := sales.TotalsRange(ctx, from, now)
	if err != nil {
		zap.L().Error("revenue summary failed", zap.Error(err))
		return
	}
	zap.L().Info("daily revenue summary",
		zap.Int64("sales", totals.Count),
		zap.String("subtotal", totals.Subtotal.String()),
		zap.String("tax", totals.Tax.String()),
		zap.String("total", totals.Total.String()))
}
