package metrics

import (
	"path"
	"sync"
	"time"

	"github.com/nakabonne/tstorage"
	"github.com/pkg/errors"
)

// Metric names recorded by the POS.
const (
	CheckoutCommitted = "checkout_committed"
	CheckoutAborted   = "checkout_aborted"
	CheckoutUnitsSold = "checkout_units_sold"
	LoginSuccess      = "login_success"
	LoginFailure      = "login_failure"
	LowStockProducts  = "low_stock_products"
)

var (
	mu      sync.RWMutex
	storage tstorage.Storage
)

// InitMetrics opens the embedded time-series store under workdir.
func InitMetrics(workdir string) error {
	mu.Lock()
	defer mu.Unlock()
	if storage != nil {
		return nil
	}
	s, err := tstorage.NewStorage(
		tstorage.WithDataPath(path.Join(workdir, "data", "metrics")),
		tstorage.WithTimestampPrecision(tstorage.Seconds),
		tstorage.WithPartitionDuration(6*time.Hour),
		tstorage.WithRetention(30*24*time.Hour),
	)
	if err != nil {
		return errors.Wrap(err, "open metrics storage")
	}
	storage = s
	return nil
}

// CounterIncr records one counter observation at the current time.
// Before InitMetrics (or after Close) it is a no-op, so callers never
// guard their instrumentation.
func CounterIncr(name string, value float64) {
	mu.RLock()
	defer mu.RUnlock()
	if storage == nil {
		return
	}
	_ = storage.InsertRows([]tstorage.Row{
		{
			Metric:    name,
			DataPoint: tstorage.DataPoint{Timestamp: time.Now().Unix(), Value: value},
		},
	})
}

// Select returns the data points for one metric over [start, end].
func Select(name string, start, end time.Time) ([]*tstorage.DataPoint, error) {
	mu.RLock()
	defer mu.RUnlock()
	if storage == nil {
		return nil, nil
	}
	points, err := storage.Select(name, nil, start.Unix(), end.Unix())
	if errors.Is(err, tstorage.ErrNoDataPoints) {
		return nil, nil
	}
	return points, err
}

// SumRange totals a counter over [start, end].
func SumRange(name string, start, end time.Time) (float64, error) {
	points, err := Select(name, start, end)
	if err != nil {
		return 0, err
	}
	var sum float64
	for _, p := range points {
		sum += p.Value
	}
	return sum, nil
}

// Close flushes and closes the store.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if storage == nil {
		return nil
	}
	err := storage.Close()
	storage = nil
	return err
}
