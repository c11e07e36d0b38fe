package adminapi

import (
	"net/http"
	"runtime"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"

	"github.com/palengkeplus/palengke/internal/webserver"
	"github.com/palengkeplus/palengke/pkg/metrics"
)

func registerSystemRoutes() {
	webserver.ApiGET("/system/status", systemStatus)
	webserver.ApiGET("/system/metrics", systemMetrics)
}

func systemStatus(c echo.Context) error {
	if _, err := authorizeAdmin(c); err != nil {
		return err
	}

	status := map[string]interface{}{
		"goroutines": runtime.NumGoroutine(),
		"go_version": runtime.Version(),
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		status["mem_used_percent"] = vm.UsedPercent
		status["mem_total"] = vm.Total
	}
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		status["cpu_percent"] = percents[0]
	}
	return ok(c, status)
}

// systemMetrics reports today's counter totals from the embedded store.
func systemMetrics(c echo.Context) error {
	if _, err := authorizeAdmin(c); err != nil {
		return err
	}
	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	names := []string{
		metrics.CheckoutCommitted,
		metrics.CheckoutAborted,
		metrics.CheckoutUnitsSold,
		metrics.LoginSuccess,
		metrics.LoginFailure,
	}
	out := make(map[string]float64, len(names))
	for _, name := range names {
		sum, err := metrics.SumRange(name, dayStart, now)
		if err != nil {
			return fail(c, http.StatusInternalServerError, "METRICS_ERROR", "Failed to query metrics", err.Error())
		}
		out[name] = sum
	}
	return ok(c, out)
}
