package app

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/palengkeplus/palengke/internal/checkout"
	"github.com/palengkeplus/palengke/internal/domain"
)

const DefaultSettingsCacheTTL = 30 * time.Second

var _ checkout.Settings = (*ConfigManager)(nil)

// ConfigManager reads runtime settings from the sys_config table with a
// short-lived in-process cache.
type ConfigManager struct {
	db  *gorm.DB
	ttl time.Duration

	mu       sync.RWMutex
	cache    map[string]string
	loadedAt time.Time
}

func NewConfigManager(db *gorm.DB, ttl time.Duration) *ConfigManager {
	return &ConfigManager{db: db, ttl: ttl}
}

func (cm *ConfigManager) snapshot() map[string]string {
	cm.mu.RLock()
	if cm.cache != nil && time.Since(cm.loadedAt) < cm.ttl {
		defer cm.mu.RUnlock()
		return cm.cache
	}
	cm.mu.RUnlock()

	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.cache != nil && time.Since(cm.loadedAt) < cm.ttl {
		return cm.cache
	}
	var rows []domain.SysConfig
	if err := cm.db.Find(&rows).Error; err != nil {
		zap.L().Warn("failed to load settings", zap.Error(err))
		if cm.cache != nil {
			return cm.cache
		}
		return map[string]string{}
	}
	next := make(map[string]string, len(rows))
	for _, row := range rows {
		next[row.Type+"."+row.Name] = row.Value
	}
	cm.cache = next
	cm.loadedAt = time.Now()
	return next
}

func (cm *ConfigManager) GetString(category, name string) string {
	return cm.snapshot()[category+"."+name]
}

func (cm *ConfigManager) GetInt64(category, name string) int64 {
	return cast.ToInt64(cm.GetString(category, name))
}

func (cm *ConfigManager) GetBool(category, name string) bool {
	return cast.ToBool(cm.GetString(category, name))
}

// Set writes one setting through to the table and invalidates the cache.
func (cm *ConfigManager) Set(category, name, value string) error {
	err := cm.db.Model(&domain.SysConfig{}).
		Where("type = ? AND name = ?", category, name).
		Update("value", value).Error
	if err != nil {
		return err
	}
	cm.mu.Lock()
	cm.cache = nil
	cm.mu.Unlock()
	return nil
}

// TaxRate implements checkout.Settings. A missing or unparsable value
// falls back to the default VAT rate.
func (cm *ConfigManager) TaxRate(ctx context.Context) decimal.Decimal {
	raw := cm.GetString("checkout", "tax_rate")
	if raw == "" {
		return checkout.DefaultTaxRate
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil || rate.IsNegative() {
		zap.L().Warn("invalid tax_rate setting, using default", zap.String("value", raw))
		return checkout.DefaultTaxRate
	}
	return rate
}

// Currency returns the configured ISO currency code.
func (cm *ConfigManager) Currency() string {
	if c := cm.GetString("checkout", "currency"); c != "" {
		return c
	}
	return "PHP"
}

// LowStockThreshold returns the nightly-scan threshold.
func (cm *ConfigManager) LowStockThreshold() int {
	if v := cm.GetInt64("inventory", "low_stock_threshold"); v > 0 {
		return int(v)
	}
	return 5
}
