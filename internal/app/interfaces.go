package app

import (
	"gorm.io/gorm"

	"github.com/palengkeplus/palengke/config"
	"github.com/palengkeplus/palengke/internal/auth"
	"github.com/palengkeplus/palengke/internal/checkout"
	"github.com/palengkeplus/palengke/internal/inventory"
	"github.com/palengkeplus/palengke/internal/store"
)

// DBProvider provides database access
type DBProvider interface {
	DB() *gorm.DB
	Store() *store.Store
}

// ConfigProvider provides application configuration
type ConfigProvider interface {
	Config() *config.AppConfig
}

// SettingsProvider provides system settings access
type SettingsProvider interface {
	GetSettingsStringValue(category, key string) string
	GetSettingsInt64Value(category, key string) int64
	GetSettingsBoolValue(category, key string) bool
}

// ServiceProvider exposes the wired domain services
type ServiceProvider interface {
	AuthService() *auth.Service
	CheckoutService() *checkout.Service
	InventoryService() *inventory.Service
}
