package app

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/palengkeplus/palengke/internal/domain"
	"github.com/palengkeplus/palengke/pkg/common"
)

// checkSuper guarantees one enabled admin-role account. The account is an
// ordinary row with Role=admin; nothing anywhere compares usernames to
// decide privileges.
func (a *Application) checkSuper() {
	const superUsername = "admin"
	const defaultPassword = "palengke"

	var operator domain.SysUser
	err := a.gormDB.Where("username = ?", superUsername).First(&operator).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		hash, herr := bcrypt.GenerateFromPassword([]byte(defaultPassword), bcrypt.DefaultCost)
		if herr != nil {
			zap.L().Error("failed to hash default super admin password", zap.Error(herr))
			return
		}
		if err := a.gormDB.Create(&domain.SysUser{
			ID:        common.UUIDint64(),
			Username:  superUsername,
			Email:     "admin@localhost",
			Password:  string(hash),
			Role:      domain.RoleAdmin,
			Status:    common.ENABLED,
			Remark:    "default super admin",
			LastLogin: time.Now(),
		}).Error; err != nil {
			zap.L().Error("failed to create default super admin", zap.Error(err))
		} else {
			zap.L().Info("initialized default super admin account", zap.String("username", superUsername))
		}
		return
	case err != nil:
		zap.L().Error("failed to query super admin", zap.Error(err))
		return
	}

	resetRole := !strings.EqualFold(operator.Role, domain.RoleAdmin)
	resetStatus := !strings.EqualFold(operator.Status, common.ENABLED)
	if !resetRole && !resetStatus {
		return
	}

	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if resetRole {
		updates["role"] = domain.RoleAdmin
	}
	if resetStatus {
		updates["status"] = common.ENABLED
	}
	if err := a.gormDB.Model(&domain.SysUser{}).Where("id = ?", operator.ID).Updates(updates).Error; err != nil {
		zap.L().Error("failed to repair super admin account", zap.Error(err))
		return
	}
	zap.L().Warn("repaired default super admin account",
		zap.String("username", superUsername),
		zap.Bool("roleReset", resetRole),
		zap.Bool("statusEnabled", resetStatus))
}

type settingSchema struct {
	Category    string
	Name        string
	Default     string
	Description string
}

var settingSchemas = []settingSchema{
	{"checkout", "tax_rate", "0.12", "VAT rate applied to the sale subtotal"},
	{"checkout", "currency", "PHP", "ISO currency code for receipts and reports"},
	{"inventory", "low_stock_threshold", "5", "Stock level at or below which the nightly scan reports a product"},
}

// checkSettings seeds missing sys_config rows with their defaults.
func (a *Application) checkSettings() {
	for sortid, schema := range settingSchemas {
		var count int64
		a.gormDB.Model(&domain.SysConfig{}).
			Where("type = ? and name = ?", schema.Category, schema.Name).
			Count(&count)
		if count == 0 {
			a.gormDB.Create(&domain.SysConfig{
				ID:     common.UUIDint64(),
				Sort:   sortid,
				Type:   schema.Category,
				Name:   schema.Name,
				Value:  schema.Default,
				Remark: schema.Description,
			})
			zap.L().Info("initialized config",
				zap.String("key", schema.Category+"."+schema.Name),
				zap.String("default", schema.Default))
		}
	}
}

// CheckDemoProducts seeds a small demo catalog for fresh installs.
func (a *Application) CheckDemoProducts() {
	defaultProducts := []domain.Product{
		{Name: "Rice 1kg", Description: "Local white rice", Price: decimalFrom("52.00"), StockQuantity: 100, Category: "grains"},
		{Name: "Cooking Oil 1L", Description: "Palm cooking oil", Price: decimalFrom("120.00"), StockQuantity: 40, Category: "pantry"},
		{Name: "Eggs (dozen)", Description: "Medium brown eggs", Price: decimalFrom("96.00"), StockQuantity: 30, Category: "dairy"},
		{Name: "Instant Noodles", Description: "Chicken flavor", Price: decimalFrom("15.50"), StockQuantity: 200, Category: "pantry"},
	}
	for _, p := range defaultProducts {
		var count int64
		a.gormDB.Model(&domain.Product{}).Where("name = ?", p.Name).Count(&count)
		if count == 0 {
			p.ID = common.UUIDint64()
			p.CreatedAt = time.Now()
			p.UpdatedAt = time.Now()
			if err := a.gormDB.Create(&p).Error; err != nil {
				zap.L().Error("failed to create demo product", zap.String("name", p.Name), zap.Error(err))
			} else {
				zap.L().Info("initialized demo product", zap.String("name", p.Name))
			}
		}
	}
}
