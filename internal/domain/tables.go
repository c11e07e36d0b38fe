package domain

var Tables = []interface{}{
	// System
	&SysConfig{},
	&SysUser{},
	&SysUserPerm{},
	&SysUserLog{},
	// Catalog
	&Product{},
	// Sales
	&SaleHeader{},
	&SaleLine{},
	// Audit
	&LedgerEntry{},
}
