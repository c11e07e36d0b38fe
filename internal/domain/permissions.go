package domain

// Permission names grantable to cashier accounts. Admin-role users hold
// the full set implicitly.
const (
	PermViewProducts     = "view_products"
	PermViewSales        = "view_sales"
	PermViewTransactions = "view_transactions"
	PermAddProducts      = "add_products"
	PermEditProducts     = "edit_products"
	PermDeleteProducts   = "delete_products"
	PermAddTransactions  = "add_transactions"
	PermViewReports      = "view_reports"
	PermProcessSales     = "process_sales"
)

var AllPermissions = []string{
	PermViewProducts,
	PermViewSales,
	PermViewTransactions,
	PermAddProducts,
	PermEditProducts,
	PermDeleteProducts,
	PermAddTransactions,
	PermViewReports,
	PermProcessSales,
}

// ValidPermission reports whether name belongs to the grantable set.
func ValidPermission(name string) bool {
	for _, p := range AllPermissions {
		if p == name {
			return true
		}
	}
	return false
}
