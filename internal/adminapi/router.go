package adminapi

// InitRouter registers every POS API route against the webserver.
func InitRouter() {
	registerAuthRoutes()
	registerProductRoutes()
	registerCheckoutRoutes()
	registerTransactionRoutes()
	registerSalesRoutes()
	registerLedgerRoutes()
	registerReportRoutes()
	registerUserRoutes()
	registerSystemRoutes()
}
