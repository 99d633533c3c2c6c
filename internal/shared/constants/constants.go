package constants

const (
	// Environment constants
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	// HTTP Headers
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	HeaderXRequestID    = "X-Request-ID"
	HeaderRetryAfter    = "Retry-After"
	HeaderUserAgent     = "User-Agent"

	// Query parameters
	QueryParamShopID = "shopId"

	// Pagination
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100

	// Context keys
	ContextKeyUserID         = "user_id"
	ContextKeyTenantID       = "tenant_id"
	ContextKeyRequestID      = "request_id"
	ContextKeyRequestContext = "request_context"

	// Database table names
	TableTenants        = "tenants"
	TableUsers          = "users"
	TableShops          = "shops"
	TableProducts       = "products"
	TableCustomers      = "customers"
	TableSubscriptions  = "subscriptions"
	TableAuditLogs      = "audit_logs"
	TableSales          = "sales"
	TableSaleItems      = "sale_items"
	TableLeaveRequests  = "leave_requests"
	TableNotifications  = "notifications"
	TableMessages       = "messages"
	TableFeatureFlags   = "feature_flags"
	TableSystemSettings = "system_settings"

	// System setting keys
	SettingSystemReadOnly = "system.read_only"

	// Default plan for contexts without a tenant
	DefaultPlanName = "Starter"

	// Error messages
	ErrMsgInternalServerError = "internal error occurred"
	ErrMsgUnauthorized        = "authentication required"
	ErrMsgForbidden           = "access forbidden"
	ErrMsgRateLimited         = "rate limit exceeded, please try again later"
)
