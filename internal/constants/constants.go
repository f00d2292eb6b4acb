package constants

// Session / context keys
const (
	SessionCookieName  = "work_order_session"
	ContextKeyUserID   = "user_id"
	ContextKeyUserRole = "user_role"
)

const MinPasswordLength = 8

// Pagination bounds for task search
const (
	DefaultPageSize = 20
	MinPageSize     = 1
	MaxPageSize     = 100
)

// Cascading search-text refresh
const (
	DefaultRefreshBatchSize = 500
	DefaultRefreshRetries   = 3
)
