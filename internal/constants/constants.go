package constants

// Context keys
const (
	ContextKeyUserID = "user_id"
	ContextKeyUser   = "user"
	ContextKeyTask   = "task"
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Authentication
const (
	MinPasswordLength = 6
)

// Document upload limits
const (
	MaxDocumentsPerTask = 3
	MaxDocumentSize     = 5 << 20 // 5 MiB
	DocumentContentType = "application/pdf"
)
