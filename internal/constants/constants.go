package constants

// Context keys
const (
	ContextKeyUserID   = "user_id"
	ContextKeyUserRole = "user_role"
	ContextKeyTask     = "task"
	ContextKeyUser     = "target_user"
)

// Pagination
const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Auth
const (
	MinPasswordLength = 8
	MinJWTSecretLen   = 32
)

// Attachments
const (
	MaxAttachmentsPerTask = 3
	MaxAttachmentSize     = 5 << 20 // 5MB
	AttachmentFormField   = "attachments"
)
