package constants

import "time"

// Context and session keys
const (
	ContextKeyUserID         = "user_id"
	ContextKeyActor          = "actor"
	ContextKeyTokenID        = "token_id"
	ContextKeyTokenExpiresAt = "token_expires_at"
	SessionCookieName        = "projectly_session"
)

// Validation limits
const (
	MinPasswordLength   = 6
	MaxTitleLength      = 255
	MaxAISuggestedTasks = 10
	MaxSuggestionInput  = 8000
)

// Defaults
const (
	DefaultTokenTTL      = 24 * time.Hour
	DefaultSessionMaxAge = 86400 * 7
	ReportTimeout        = 30 * time.Second
)
