// Package constants holds values shared between the server and client packages.
package constants

import "time"

const (
	// ContextKeyUserID is the gin context key set by the auth middleware.
	ContextKeyUserID = "user_id"
	// ContextKeyTask carries the task loaded by RequireTaskAccess.
	ContextKeyTask = "task"

	MinPasswordLength = 6

	DefaultTokenTTL  = 24 * time.Hour
	DefaultNoticeTTL = 10 * time.Second

	// DateLayout is the wire format of date filters (start_date, end_date, date_range).
	DateLayout = "2006-01-02"
)
