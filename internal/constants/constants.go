package constants

import "time"

// Context and session keys
const (
	ContextKeySession = "session"
	ContextKeyUserID  = "user_id"
	SessionKeyToken   = "token"
	SessionCookieName = "todo_session"
)

// Credential rules
const (
	MinUsernameLength = 3
	MaxUsernameLength = 50
	MinPasswordLength = 6
)

// Todo rules
const (
	MaxTodoTextLength   = 500
	MaxAIGeneratedTodos = 20
	DueDateLayout       = "2006-01-02"
)

const (
	DefaultSessionTTL = 24 * time.Hour
	StoreOpTimeout    = 5 * time.Second
)
