package middleware

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/todo-app/internal/constants"
	"github.com/yukikurage/todo-app/internal/session"
)

// LoginPath is where unauthenticated requests are sent
const LoginPath = "/login"

// LoadSession resolves the session cookie into a typed session. Requests
// without a valid session continue unauthenticated.
func LoadSession(manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie := sessions.Default(c)
		token, _ := cookie.Get(constants.SessionKeyToken).(string)

		if s := manager.Authenticate(c.Request.Context(), token); s != nil {
			c.Set(constants.ContextKeySession, s)
			c.Set(constants.ContextKeyUserID, s.UserID)
		}
		c.Next()
	}
}

// RequireAuth redirects to the login page unless LoadSession found a session
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetSession(c); !ok {
			c.Redirect(http.StatusFound, LoginPath)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RedirectIfAuthenticated sends signed-in users to the todo list
func RedirectIfAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetSession(c); ok {
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetSession retrieves the current session from context
func GetSession(c *gin.Context) (*session.Session, bool) {
	value, exists := c.Get(constants.ContextKeySession)
	if !exists {
		return nil, false
	}
	s, ok := value.(*session.Session)
	return s, ok && s != nil
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (string, bool) {
	userID := c.GetString(constants.ContextKeyUserID)
	return userID, userID != ""
}
