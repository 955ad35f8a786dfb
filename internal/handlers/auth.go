package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/todo-app/internal/constants"
	apierrors "github.com/yukikurage/todo-app/internal/errors"
	"github.com/yukikurage/todo-app/internal/middleware"
	"github.com/yukikurage/todo-app/internal/services"
	"github.com/yukikurage/todo-app/internal/session"
)

const (
	loginTemplate    = "login.html"
	registerTemplate = "register.html"
)

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	authService   *services.AuthService
	sessions      *session.Manager
	cookieOptions sessions.Options
}

// NewAuthHandler creates a new AuthHandler. cookieOptions must match the
// options of the cookie store so that logout expires the same cookie.
func NewAuthHandler(authService *services.AuthService, manager *session.Manager, cookieOptions sessions.Options) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		sessions:      manager,
		cookieOptions: cookieOptions,
	}
}

type credentialsForm struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

// ShowLogin renders the login form.
func (h *AuthHandler) ShowLogin(c *gin.Context) {
	renderCredentialsForm(c, loginTemplate, "", "")
}

// ShowRegister renders the registration form.
func (h *AuthHandler) ShowRegister(c *gin.Context) {
	renderCredentialsForm(c, registerTemplate, "", "")
}

// Register creates a user, signs them in and redirects to the list.
func (h *AuthHandler) Register(c *gin.Context) {
	var form credentialsForm
	if err := c.ShouldBind(&form); err != nil {
		renderCredentialsForm(c, registerTemplate, "", "Invalid form submission")
		return
	}

	user, err := h.authService.Register(c.Request.Context(), services.RegisterInput{
		Username: form.Username,
		Password: form.Password,
	})
	if err != nil {
		respondAuthError(c, registerTemplate, form.Username, err)
		return
	}

	s, err := h.sessions.Issue(c.Request.Context(), user)
	if err != nil {
		_ = c.Error(err)
		apierrors.InternalError(c, "")
		return
	}

	h.startSession(c, s)
}

// Login authenticates a user and initializes the session.
func (h *AuthHandler) Login(c *gin.Context) {
	var form credentialsForm
	if err := c.ShouldBind(&form); err != nil {
		renderCredentialsForm(c, loginTemplate, "", "Invalid form submission")
		return
	}

	s, err := h.sessions.Login(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		respondAuthError(c, loginTemplate, form.Username, err)
		return
	}

	h.startSession(c, s)
}

// Logout destroys the session and expires the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	if s, ok := middleware.GetSession(c); ok {
		if err := h.sessions.Logout(c.Request.Context(), s); err != nil {
			_ = c.Error(err)
			apierrors.InternalError(c, "Failed to log out")
			return
		}
	}

	expired := h.cookieOptions
	expired.MaxAge = -1

	cookie := sessions.Default(c)
	cookie.Clear()
	cookie.Options(expired)
	if err := cookie.Save(); err != nil {
		_ = c.Error(err)
		apierrors.InternalError(c, "Failed to log out")
		return
	}

	c.Redirect(http.StatusFound, middleware.LoginPath)
}

// startSession binds s to the cookie. A session the request already carried
// is revoked so the token it replaces cannot outlive the next logout.
func (h *AuthHandler) startSession(c *gin.Context, s *session.Session) {
	if previous, ok := middleware.GetSession(c); ok && previous.Token != s.Token {
		if err := h.sessions.Logout(c.Request.Context(), previous); err != nil {
			_ = h.sessions.Logout(c.Request.Context(), s)
			_ = c.Error(err)
			apierrors.InternalError(c, "Failed to save session")
			return
		}
	}

	cookie := sessions.Default(c)
	cookie.Set(constants.SessionKeyToken, s.Token)
	if err := cookie.Save(); err != nil {
		_ = c.Error(err)
		apierrors.InternalError(c, "Failed to save session")
		return
	}

	c.Redirect(http.StatusFound, "/")
}

// respondAuthError re-renders the originating form for user-facing errors
// and falls back to the error page for everything else.
func respondAuthError(c *gin.Context, page, username string, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		renderCredentialsForm(c, page, username, verr.Message)
	case errors.Is(err, services.ErrUsernameTaken):
		renderCredentialsForm(c, page, username, "Username already exists")
	case errors.Is(err, services.ErrInvalidCredentials):
		renderCredentialsForm(c, page, username, "Invalid username or password")
	default:
		_ = c.Error(err)
		apierrors.InternalError(c, "")
	}
}

// Form errors are rendered with 200: they are part of the page, not an HTTP failure.
func renderCredentialsForm(c *gin.Context, page, username, message string) {
	title := "Log in"
	if page == registerTemplate {
		title = "Register"
	}
	c.HTML(http.StatusOK, page, gin.H{
		"Title":    title,
		"Username": username,
		"Error":    message,
	})
}
