package router

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/todo-app/internal/config"
	"github.com/yukikurage/todo-app/internal/constants"
	apierrors "github.com/yukikurage/todo-app/internal/errors"
	"github.com/yukikurage/todo-app/internal/handlers"
	"github.com/yukikurage/todo-app/internal/middleware"
	"github.com/yukikurage/todo-app/internal/services"
	"github.com/yukikurage/todo-app/internal/session"
	"github.com/yukikurage/todo-app/internal/web"
)

// Dependencies are the collaborators the HTTP layer is built from.
type Dependencies struct {
	Config      *config.Config
	AuthService *services.AuthService
	TodoService *services.TodoService
	Sessions    *session.Manager
	AIEnabled   bool
}

// New builds the gin engine with every route registered.
func New(deps Dependencies) (*gin.Engine, error) {
	tmpl, err := web.LoadTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		apierrors.InternalError(c, "")
	}))
	r.SetHTMLTemplate(tmpl)

	// The cookie only carries the opaque token; session state lives in the session store.
	cookieOptions := sessions.Options{
		Path:     "/",
		MaxAge:   int(deps.Sessions.TTL().Seconds()),
		HttpOnly: true,
		Secure:   deps.Config.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}
	store := cookie.NewStore([]byte(deps.Config.SessionSecret))
	store.Options(cookieOptions)
	r.Use(sessions.Sessions(constants.SessionCookieName, store))
	r.Use(middleware.LoadSession(deps.Sessions))

	authHandler := handlers.NewAuthHandler(deps.AuthService, deps.Sessions, cookieOptions)
	todoHandler := handlers.NewTodoHandler(deps.TodoService, deps.AuthService, deps.AIEnabled)

	r.NoRoute(func(c *gin.Context) {
		apierrors.NotFound(c, "")
	})

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Todo app is running",
		})
	})

	// Auth routes (public)
	r.GET("/login", middleware.RedirectIfAuthenticated(), authHandler.ShowLogin)
	r.GET("/register", middleware.RedirectIfAuthenticated(), authHandler.ShowRegister)
	r.POST("/login", authHandler.Login)
	r.POST("/register", authHandler.Register)
	r.GET("/logout", authHandler.Logout)

	// Todo routes (protected)
	todos := r.Group("/")
	todos.Use(middleware.RequireAuth())
	{
		todos.GET("", todoHandler.ListTodos)
		todos.POST("/add", todoHandler.AddTodo)
		todos.POST("/toggle/:id", todoHandler.ToggleTodo)
		todos.POST("/delete/:id", todoHandler.DeleteTodo)
		todos.POST("/generate", todoHandler.GenerateTodos)
	}

	return r, nil
}
