package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/todo-app/internal/constants"
	"github.com/yukikurage/todo-app/internal/middleware"
	"github.com/yukikurage/todo-app/internal/models"
	"github.com/yukikurage/todo-app/internal/repository"
	"github.com/yukikurage/todo-app/internal/services"
	"github.com/yukikurage/todo-app/internal/session"
	"github.com/yukikurage/todo-app/internal/web"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	db          *gorm.DB
	router      *gin.Engine
	authService *services.AuthService
	todoService *services.TodoService
	sessions    *session.Manager
	store       *session.MemoryStore
}

func setupTestEnv(t *testing.T, generator services.TodoGenerator) *testEnv {
	t.Helper()
	return setupTestEnvWithTodoRepo(t, generator, nil)
}

// setupTestEnvWithTodoRepo lets a test wrap the todo repository, e.g. to inject failures.
func setupTestEnvWithTodoRepo(t *testing.T, generator services.TodoGenerator, wrap func(repository.TodoRepository) repository.TodoRepository) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Todo{}))

	authService := services.NewAuthService(repository.NewUserRepository(db))
	todoRepo := repository.NewTodoRepository(db)
	if wrap != nil {
		todoRepo = wrap(todoRepo)
	}
	todoService := services.NewTodoService(todoRepo, generator)
	store := session.NewMemoryStore()
	manager := session.NewManager(store, authService, time.Hour)

	tmpl, err := web.LoadTemplates()
	require.NoError(t, err)

	cookieOptions := sessions.Options{
		Path:     "/",
		MaxAge:   int(time.Hour.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	cookieStore := cookie.NewStore([]byte("test-secret"))
	cookieStore.Options(cookieOptions)

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.Use(sessions.Sessions(constants.SessionCookieName, cookieStore))
	r.Use(middleware.LoadSession(manager))

	authHandler := NewAuthHandler(authService, manager, cookieOptions)
	todoHandler := NewTodoHandler(todoService, authService, generator != nil)

	r.GET("/login", middleware.RedirectIfAuthenticated(), authHandler.ShowLogin)
	r.GET("/register", middleware.RedirectIfAuthenticated(), authHandler.ShowRegister)
	r.POST("/login", authHandler.Login)
	r.POST("/register", authHandler.Register)
	r.GET("/logout", authHandler.Logout)

	protected := r.Group("/")
	protected.Use(middleware.RequireAuth())
	protected.GET("", todoHandler.ListTodos)
	protected.POST("/add", todoHandler.AddTodo)
	protected.POST("/toggle/:id", todoHandler.ToggleTodo)
	protected.POST("/delete/:id", todoHandler.DeleteTodo)
	protected.POST("/generate", todoHandler.GenerateTodos)

	return &testEnv{
		db:          db,
		router:      r,
		authService: authService,
		todoService: todoService,
		sessions:    manager,
		store:       store,
	}
}

// client replays cookies between requests like a browser would.
type client struct {
	t       *testing.T
	router  *gin.Engine
	cookies map[string]*http.Cookie
}

func (e *testEnv) newClient(t *testing.T) *client {
	return &client{t: t, router: e.router, cookies: map[string]*http.Cookie{}}
}

func (c *client) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	c.t.Helper()

	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)

	for _, ck := range w.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	return w
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.do(http.MethodGet, path, nil)
}

func (c *client) post(path string, form url.Values) *httptest.ResponseRecorder {
	if form == nil {
		form = url.Values{}
	}
	return c.do(http.MethodPost, path, form)
}

func credentials(username, password string) url.Values {
	return url.Values{"username": {username}, "password": {password}}
}

// signUp registers a user through the HTTP flow and returns a signed-in client.
func (e *testEnv) signUp(t *testing.T, username, password string) (*client, *models.User) {
	t.Helper()

	c := e.newClient(t)
	w := c.post("/register", credentials(username, password))
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/", w.Header().Get("Location"))

	user, err := e.authService.VerifyCredentials(context.Background(), username, password)
	require.NoError(t, err)
	return c, user
}
