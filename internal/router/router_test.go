package router

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/todo-app/internal/config"
	"github.com/yukikurage/todo-app/internal/constants"
	"github.com/yukikurage/todo-app/internal/models"
	"github.com/yukikurage/todo-app/internal/repository"
	"github.com/yukikurage/todo-app/internal/services"
	"github.com/yukikurage/todo-app/internal/session"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testApp struct {
	server      *httptest.Server
	todoService *services.TodoService
	authService *services.AuthService
}

func setupApp(t *testing.T, mode string) *testApp {
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

	cfg := &config.Config{
		GinMode:       mode,
		SessionSecret: "router-test-secret",
		SessionTTL:    24 * time.Hour,
	}

	authService := services.NewAuthService(repository.NewUserRepository(db))
	todoService := services.NewTodoService(repository.NewTodoRepository(db), nil)
	manager := session.NewManager(session.NewMemoryStore(), authService, cfg.SessionTTL)

	r, err := New(Dependencies{
		Config:      cfg,
		AuthService: authService,
		TodoService: todoService,
		Sessions:    manager,
	})
	require.NoError(t, err)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	return &testApp{server: server, todoService: todoService, authService: authService}
}

// browser follows no redirects so each hop can be asserted.
func (a *testApp) browser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func expectRedirect(t *testing.T, resp *http.Response, location string) {
	t.Helper()
	defer resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, location, resp.Header.Get("Location"))
}

func TestEndToEndFlow(t *testing.T) {
	app := setupApp(t, gin.TestMode)
	browser := app.browser(t)
	base := app.server.URL

	resp, err := browser.PostForm(base+"/register", url.Values{"username": {"alice"}, "password": {"secret1"}})
	require.NoError(t, err)
	issued := sessionCookie(resp)
	require.NotNil(t, issued)
	assert.True(t, issued.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, issued.SameSite)
	assert.Equal(t, 86400, issued.MaxAge)
	assert.False(t, issued.Secure)
	expectRedirect(t, resp, "/")

	resp, err = browser.PostForm(base+"/add", url.Values{"todo": {"buy milk"}, "dueDate": {"2024-01-01"}, "priority": {"high"}})
	require.NoError(t, err)
	expectRedirect(t, resp, "/")

	alice, err := app.authService.VerifyCredentials(context.Background(), "alice", "secret1")
	require.NoError(t, err)
	todos, err := app.todoService.ListByOwner(context.Background(), alice.ID)
	require.NoError(t, err)
	require.Len(t, todos, 1)
	id := todos[0].ID

	resp, err = browser.Get(base + "/")
	require.NoError(t, err)
	body := readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "buy milk")
	assert.Contains(t, body, "Done")

	resp, err = browser.PostForm(base+"/toggle/"+id, url.Values{})
	require.NoError(t, err)
	expectRedirect(t, resp, "/")

	resp, err = browser.Get(base + "/")
	require.NoError(t, err)
	assert.Contains(t, readBody(t, resp), "Undo")

	resp, err = browser.PostForm(base+"/delete/"+id, url.Values{})
	require.NoError(t, err)
	expectRedirect(t, resp, "/")

	resp, err = browser.Get(base + "/")
	require.NoError(t, err)
	body = readBody(t, resp)
	assert.NotContains(t, body, "buy milk")
	assert.Contains(t, body, "Nothing to do.")

	resp, err = browser.Get(base + "/logout")
	require.NoError(t, err)
	expectRedirect(t, resp, "/login")

	resp, err = browser.Get(base + "/")
	require.NoError(t, err)
	expectRedirect(t, resp, "/login")
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == constants.SessionCookieName {
			return c
		}
	}
	return nil
}

func TestReloginThenLogoutRevokesEarlierCookie(t *testing.T) {
	app := setupApp(t, gin.TestMode)
	browser := app.browser(t)
	base := app.server.URL

	resp, err := browser.PostForm(base+"/register", url.Values{"username": {"alice"}, "password": {"secret1"}})
	require.NoError(t, err)
	registered := sessionCookie(resp)
	require.NotNil(t, registered)
	expectRedirect(t, resp, "/")

	resp, err = browser.PostForm(base+"/login", url.Values{"username": {"alice"}, "password": {"secret1"}})
	require.NoError(t, err)
	expectRedirect(t, resp, "/")

	resp, err = browser.Get(base + "/logout")
	require.NoError(t, err)
	expectRedirect(t, resp, "/login")

	req, err := http.NewRequest(http.MethodGet, base+"/", nil)
	require.NoError(t, err)
	req.AddCookie(registered)
	resp, err = app.browser(t).Do(req)
	require.NoError(t, err)
	expectRedirect(t, resp, "/login")
}

func TestLoginAfterRegistration(t *testing.T) {
	app := setupApp(t, gin.TestMode)
	base := app.server.URL

	resp, err := app.browser(t).PostForm(base+"/register", url.Values{"username": {"alice"}, "password": {"secret1"}})
	require.NoError(t, err)
	expectRedirect(t, resp, "/")

	browser := app.browser(t)
	resp, err = browser.PostForm(base+"/login", url.Values{"username": {"alice"}, "password": {"wrong!!"}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Invalid username or password")

	resp, err = browser.PostForm(base+"/login", url.Values{"username": {"alice"}, "password": {"secret1"}})
	require.NoError(t, err)
	expectRedirect(t, resp, "/")

	resp, err = browser.Get(base + "/")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "alice")
}

func TestSecureCookieInRelease(t *testing.T) {
	app := setupApp(t, gin.ReleaseMode)

	resp, err := app.browser(t).PostForm(app.server.URL+"/register", url.Values{"username": {"alice"}, "password": {"secret1"}})
	require.NoError(t, err)
	defer resp.Body.Close()

	issued := sessionCookie(resp)
	require.NotNil(t, issued)
	assert.True(t, issued.Secure)

	// The jar drops Secure cookies over plain HTTP, so send it by hand.
	req, err := http.NewRequest(http.MethodGet, app.server.URL+"/logout", nil)
	require.NoError(t, err)
	req.AddCookie(issued)
	logout, err := app.browser(t).Do(req)
	require.NoError(t, err)
	defer logout.Body.Close()

	expired := sessionCookie(logout)
	require.NotNil(t, expired)
	assert.Less(t, expired.MaxAge, 0)
	assert.True(t, expired.Secure)
	assert.True(t, expired.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, expired.SameSite)
}

func TestHealth(t *testing.T) {
	app := setupApp(t, gin.TestMode)

	resp, err := http.Get(app.server.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var payload map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	resp.Body.Close()
	assert.Equal(t, "ok", payload["status"])
}

func TestUnknownRoute(t *testing.T) {
	app := setupApp(t, gin.TestMode)

	resp, err := http.Get(app.server.URL + "/nope")
	require.NoError(t, err)
	body := readBody(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.True(t, strings.Contains(body, "Page not found"))
}
