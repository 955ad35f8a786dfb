package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/todo-app/internal/dto"
	apierrors "github.com/yukikurage/todo-app/internal/errors"
	"github.com/yukikurage/todo-app/internal/middleware"
	"github.com/yukikurage/todo-app/internal/services"
)

const indexTemplate = "index.html"

type TodoHandler struct {
	todoService *services.TodoService
	authService *services.AuthService
	aiEnabled   bool
	now         func() time.Time
}

func NewTodoHandler(todoService *services.TodoService, authService *services.AuthService, aiEnabled bool) *TodoHandler {
	return &TodoHandler{
		todoService: todoService,
		authService: authService,
		aiEnabled:   aiEnabled,
		now:         time.Now,
	}
}

type addTodoForm struct {
	Todo     string `form:"todo"`
	DueDate  string `form:"dueDate"`
	Priority string `form:"priority"`
}

type generateTodosForm struct {
	Text string `form:"text"`
}

// ListTodos renders the current user's todos
func (h *TodoHandler) ListTodos(c *gin.Context) {
	h.renderIndex(c, dto.TodoFormDTO{}, "")
}

// AddTodo creates a todo from the add form
func (h *TodoHandler) AddTodo(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.Redirect(http.StatusFound, middleware.LoginPath)
		return
	}

	var form addTodoForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderIndex(c, dto.TodoFormDTO{}, "Invalid form submission")
		return
	}

	_, err := h.todoService.Create(c.Request.Context(), services.CreateTodoInput{
		OwnerID:  userID,
		Text:     form.Todo,
		DueDate:  form.DueDate,
		Priority: form.Priority,
	})
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			h.renderIndex(c, dto.TodoFormDTO{
				Text:     form.Todo,
				DueDate:  form.DueDate,
				Priority: form.Priority,
			}, verr.Message)
			return
		}
		_ = c.Error(err)
		apierrors.InternalError(c, "")
		return
	}

	c.Redirect(http.StatusFound, "/")
}

// ToggleTodo flips completion. Unknown or foreign ids are ignored.
func (h *TodoHandler) ToggleTodo(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.Redirect(http.StatusFound, middleware.LoginPath)
		return
	}

	if _, err := h.todoService.Toggle(c.Request.Context(), userID, c.Param("id")); err != nil {
		_ = c.Error(err)
		apierrors.InternalError(c, "")
		return
	}

	c.Redirect(http.StatusFound, "/")
}

// DeleteTodo removes a todo. Unknown or foreign ids are ignored.
func (h *TodoHandler) DeleteTodo(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.Redirect(http.StatusFound, middleware.LoginPath)
		return
	}

	if _, err := h.todoService.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		_ = c.Error(err)
		apierrors.InternalError(c, "")
		return
	}

	c.Redirect(http.StatusFound, "/")
}

// GenerateTodos extracts todos from free text with the AI service
func (h *TodoHandler) GenerateTodos(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.Redirect(http.StatusFound, middleware.LoginPath)
		return
	}

	var form generateTodosForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderIndex(c, dto.TodoFormDTO{}, "Invalid form submission")
		return
	}

	created, err := h.todoService.CreateFromText(c.Request.Context(), userID, form.Text)
	var verr *services.ValidationError
	switch {
	case err == nil:
		c.Redirect(http.StatusFound, "/")
	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, "AI service is not configured. Please set the OPENAI_API_KEY environment variable.")
	case errors.As(err, &verr):
		h.renderIndex(c, dto.TodoFormDTO{}, verr.Message)
	case errors.Is(err, services.ErrAINoTodosGenerated), errors.Is(err, services.ErrAINoValidTodos):
		h.renderIndex(c, dto.TodoFormDTO{}, "No todos found in that text")
	case len(created) > 0:
		// Part of the batch is already stored; show it instead of an error page.
		_ = c.Error(err)
		h.renderIndex(c, dto.TodoFormDTO{}, fmt.Sprintf("Only %d of the extracted todos could be saved. Please try again.", len(created)))
	default:
		_ = c.Error(err)
		apierrors.InternalError(c, "Failed to generate todos")
	}
}

// renderIndex loads the list fresh and renders it with an optional form error.
func (h *TodoHandler) renderIndex(c *gin.Context, form dto.TodoFormDTO, message string) {
	s, ok := middleware.GetSession(c)
	if !ok {
		c.Redirect(http.StatusFound, middleware.LoginPath)
		return
	}

	user, err := h.authService.FindByID(c.Request.Context(), s.UserID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.Redirect(http.StatusFound, "/logout")
			return
		}
		_ = c.Error(err)
		apierrors.InternalError(c, "")
		return
	}

	todos, err := h.todoService.ListByOwner(c.Request.Context(), user.ID)
	if err != nil {
		_ = c.Error(err)
		apierrors.InternalError(c, "")
		return
	}

	c.HTML(http.StatusOK, indexTemplate, gin.H{
		"Title":      "Todos",
		"User":       dto.ToUserDTO(*user),
		"Todos":      dto.ToTodoDTOs(todos, h.now()),
		"Form":       form,
		"Priorities": dto.PriorityOptions(form.Priority),
		"AIEnabled":  h.aiEnabled,
		"Error":      message,
	})
}
