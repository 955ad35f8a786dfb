package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yukikurage/todo-app/internal/constants"
	"github.com/yukikurage/todo-app/internal/models"
	"github.com/yukikurage/todo-app/internal/repository"
)

var (
	ErrTodoNotFound           = errors.New("todo not found")
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoTodosGenerated     = errors.New("AI did not generate any todos")
	ErrAINoValidTodos         = errors.New("no valid todos could be created from AI output")
)

// TodoGenerator extracts todo suggestions from free text.
type TodoGenerator interface {
	GenerateTodosFromText(ctx context.Context, text string) ([]GeneratedTodo, error)
}

// TodoService handles todo business logic. Every operation is scoped to an owner.
type TodoService struct {
	todoRepo  repository.TodoRepository
	generator TodoGenerator
}

// NewTodoService creates a new TodoService. generator may be nil.
func NewTodoService(todoRepo repository.TodoRepository, generator TodoGenerator) *TodoService {
	return &TodoService{
		todoRepo:  todoRepo,
		generator: generator,
	}
}

// CreateTodoInput carries raw form values for a new todo
type CreateTodoInput struct {
	OwnerID  string
	Text     string
	DueDate  string
	Priority string
}

// Create validates the input and stores a new todo
func (s *TodoService) Create(ctx context.Context, input CreateTodoInput) (*models.Todo, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, newValidationError("todo", "Todo text is required")
	}
	if utf8.RuneCountInString(text) > constants.MaxTodoTextLength {
		return nil, newValidationError("todo", "Todo text must be at most %d characters", constants.MaxTodoTextLength)
	}

	dueDate, err := ParseDueDate(input.DueDate)
	if err != nil {
		return nil, newValidationError("dueDate", "Due date must look like YYYY-MM-DD")
	}

	priority := models.PriorityMedium
	if strings.TrimSpace(input.Priority) != "" {
		priority, err = models.ParsePriority(input.Priority)
		if err != nil {
			return nil, newValidationError("priority", "Priority must be low, medium or high")
		}
	}

	todo := &models.Todo{
		Text:     text,
		DueDate:  dueDate,
		Priority: priority,
		OwnerID:  input.OwnerID,
	}

	if err := s.todoRepo.Create(ctx, todo); err != nil {
		return nil, fmt.Errorf("failed to create todo: %w", err)
	}

	return todo, nil
}

// ListByOwner returns the owner's todos, soonest due and most urgent first
func (s *TodoService) ListByOwner(ctx context.Context, ownerID string) ([]models.Todo, error) {
	todos, err := s.todoRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	return todos, nil
}

// FindByOwnerAndID returns ErrTodoNotFound for missing todos and todos of other owners
func (s *TodoService) FindByOwnerAndID(ctx context.Context, ownerID, id string) (*models.Todo, error) {
	todo, err := s.todoRepo.FindByOwnerAndID(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTodoNotFound
		}
		return nil, fmt.Errorf("failed to find todo: %w", err)
	}
	return todo, nil
}

// Toggle flips the completed flag. It returns nil, nil when the todo is missing
// or belongs to someone else.
func (s *TodoService) Toggle(ctx context.Context, ownerID, id string) (*models.Todo, error) {
	todo, err := s.todoRepo.Toggle(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to toggle todo: %w", err)
	}
	return todo, nil
}

// Delete removes the todo iff it is owned by ownerID and reports whether it did
func (s *TodoService) Delete(ctx context.Context, ownerID, id string) (bool, error) {
	deleted, err := s.todoRepo.Delete(ctx, ownerID, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete todo: %w", err)
	}
	return deleted, nil
}

// CreateFromText asks the AI generator for todos and stores every valid one.
// On a store error it returns the todos saved so far along with the error.
func (s *TodoService) CreateFromText(ctx context.Context, ownerID, text string) ([]models.Todo, error) {
	if s.generator == nil {
		return nil, ErrAIServiceNotConfigured
	}
	if strings.TrimSpace(text) == "" {
		return nil, newValidationError("text", "Text is required")
	}

	generated, err := s.generator.GenerateTodosFromText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate todos: %w", err)
	}
	if len(generated) == 0 {
		return nil, ErrAINoTodosGenerated
	}
	if len(generated) > constants.MaxAIGeneratedTodos {
		generated = generated[:constants.MaxAIGeneratedTodos]
	}

	created := make([]models.Todo, 0, len(generated))
	for _, g := range generated {
		todo, err := s.Create(ctx, CreateTodoInput{
			OwnerID:  ownerID,
			Text:     g.Text,
			DueDate:  g.DueDate,
			Priority: g.Priority,
		})
		if err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				continue
			}
			return created, err
		}
		created = append(created, *todo)
	}

	if len(created) == 0 {
		return nil, ErrAINoValidTodos
	}
	return created, nil
}

// ParseDueDate parses a form date. Empty input means no due date.
// Dates are normalized to midnight UTC.
func ParseDueDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	t, err := time.Parse(constants.DueDateLayout, s)
	if err != nil {
		rfc, rfcErr := time.Parse(time.RFC3339, s)
		if rfcErr != nil {
			return nil, err
		}
		t = rfc
	}

	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &day, nil
}
