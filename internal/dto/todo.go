package dto

import (
	"time"

	"github.com/yukikurage/todo-app/internal/constants"
	"github.com/yukikurage/todo-app/internal/models"
)

// UserDTO represents the signed-in user in page data
type UserDTO struct {
	ID       string
	Username string
}

// TodoDTO represents a todo row in the list page
type TodoDTO struct {
	ID        string
	Text      string
	DueDate   string
	Priority  string
	Completed bool
	Overdue   bool
}

// PriorityOption is one entry of the priority select box
type PriorityOption struct {
	Value    string
	Selected bool
}

// TodoFormDTO keeps the add form values so they survive a validation error
type TodoFormDTO struct {
	Text     string
	DueDate  string
	Priority string
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:       user.ID,
		Username: user.Username,
	}
}

// ToTodoDTO converts a Todo model to TodoDTO. A todo is overdue when it is
// still open and its due date is before today.
func ToTodoDTO(todo models.Todo, now time.Time) TodoDTO {
	dto := TodoDTO{
		ID:        todo.ID,
		Text:      todo.Text,
		Priority:  todo.Priority.String(),
		Completed: todo.Completed,
	}

	if todo.DueDate != nil {
		dto.DueDate = todo.DueDate.UTC().Format(constants.DueDateLayout)
		y, m, d := now.UTC().Date()
		today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		dto.Overdue = !todo.Completed && todo.DueDate.Before(today)
	}

	return dto
}

// ToTodoDTOs converts a slice of todos preserving order
func ToTodoDTOs(todos []models.Todo, now time.Time) []TodoDTO {
	items := make([]TodoDTO, len(todos))
	for i, todo := range todos {
		items[i] = ToTodoDTO(todo, now)
	}
	return items
}

// PriorityOptions lists the priorities with selected marked; empty selects medium.
func PriorityOptions(selected string) []PriorityOption {
	if selected == "" {
		selected = models.PriorityMedium.String()
	}
	options := make([]PriorityOption, 0, len(models.Priorities()))
	for _, p := range models.Priorities() {
		options = append(options, PriorityOption{
			Value:    p.String(),
			Selected: p.String() == selected,
		})
	}
	return options
}
