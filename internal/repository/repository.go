package repository

import (
	"context"
	"errors"

	"github.com/yukikurage/todo-app/internal/models"
)

var (
	// ErrNotFound is returned when no record matches the lookup.
	ErrNotFound = errors.New("repository: record not found")
	// ErrDuplicateKey is returned when a write violates a unique index.
	ErrDuplicateKey = errors.New("repository: duplicate key")
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id string) (*models.User, error)

	// FindByUsername finds a user by username (case-sensitive)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

// TodoRepository defines the interface for todo data access.
// Every method is scoped to an owner; records of other owners behave as missing.
type TodoRepository interface {
	// Create creates a new todo
	Create(ctx context.Context, todo *models.Todo) error

	// ListByOwner returns the owner's todos ordered by due date (missing last),
	// then priority descending, then creation time.
	ListByOwner(ctx context.Context, ownerID string) ([]models.Todo, error)

	// FindByOwnerAndID finds a single todo
	FindByOwnerAndID(ctx context.Context, ownerID, id string) (*models.Todo, error)

	// Toggle flips the completed flag atomically and returns the updated todo
	Toggle(ctx context.Context, ownerID, id string) (*models.Todo, error)

	// Delete removes the todo and reports whether a record was removed
	Delete(ctx context.Context, ownerID, id string) (bool, error)
}
