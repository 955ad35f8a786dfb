package repository

import (
	"context"

	"github.com/yukikurage/todo-app/internal/models"
	"gorm.io/gorm"
)

// GormTodoRepository is a GORM implementation of TodoRepository
type GormTodoRepository struct {
	db *gorm.DB
}

// NewTodoRepository creates a new TodoRepository
func NewTodoRepository(db *gorm.DB) TodoRepository {
	return &GormTodoRepository{db: db}
}

// Create creates a new todo
func (r *GormTodoRepository) Create(ctx context.Context, todo *models.Todo) error {
	return translateGormError(r.db.WithContext(ctx).Omit("Owner").Create(todo).Error)
}

// ListByOwner retrieves the owner's todos, soonest due and most urgent first
func (r *GormTodoRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Todo, error) {
	todos := []models.Todo{}
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("CASE WHEN due_date IS NULL THEN 1 ELSE 0 END").
		Order("due_date ASC").
		Order("priority DESC").
		Order("created_at ASC").
		Find(&todos).Error
	if err != nil {
		return nil, err
	}
	return todos, nil
}

// FindByOwnerAndID finds a todo owned by ownerID
func (r *GormTodoRepository) FindByOwnerAndID(ctx context.Context, ownerID, id string) (*models.Todo, error) {
	var todo models.Todo
	if err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&todo).Error; err != nil {
		return nil, translateGormError(err)
	}
	return &todo, nil
}

// Toggle flips the completed flag in a single UPDATE statement
func (r *GormTodoRepository) Toggle(ctx context.Context, ownerID, id string) (*models.Todo, error) {
	db := r.db.WithContext(ctx)

	res := db.Model(&models.Todo{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Updates(map[string]interface{}{
			"completed": gorm.Expr("NOT completed"),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	return r.FindByOwnerAndID(ctx, ownerID, id)
}

// Delete removes a todo owned by ownerID
func (r *GormTodoRepository) Delete(ctx context.Context, ownerID, id string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&models.Todo{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
