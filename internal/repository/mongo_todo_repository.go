package repository

import (
	"context"
	"time"

	"github.com/yukikurage/todo-app/internal/constants"
	"github.com/yukikurage/todo-app/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TodosCollection is the Mongo collection holding todo documents.
const TodosCollection = "todos"

// MongoTodoRepository is a MongoDB implementation of TodoRepository
type MongoTodoRepository struct {
	coll    *mongo.Collection
	timeout time.Duration
}

// NewMongoTodoRepository creates a new TodoRepository backed by db
func NewMongoTodoRepository(db *mongo.Database) TodoRepository {
	return &MongoTodoRepository{
		coll:    db.Collection(TodosCollection),
		timeout: constants.StoreOpTimeout,
	}
}

// Create inserts a new todo document
func (r *MongoTodoRepository) Create(ctx context.Context, todo *models.Todo) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	now := time.Now().UTC()
	if todo.ID == "" {
		todo.ID = models.NewID()
	}
	if todo.CreatedAt.IsZero() {
		todo.CreatedAt = now
	}
	todo.UpdatedAt = now

	_, err := r.coll.InsertOne(ctx, todo)
	return translateMongoError(err)
}

// ListByOwner runs an aggregation so that todos without a due date sort last,
// matching the relational backends.
func (r *MongoTodoRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Todo, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"ownerId": ownerID}}},
		{{Key: "$addFields", Value: bson.M{
			"noDueDate": bson.M{"$cond": bson.A{bson.M{"$ifNull": bson.A{"$dueDate", false}}, 0, 1}},
		}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "noDueDate", Value: 1},
			{Key: "dueDate", Value: 1},
			{Key: "priority", Value: -1},
			{Key: "createdAt", Value: 1},
		}}},
		{{Key: "$project", Value: bson.M{"noDueDate": 0}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}

	todos := []models.Todo{}
	if err := cursor.All(ctx, &todos); err != nil {
		return nil, err
	}
	return todos, nil
}

// FindByOwnerAndID finds a todo owned by ownerID
func (r *MongoTodoRepository) FindByOwnerAndID(ctx context.Context, ownerID, id string) (*models.Todo, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var todo models.Todo
	if err := r.coll.FindOne(ctx, bson.M{"_id": id, "ownerId": ownerID}).Decode(&todo); err != nil {
		return nil, translateMongoError(err)
	}
	return &todo, nil
}

// Toggle flips the completed flag with an update pipeline so the read and
// write happen in one atomic document update.
func (r *MongoTodoRepository) Toggle(ctx context.Context, ownerID, id string) (*models.Todo, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"completed": bson.M{"$not": bson.A{"$completed"}},
			"updatedAt": "$$NOW",
		}}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var todo models.Todo
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id, "ownerId": ownerID}, update, opts).Decode(&todo)
	if err != nil {
		return nil, translateMongoError(err)
	}
	return &todo, nil
}

// Delete removes a todo owned by ownerID
func (r *MongoTodoRepository) Delete(ctx context.Context, ownerID, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id, "ownerId": ownerID})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}
