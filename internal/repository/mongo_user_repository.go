package repository

import (
	"context"
	"errors"
	"time"

	"github.com/yukikurage/todo-app/internal/constants"
	"github.com/yukikurage/todo-app/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// UsersCollection is the Mongo collection holding user documents.
const UsersCollection = "users"

// MongoUserRepository is a MongoDB implementation of UserRepository
type MongoUserRepository struct {
	coll    *mongo.Collection
	timeout time.Duration
}

// NewMongoUserRepository creates a new UserRepository backed by db
func NewMongoUserRepository(db *mongo.Database) UserRepository {
	return &MongoUserRepository{
		coll:    db.Collection(UsersCollection),
		timeout: constants.StoreOpTimeout,
	}
}

// Create inserts a new user document
func (r *MongoUserRepository) Create(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if user.ID == "" {
		user.ID = models.NewID()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := r.coll.InsertOne(ctx, user)
	return translateMongoError(err)
}

// FindByID finds a user by ID
func (r *MongoUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// FindByUsername finds a user by username
func (r *MongoUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var user models.User
	if err := r.coll.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, translateMongoError(err)
	}
	return &user, nil
}

func translateMongoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicateKey
	default:
		return err
	}
}
