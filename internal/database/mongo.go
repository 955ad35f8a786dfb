package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/yukikurage/todo-app/internal/config"
	"github.com/yukikurage/todo-app/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoConnectTimeout = 10 * time.Second

// ConnectMongo connects to MongoDB and verifies the deployment is reachable.
// The returned client pools connections and reconnects on its own.
func ConnectMongo(ctx context.Context, cfg *config.Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	log.Printf("MongoDB connected (database %s)", cfg.MongoDatabase)
	return client, nil
}

// EnsureMongoIndexes creates the unique username index and the owner/due-date
// index used by todo listing. Creating an existing index is a no-op.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer cancel()

	_, err := db.Collection(repository.UsersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_users_username"),
	})
	if err != nil {
		return fmt.Errorf("failed to create users index: %w", err)
	}

	_, err = db.Collection(repository.TodosCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "ownerId", Value: 1}, {Key: "dueDate", Value: 1}},
		Options: options.Index().SetName("idx_todos_owner_due"),
	})
	if err != nil {
		return fmt.Errorf("failed to create todos index: %w", err)
	}

	log.Println("MongoDB indexes ensured")
	return nil
}
