package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/todo-app/internal/config"
	"github.com/yukikurage/todo-app/internal/database"
	"github.com/yukikurage/todo-app/internal/repository"
	"github.com/yukikurage/todo-app/internal/router"
	"github.com/yukikurage/todo-app/internal/services"
	"github.com/yukikurage/todo-app/internal/session"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to the configured store
	userRepo, todoRepo, closeStore, err := openRepositories(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer closeStore()

	// Setup session storage
	sessionStore, closeSessions, err := openSessionStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create session store: %v", err)
	}
	defer closeSessions()

	// Initialize AI service
	var generator services.TodoGenerator
	if cfg.OpenAIAPIKey != "" {
		generator = services.NewAIService(cfg.OpenAIAPIKey)
	}

	authService := services.NewAuthService(userRepo)
	todoService := services.NewTodoService(todoRepo, generator)
	sessionManager := session.NewManager(sessionStore, authService, cfg.SessionTTL)

	r, err := router.New(router.Dependencies{
		Config:      cfg,
		AuthService: authService,
		TodoService: todoService,
		Sessions:    sessionManager,
		AIEnabled:   generator != nil,
	})
	if err != nil {
		log.Fatalf("Failed to build router: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}

// openRepositories connects to the document store or a relational database
// depending on DB_DRIVER. The returned func releases the connection.
func openRepositories(ctx context.Context, cfg *config.Config) (repository.UserRepository, repository.TodoRepository, func(), error) {
	if cfg.DBDriver == config.DriverMongo {
		client, err := database.ConnectMongo(ctx, cfg)
		if err != nil {
			return nil, nil, nil, err
		}
		db := client.Database(cfg.MongoDatabase)
		if err := database.EnsureMongoIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, nil, err
		}

		closeFn := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Printf("Error during MongoDB disconnect: %v", err)
				return
			}
			log.Println("MongoDB connection closed")
		}
		return repository.NewMongoUserRepository(db), repository.NewMongoTodoRepository(db), closeFn, nil
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := database.Migrate(db); err != nil {
		_ = database.Close(db)
		return nil, nil, nil, err
	}

	closeFn := func() {
		if err := database.Close(db); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}
	return repository.NewUserRepository(db), repository.NewTodoRepository(db), closeFn, nil
}

func openSessionStore(ctx context.Context, cfg *config.Config) (session.Store, func(), error) {
	if cfg.SessionStore == config.SessionStoreRedis {
		client, err := database.NewRedisClient(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := client.Close(); err != nil {
				log.Printf("Error closing Redis client: %v", err)
			}
		}
		return session.NewRedisStore(client, session.DefaultRedisKeyPrefix), closeFn, nil
	}

	log.Println("Using in-memory session store; sessions are lost on restart")
	return session.NewMemoryStore(), func() {}, nil
}
