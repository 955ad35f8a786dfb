package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends
const (
	DriverMongo    = "mongo"
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// Session backends
const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

const defaultSessionSecret = "default-secret-key-change-me"

type Config struct {
	Port          string
	GinMode       string
	DBDriver      string
	MongoURI      string
	MongoDatabase string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	SQLitePath    string
	SessionStore  string
	SessionSecret string
	SessionTTL    time.Duration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisTLS      bool
	OpenAIAPIKey  string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:          getEnv("PORT", "8080"),
		GinMode:       getEnv("GIN_MODE", "debug"),
		DBDriver:      getEnv("DB_DRIVER", DriverMongo),
		MongoURI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGODB_DATABASE", "todoapp"),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "3306"),
		DBUser:        getEnv("DB_USER", "todouser"),
		DBPassword:    getEnv("DB_PASSWORD", "todopassword"),
		DBName:        getEnv("DB_NAME", "todoapp"),
		SQLitePath:    getEnv("SQLITE_PATH", "todoapp.db"),
		SessionStore:  getEnv("SESSION_STORE", SessionStoreMemory),
		SessionSecret: getEnv("SESSION_SECRET", defaultSessionSecret),
		SessionTTL:    getDuration("SESSION_TTL", 24*time.Hour),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnv("REDIS_TLS", "false") == "true",
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
	}
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverMongo, DriverSQLite, DriverMySQL, DriverPostgres:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	switch c.SessionStore {
	case SessionStoreMemory, SessionStoreRedis:
	default:
		return fmt.Errorf("unsupported SESSION_STORE %q", c.SessionStore)
	}

	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}

	if c.IsProduction() && c.SessionSecret == defaultSessionSecret {
		return fmt.Errorf("SESSION_SECRET must be set in release mode")
	}

	return nil
}

// IsProduction reports whether gin runs in release mode.
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
