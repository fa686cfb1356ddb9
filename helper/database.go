package helper

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/lib/pq"
)

// DatabaseConfiguration holds the connection settings for the Postgres instance
type DatabaseConfiguration struct {
	Host     string
	Port     string
	Database string
	Username string
	Password string
	Schema   string
	SSLMode  string
}

// NewDatabaseConfiguration reads the database configuration from environment variables.
// All variables are required; a missing one is a configuration error.
func NewDatabaseConfiguration() (*DatabaseConfiguration, error) {
	config := &DatabaseConfiguration{}
	envs := map[string]*string{
		"DB_HOST":     &config.Host,
		"DB_PORT":     &config.Port,
		"DB_DATABASE": &config.Database,
		"DB_USERNAME": &config.Username,
		"DB_PASSWORD": &config.Password,
		"DB_SCHEMA":   &config.Schema,
		"DB_SSLMODE":  &config.SSLMode,
	}
	for key, target := range envs {
		value, ok := os.LookupEnv(key)
		if !ok || value == "" {
			return nil, fmt.Errorf("missing environment variable %v", key)
		}
		*target = value
	}
	return config, nil
}

// Database wraps a shared sql.DB handle together with its logger
type Database struct {
	Name     string
	Instance *sql.DB
	Logger   *slog.Logger
}

// NewDatabase opens a connection to the configured Postgres instance and pings it.
// Connection failure at startup is unrecoverable, so it panics instead of returning an error.
func NewDatabase(name string, config *DatabaseConfiguration, logger *slog.Logger) *Database {
	connStr := fmt.Sprintf(
		"postgres://%v:%v@%v:%v/%v?sslmode=%v&search_path=%v",
		config.Username,
		config.Password,
		config.Host,
		config.Port,
		config.Database,
		config.SSLMode,
		config.Schema,
	)

	instance, err := sql.Open("postgres", connStr)
	if err != nil {
		logger.Error("Opening database connection", slog.String("error", err.Error()))
		panic(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := instance.PingContext(ctx); err != nil {
		logger.Error("Pinging database", slog.String("error", err.Error()))
		panic(err)
	}

	logger.Info("Connected to database", slog.String("name", name), slog.String("host", config.Host))

	return &Database{
		Name:     name,
		Instance: instance,
		Logger:   logger,
	}
}
