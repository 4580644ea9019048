package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/expense-tracker/internal/auth"
	"github.com/redmonkez12/expense-tracker/internal/config"
	"github.com/redmonkez12/expense-tracker/internal/database"
)

// initDB opens the configured database and returns a Bun DB instance
func initDB(cfg config.DatabaseConfig) (*bun.DB, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return database.OpenSQLite(cfg.SQLitePath)
	default:
		return database.OpenPostgres(cfg.ConnectionString())
	}
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}

// newTokenService builds the token service for the configured strategy
func newTokenService(cfg config.AuthConfig) (auth.TokenService, error) {
	key := cfg.SigningKey()
	switch cfg.TokenStrategy {
	case config.TokenStrategyPaseto:
		return auth.NewPasetoService(key)
	case config.TokenStrategyJWT:
		return auth.NewJWTService(key)
	default:
		return nil, fmt.Errorf("unsupported token strategy %q", cfg.TokenStrategy)
	}
}
