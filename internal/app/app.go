// Package app assembles the pieces shared by the HTTP server and the Lambda
// entry point.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/serverless-todo/internal/config"
	"github.com/BuzzLyutic/serverless-todo/internal/repo"
)

func NewLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// OpenStore builds the store selected by cfg.StoreDriver. The returned close
// func releases any connections and is never nil.
func OpenStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (repo.Store, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverDynamoDB:
		client, err := repo.NewDynamoClient(ctx, cfg.AWSRegion, cfg.DynamoDBEndpoint)
		if err != nil {
			return nil, func() {}, err
		}
		logger.Info("using dynamodb store",
			zap.String("table", cfg.TableName),
			zap.String("region", cfg.AWSRegion),
		)
		return repo.NewDynamoStore(client, cfg.TableName, logger), func() {}, nil

	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, func() {}, fmt.Errorf("connect to database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, func() {}, fmt.Errorf("ping database: %w", err)
		}

		store := repo.NewPostgresStore(pool, cfg.TableName)
		if err := store.CreateSchema(ctx); err != nil {
			pool.Close()
			return nil, func() {}, err
		}
		logger.Info("using postgres store", zap.String("table", cfg.TableName))
		return store, pool.Close, nil

	case config.DriverMemory:
		logger.Warn("using in-memory store; data is lost on restart")
		return repo.NewMemoryStore(), func() {}, nil
	}

	return nil, func() {}, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
