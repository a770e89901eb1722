// Package backend opens the storage.Store selected by configuration.
package backend

import (
	"context"
	"fmt"

	"github.com/hongminglow/aparthus-be/internal/config"
	"github.com/hongminglow/aparthus-be/internal/storage"
	"github.com/hongminglow/aparthus-be/internal/storage/memory"
	"github.com/hongminglow/aparthus-be/internal/storage/mongo"
	"github.com/hongminglow/aparthus-be/internal/storage/postgres"
)

// Open connects to the configured driver.
func Open(ctx context.Context, cfg config.Config) (storage.Store, error) {
	switch cfg.StorageDriver {
	case config.DriverMongo:
		store, err := mongo.NewStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.DriverPostgres:
		store, err := postgres.NewStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
