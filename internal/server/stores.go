package server

import (
	"context"
	"fmt"

	"catalog-api/internal/config"
	"catalog-api/internal/database"
	"catalog-api/internal/repository"

	"go.uber.org/zap"
)

// stores bundles the catalog repositories for the configured driver
type stores struct {
	categories repository.CategoryRepository
	products   repository.ProductRepository
	close      func() error
	// schemaVersion is nil for stores without SQL migrations
	schemaVersion func(ctx context.Context) (int64, error)
}

func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stores, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		return openPostgres(ctx, cfg, logger)
	case config.StoreDriverMongo:
		return openMongo(ctx, cfg, logger)
	case config.StoreDriverMemory:
		logger.Warn("Using in-memory catalog store, data is lost on restart")
		return &stores{
			categories: repository.NewMemCategoryRepository(),
			products:   repository.NewMemProductRepository(),
			close:      func() error { return nil },
		}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func openPostgres(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stores, error) {
	dbService, err := database.New(cfg.Database)
	if err != nil {
		return nil, err
	}
	logger.Info("Database health check", zap.Any("health", dbService.Health()))

	migrator, err := database.NewMigrator(dbService.DB(), database.MigrationSource(cfg.Store.MigrationsDir), logger)
	if err != nil {
		dbService.Close()
		return nil, err
	}
	if err := migrator.Up(ctx); err != nil {
		dbService.Close()
		return nil, err
	}

	return &stores{
		categories:    repository.NewCategoryRepository(dbService.DB()),
		products:      repository.NewProductRepository(dbService.DB()),
		close:         dbService.Close,
		schemaVersion: migrator.Version,
	}, nil
}

func openMongo(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stores, error) {
	client, db, err := database.ConnectMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		return nil, err
	}

	categories := repository.NewMongoCategoryRepository(db)
	products := repository.NewMongoProductRepository(db)

	if err := categories.EnsureIndexes(ctx); err != nil {
		database.DisconnectMongo(client)
		return nil, err
	}
	if err := products.EnsureIndexes(ctx); err != nil {
		database.DisconnectMongo(client)
		return nil, err
	}

	logger.Info("Connected to MongoDB", zap.String("database", cfg.Mongo.Database))

	return &stores{
		categories: categories,
		products:   products,
		close:      func() error { return database.DisconnectMongo(client) },
	}, nil
}
