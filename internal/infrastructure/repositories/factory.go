package repositories

import (
	"mosaic/internal/core/ports"
	"mosaic/internal/infrastructure/repositories/file"
	"mosaic/internal/infrastructure/repositories/memory"
	redisrepo "mosaic/internal/infrastructure/repositories/redis"
	"mosaic/pkg/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RepositoryFactory creates repositories with fallback support
type RepositoryFactory struct {
	useRedis    bool
	redisClient *redis.Client
	snapshot    string
	logger      *zap.Logger
}

// NewRepositoryFactory creates a new repository factory
func NewRepositoryFactory(cfg *config.Config, logger *zap.Logger) (*RepositoryFactory, error) {
	factory := &RepositoryFactory{
		useRedis: cfg.Store.Redis.Enabled,
		snapshot: cfg.Store.SnapshotPath,
		logger:   logger,
	}

	if cfg.Store.Redis.Enabled {
		client, err := redisrepo.NewRedisClient(
			cfg.Store.Redis.Address,
			cfg.Store.Redis.Password,
			cfg.Store.Redis.DB,
			cfg.Store.Redis.PoolSize,
			logger,
		)
		if err != nil {
			logger.Warn("failed to connect to Redis, falling back to memory repositories",
				zap.Error(err),
			)
			factory.useRedis = false
		} else {
			factory.redisClient = client
			logger.Info("using Redis repositories")
		}
	}

	if !factory.useRedis {
		logger.Info("using memory repositories")
	}

	return factory, nil
}

// CreateSlotRepository creates a slot repository (Redis or memory)
func (f *RepositoryFactory) CreateSlotRepository() ports.SlotRepository {
	if f.useRedis && f.redisClient != nil {
		return redisrepo.NewRedisSlotRepository(f.redisClient)
	}
	return memory.NewMemorySlotRepository()
}

// CreateGridConfigRepository creates a grid config repository (Redis or memory)
func (f *RepositoryFactory) CreateGridConfigRepository() ports.GridConfigRepository {
	if f.useRedis && f.redisClient != nil {
		return redisrepo.NewRedisGridConfigRepository(f.redisClient)
	}
	return memory.NewMemoryGridConfigRepository()
}

// CreateSnapshotStore creates the local snapshot fallback store
func (f *RepositoryFactory) CreateSnapshotStore() ports.SnapshotStore {
	return file.NewSnapshotStore(f.snapshot)
}

// Close closes Redis connection if used
func (f *RepositoryFactory) Close() error {
	return redisrepo.CloseRedisClient(f.redisClient)
}
