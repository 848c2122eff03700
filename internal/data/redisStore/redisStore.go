package redisStore

import (
	"context"
	"strconv"
	"sync"

	"github.com/akolanti/DocRAG/internal/config"
	"github.com/akolanti/DocRAG/pkg/logger_i"
	"github.com/redis/go-redis/v9"
)

var (
	instances = make(map[int]*Store)
	mu        sync.RWMutex
	logger    *logger_i.Logger
	once      sync.Once
)

// Store is one redis client bound to a logical DB (config.RedisJobStore,
// config.RedisDocumentStore).
type Store struct {
	client *redis.Client
	Type   int
}

// Options locate the redis server shared by every logical DB.
type Options struct {
	Addr     string
	Password string
}

// GetRedisStore returns the client for dbType, creating it on first use. It
// returns nil when redis cannot be reached so callers can fall back.
func GetRedisStore(ctx context.Context, opts Options, dbType int) *Store {
	mu.RLock()
	instance, exists := instances[dbType]
	mu.RUnlock()

	if exists {
		return instance
	}

	mu.Lock()
	defer mu.Unlock()

	if instance, exists = instances[dbType]; exists {
		return instance
	}
	return createNewStore(ctx, opts, dbType)
}

func initLogger() {
	if logger == nil {
		logger = logger_i.NewLogger("redis_store")
	}
}

func closeRedisStores(ctx context.Context) {
	<-ctx.Done()
	logger.Info("Closing Redis Stores")
	mu.Lock()
	defer mu.Unlock()
	for dbType, store := range instances {
		if err := store.client.Close(); err != nil {
			logger.Error("Error closing redis client", "db", dbType, "error", err)
		}
		delete(instances, dbType)
	}
	logger.Info("Redis Store Closed successfully")
}

func createNewStore(ctx context.Context, opts Options, dbType int) *Store {
	initLogger()
	log := logger.With("db", strconv.Itoa(dbType), "addr", opts.Addr)

	newClient := redis.NewClient(&redis.Options{
		Addr:                  opts.Addr,
		Password:              opts.Password,
		DB:                    dbType,
		ContextTimeoutEnabled: true,
		ReadTimeout:           config.RedisCommandTimeout,
		WriteTimeout:          config.RedisCommandTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, config.RedisPingTimeout)
	defer cancel()

	if err := newClient.Ping(pingCtx).Err(); err != nil {
		log.Error("Redis is offline", "error", err)
		_ = newClient.Close()
		return nil
	}

	log.Info("Redis client initialised")

	newStore := &Store{
		client: newClient,
		Type:   dbType,
	}

	instances[dbType] = newStore
	once.Do(func() {
		go closeRedisStores(ctx)
	})
	return newStore
}

// NewTestStore wraps an existing client, used with miniredis in tests.
func NewTestStore(client *redis.Client) *Store {
	initLogger()
	return &Store{
		client: client,
	}
}
