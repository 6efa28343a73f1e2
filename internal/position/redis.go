package position

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"PairTrader/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

// RedisConfig configures the Redis-backed position store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// RedisStore keeps the position under a per-symbol key, so the slot survives
// a move to another host.
type RedisStore struct {
	client *goredis.Client
	key    string
}

// NewRedisStore connects to Redis and pings it.
func NewRedisStore(cfg RedisConfig, symbol string) (*RedisStore, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[INFO] redis position store connected to %s", cfg.Addr)
	return &RedisStore{client: client, key: RedisKey(cfg.Prefix, symbol)}, nil
}

// RedisKey returns the key holding a symbol's position.
func RedisKey(prefix, symbol string) string {
	if prefix == "" {
		prefix = "pairtrader"
	}
	return prefix + ":position:" + symbol
}

func (s *RedisStore) Name() string { return "redis:" + s.key }

// Load reads the position key. A missing key means FLAT.
func (s *RedisStore) Load(ctx context.Context) (model.PositionState, error) {
	raw, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, goredis.Nil) {
		return model.PositionState{Side: model.Flat}, nil
	}
	if err != nil {
		return model.PositionState{}, &PersistenceError{Op: "load", Err: err}
	}
	state, err := Decode(raw)
	if err != nil {
		return model.PositionState{}, &PersistenceError{Op: "load", Err: err}
	}
	return state, nil
}

// Save writes the position key with a single SET.
func (s *RedisStore) Save(ctx context.Context, state model.PositionState) error {
	if err := s.client.Set(ctx, s.key, Encode(state), 0).Err(); err != nil {
		return &PersistenceError{Op: "save", Err: err}
	}
	return nil
}

// Close releases the Redis connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
