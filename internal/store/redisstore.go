package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-desk/internal/config"
)

// RedisStore keeps the ticket document under a single key, overwritten in
// full on every save.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore connects the client; an unreachable server is logged but
// tolerated so the process can come up while redis recovers.
func NewRedisStore(cfg config.RedisConfig, logger *zap.Logger) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis store")
	}

	return &RedisStore{client: client, key: cfg.Key}
}

// Save overwrites the document key.
func (s *RedisStore) Save(ctx context.Context, snapshot Snapshot) error {
	doc, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode ticket state: %w", err)
	}
	return s.client.Set(ctx, s.key, doc, 0).Err()
}

// Load reads the document key; a missing key yields an empty snapshot.
func (s *RedisStore) Load(ctx context.Context) (Snapshot, error) {
	doc, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Snapshot{}, nil
		}
		return Snapshot{}, err
	}

	snapshot := Snapshot{}
	if err := json.Unmarshal(doc, &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("decode ticket state: %w", err)
	}
	return snapshot, nil
}

// Ping verifies connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
