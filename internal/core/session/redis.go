package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:"

type RedisStore struct {
	RDB *redis.Client
}

func NewRedisStore(addr, pass string, db int) *RedisStore {
	return &RedisStore{
		RDB: redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}),
	}
}

func (s *RedisStore) Ping(ctx context.Context) error { return s.RDB.Ping(ctx).Err() }

func (s *RedisStore) Get(ctx context.Context, id string) (*Data, error) {
	b, err := s.RDB.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}
	var d Data
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &d, nil
}

func (s *RedisStore) Save(ctx context.Context, id string, d *Data, ttl time.Duration) error {
	b, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return s.RDB.Set(ctx, keyPrefix+id, b, ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.RDB.Del(ctx, keyPrefix+id).Err()
}

func (s *RedisStore) Close() error { return s.RDB.Close() }
