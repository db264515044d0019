package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/BerylCAtieno/storycraft-agent/internal/logger"
)

// RedisStore keeps session values in Redis with a sliding TTL, so several
// server instances can share wizard sessions.
type RedisStore struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewRedisStore(log *logger.Logger, addr string, ttl time.Duration) (*RedisStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return NewRedisStoreFromClient(log, rdb, ttl), nil
}

func NewRedisStoreFromClient(log *logger.Logger, rdb *goredis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{log: log.With("component", "RedisSessionStore"), rdb: rdb, ttl: ttl}
}

func (s *RedisStore) Load(ctx context.Context, sessionID, key string, dst any) (bool, error) {
	k, err := storageKey(sessionID, key)
	if err != nil {
		return false, err
	}
	var raw []byte
	if s.ttl > 0 {
		raw, err = s.rdb.GetEx(ctx, k, s.ttl).Bytes()
	} else {
		raw, err = s.rdb.Get(ctx, k).Bytes()
	}
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		s.log.Error("session load failed", "session_id", sessionID, "key", key, "error", err)
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (s *RedisStore) Save(ctx context.Context, sessionID, key string, v any) error {
	k, err := storageKey(sessionID, key)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, k, raw, s.ttl).Err(); err != nil {
		s.log.Error("session save failed", "session_id", sessionID, "key", key, "error", err)
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID, key string) error {
	k, err := storageKey(sessionID, key)
	if err != nil {
		return err
	}
	if err := s.rdb.Del(ctx, k).Err(); err != nil {
		s.log.Error("session delete failed", "session_id", sessionID, "key", key, "error", err)
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}
