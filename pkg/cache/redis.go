package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bulkfin/bulkfin-go/pkg/panel"
)

// RedisStore keeps entries in Redis under prefixed keys, each a JSON
// envelope holding the saved-at timestamp and the CSV payload. Entries
// expire after ttl; a ttl of zero keeps them until evicted.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

type redisEntry struct {
	SavedAt time.Time `json:"saved_at"`
	CSV     string    `json:"csv"`
}

func (s *RedisStore) Save(ctx context.Context, key Key, p *panel.Panel) error {
	data, err := encodePanel(p)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(redisEntry{
		SavedAt: time.Now().UTC(),
		CSV:     string(data),
	})
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+key.String(), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, key Key) (*panel.Panel, time.Time, error) {
	val, err := s.client.Get(ctx, s.prefix+key.String()).Result()
	if err == redis.Nil {
		return nil, time.Time{}, ErrMiss
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("redis get: %w", err)
	}

	var e redisEntry
	if err := json.Unmarshal([]byte(val), &e); err != nil {
		return nil, time.Time{}, fmt.Errorf("unmarshal cache entry: %w", err)
	}
	p, err := decodePanel([]byte(e.CSV))
	if err != nil {
		return nil, time.Time{}, err
	}
	return p, e.SavedAt, nil
}
