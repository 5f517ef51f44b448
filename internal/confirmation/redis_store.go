package confirmation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"copper-intel-workers/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore shares pending confirmations between worker instances.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "crm:confirm"
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(k models.ConfirmationKey) string {
	return fmt.Sprintf("%s:%s", s.prefix, k.String())
}

func (s *RedisStore) Get(ctx context.Context, key models.ConfirmationKey) (*models.PendingConfirmation, error) {
	raw, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read confirmation: %w", err)
	}
	p, err := decode(raw)
	if err != nil {
		return nil, err
	}
	if p.Key != key {
		return nil, nil
	}
	return p, nil
}

func (s *RedisStore) Put(ctx context.Context, p *models.PendingConfirmation) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal confirmation: %w", err)
	}
	ttl := s.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, s.key(p.Key), raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store confirmation: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, key models.ConfirmationKey) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to clear confirmation: %w", err)
	}
	return nil
}

// ClearIf deletes the entry inside a WATCH transaction so a concurrent Put wins.
func (s *RedisStore) ClearIf(ctx context.Context, key models.ConfirmationKey, id uuid.UUID) (bool, error) {
	k := s.key(key)
	cleared := false

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, k).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		p, err := decode(raw)
		if err != nil {
			return err
		}
		if p.ID != id || p.Key != key {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, k)
			return nil
		})
		if err == nil {
			cleared = true
		}
		return err
	}, k)

	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to clear confirmation: %w", err)
	}
	return cleared, nil
}

func decode(raw []byte) (*models.PendingConfirmation, error) {
	var p models.PendingConfirmation
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to decode confirmation: %w", err)
	}
	return &p, nil
}
