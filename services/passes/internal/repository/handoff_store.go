package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/diagnosis/gatepass/services/passes/internal/domain"
)

// HandoffStore is the navigation channel between submission and display. A payload can be
// taken exactly once; Take on an unknown, expired or already-taken token returns
// domain.ErrHandoffNotFound. Implementations must be safe for concurrent use.
type HandoffStore interface {
	Put(ctx context.Context, token string, fields map[string]string, ttl time.Duration) error
	Take(ctx context.Context, token string) (map[string]string, error)
}

func handoffKey(namespace, token string) string {
	return fmt.Sprintf("%s:handoff:%s", namespace, token)
}

type RedisHandoffStore struct {
	client    *redis.Client
	namespace string
}

func NewRedisHandoffStore(client *redis.Client, namespace string) *RedisHandoffStore {
	return &RedisHandoffStore{client: client, namespace: namespace}
}

func (s *RedisHandoffStore) Put(ctx context.Context, token string, fields map[string]string, ttl time.Duration) error {
	values := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		values[k] = v
	}
	key := handoffKey(s.namespace, token)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, values)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store handoff: %w", err)
	}
	return nil
}

// Take reads and deletes the hash in one MULTI so two concurrent readers cannot both win.
func (s *RedisHandoffStore) Take(ctx context.Context, token string) (map[string]string, error) {
	key := handoffKey(s.namespace, token)
	var get *redis.MapStringStringCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		get = pipe.HGetAll(ctx, key)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("take handoff: %w", err)
	}
	fields := get.Val()
	if len(fields) == 0 {
		return nil, domain.ErrHandoffNotFound
	}
	return fields, nil
}

type memoryHandoff struct {
	fields    map[string]string
	expiresAt time.Time
}

// InMemoryHandoffStore backs a single-process deployment without Redis. Expired entries
// are swept on every Put.
type InMemoryHandoffStore struct {
	mu      sync.Mutex
	entries map[string]memoryHandoff
	now     func() time.Time
}

func NewInMemoryHandoffStore() *InMemoryHandoffStore {
	return &InMemoryHandoffStore{
		entries: make(map[string]memoryHandoff),
		now:     time.Now,
	}
}

func (s *InMemoryHandoffStore) Put(_ context.Context, token string, fields map[string]string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
		}
	}

	cp := make(map[string]string, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	s.entries[token] = memoryHandoff{fields: cp, expiresAt: now.Add(ttl)}
	return nil
}

func (s *InMemoryHandoffStore) Take(_ context.Context, token string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[token]
	if !ok {
		return nil, domain.ErrHandoffNotFound
	}
	delete(s.entries, token)
	if !s.now().Before(e.expiresAt) {
		return nil, domain.ErrHandoffNotFound
	}
	return e.fields, nil
}
