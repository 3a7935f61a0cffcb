// Package cache keeps the result of GET /users/me for a short while so that
// every dashboard request does not cost an extra API round trip.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lemo-app/lemo-dashboard/models"
)

// ProfileCache maps a session token to the signed-in user.
type ProfileCache interface {
	Get(ctx context.Context, token string) (*models.User, bool, error)
	Set(ctx context.Context, token string, user *models.User) error
	Delete(ctx context.Context, token string) error
}

func key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "lemo:profile:" + hex.EncodeToString(sum[:])
}

// Memory is an in-process ProfileCache.
type Memory struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	user    models.User
	expires time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (m *Memory) Get(_ context.Context, token string) (*models.User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := key(token)
	e, ok := m.entries[k]
	if !ok {
		return nil, false, nil
	}
	if !m.now().Before(e.expires) {
		delete(m.entries, k)
		return nil, false, nil
	}
	user := e.user
	return &user, true, nil
}

func (m *Memory) Set(_ context.Context, token string, user *models.User) error {
	if user == nil {
		return errors.New("cannot cache a nil user")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, e := range m.entries {
		if !now.Before(e.expires) {
			delete(m.entries, k)
		}
	}
	m.entries[key(token)] = memoryEntry{user: *user, expires: now.Add(m.ttl)}
	return nil
}

func (m *Memory) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key(token))
	return nil
}

// Redis is a ProfileCache shared between dashboard replicas.
type Redis struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedis(client redis.Cmdable, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, token string) (*models.User, bool, error) {
	data, err := r.client.Get(ctx, key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached profile: %w", err)
	}

	var user models.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached profile: %w", err)
	}
	return &user, true, nil
}

func (r *Redis) Set(ctx context.Context, token string, user *models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	if err := r.client.Set(ctx, key(token), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache profile: %w", err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, key(token)).Err(); err != nil {
		return fmt.Errorf("failed to evict cached profile: %w", err)
	}
	return nil
}
