package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lemo-app/lemo-dashboard/models"
)

func TestMemory_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)

	_, ok, err := c.Get(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "tok", &models.User{ID: "u1", Type: models.Admin}))

	user, ok, err := c.Get(ctx, "tok")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "u1", user.ID)

	require.NoError(t, c.Delete(ctx, "tok"))
	_, ok, _ = c.Get(ctx, "tok")
	assert.False(t, ok)
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	c := NewMemory(time.Minute)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "tok", &models.User{ID: "u1"}))

	now = now.Add(59 * time.Second)
	_, ok, _ := c.Get(ctx, "tok")
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok, _ = c.Get(ctx, "tok")
	assert.False(t, ok)
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)
	require.NoError(t, c.Set(ctx, "tok", &models.User{ID: "u1", FullName: "Ada"}))

	user, _, _ := c.Get(ctx, "tok")
	user.FullName = "changed"

	again, _, _ := c.Get(ctx, "tok")
	assert.Equal(t, "Ada", again.FullName)
}

// fakeRedis implements the few commands the cache uses.
type fakeRedis struct {
	redis.Cmdable
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	f.data[key] = string(value.([]byte))
	f.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestRedis_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	c := NewRedis(fake, 30*time.Second)

	_, ok, err := c.Get(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "tok", &models.User{ID: "u1", Type: models.SchoolManager, School: &models.SchoolRef{ID: "s1"}}))
	assert.Equal(t, 30*time.Second, fake.ttls[key("tok")])
	for k := range fake.data {
		assert.NotContains(t, k, "tok")
	}

	user, ok, err := c.Get(ctx, "tok")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.SchoolManager, user.Type)
	assert.Equal(t, "s1", user.SchoolID())

	require.NoError(t, c.Delete(ctx, "tok"))
	_, ok, _ = c.Get(ctx, "tok")
	assert.False(t, ok)
}

func TestRedis_CorruptEntry(t *testing.T) {
	fake := newFakeRedis()
	fake.data[key("tok")] = "{not json"

	_, _, err := NewRedis(fake, time.Minute).Get(context.Background(), "tok")
	assert.Error(t, err)
}
