package oneshot_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/zkbridge/pkg/oneshot"
)

type fakeRedis struct {
	mu      sync.Mutex
	data    map[string]string
	ttls    map[string]time.Duration
	failErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, exp time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return redis.NewStatusResult("", f.failErr)
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttls[key] = exp
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return redis.NewStringResult("", f.failErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) GetDel(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return redis.NewStringResult("", f.failErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	delete(f.data, key)
	return redis.NewStringResult(v, nil)
}

type envelope struct {
	IdentityToken string `json:"identityToken"`
	Salt          string `json:"salt"`
}

func TestRedisStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("round trip with prefix and ttl", func(t *testing.T) {
		t.Parallel()

		rdb := newFakeRedis()
		s := oneshot.NewRedisStore[envelope](rdb, "zkbridge:mailbox:", 10*time.Minute)

		want := envelope{IdentityToken: "h.p.s", Salt: "00ff"}
		require.NoError(t, s.Put(ctx, "s1", want))
		assert.Contains(t, rdb.data, "zkbridge:mailbox:s1")
		assert.Equal(t, 10*time.Minute, rdb.ttls["zkbridge:mailbox:s1"])

		got, err := s.Take(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, want, got)

		_, err = s.Take(ctx, "s1")
		assert.ErrorIs(t, err, oneshot.ErrNotFound)
	})

	t.Run("get leaves the value in place", func(t *testing.T) {
		t.Parallel()

		rdb := newFakeRedis()
		s := oneshot.NewRedisStore[string](rdb, "flow:", time.Minute)

		_, err := s.Get(ctx, "s1")
		assert.ErrorIs(t, err, oneshot.ErrNotFound)

		require.NoError(t, s.Put(ctx, "s1", "STARTED"))
		for range 2 {
			v, err := s.Get(ctx, "s1")
			require.NoError(t, err)
			assert.Equal(t, "STARTED", v)
		}
		assert.Contains(t, rdb.data, "flow:s1")
	})

	t.Run("backend failure is not reported as not found", func(t *testing.T) {
		t.Parallel()

		rdb := newFakeRedis()
		rdb.failErr = errors.New("connection refused")
		s := oneshot.NewRedisStore[string](rdb, "", time.Minute)

		err := s.Put(ctx, "s1", "n1")
		require.Error(t, err)

		_, err = s.Take(ctx, "s1")
		require.Error(t, err)
		assert.NotErrorIs(t, err, oneshot.ErrNotFound)
	})

	t.Run("corrupt value surfaces decode error", func(t *testing.T) {
		t.Parallel()

		rdb := newFakeRedis()
		rdb.data["s1"] = "{not json"
		s := oneshot.NewRedisStore[envelope](rdb, "", time.Minute)

		_, err := s.Take(ctx, "s1")
		require.Error(t, err)
		assert.NotErrorIs(t, err, oneshot.ErrNotFound)
	})
}
