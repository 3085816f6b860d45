package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeFactories returns every Store implementation, each backed by a fresh
// instance, so behavior is checked identically across backends.
func storeFactories(t *testing.T) map[string]func() Store {
	return map[string]func() Store{
		"memory": func() Store { return NewMemory() },
		"sqlite": func() Store {
			s, err := OpenSQLite(filepath.Join(t.TempDir(), "profiles.db"))
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		},
		"redis": func() Store {
			mr := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			s := NewRedis(client, time.Hour)
			t.Cleanup(func() { s.Close() })
			return s
		},
	}
}

func TestStore_GetPutDelete(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore()
			ctx := context.Background()

			_, err := s.Get(ctx, "p1", "k")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Put(ctx, "p1", "k", []byte("v1")))
			require.NoError(t, s.Put(ctx, "p1", "k", []byte("v2")))

			got, err := s.Get(ctx, "p1", "k")
			require.NoError(t, err)
			assert.Equal(t, "v2", string(got))

			// Profiles are isolated
			_, err = s.Get(ctx, "p2", "k")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Delete(ctx, "p1", "k", "missing"))
			_, err = s.Get(ctx, "p1", "k")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Delete(ctx, "p1"))
		})
	}
}

func TestRedis_TTLRefreshedOnWrite(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedis(client, 30*time.Minute)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "p1", KeyAuthToken, []byte("tok")))

	assert.Equal(t, 30*time.Minute, mr.TTL(profileKey("p1")))

	mr.FastForward(31 * time.Minute)
	_, err := s.Get(ctx, "p1", KeyAuthToken)
	assert.ErrorIs(t, err, ErrNotFound)
}
