package blocks

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T, opts ...RedisStoreOption) *RedisStore {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, opts...)
}

func TestRedisStore_PutGet(t *testing.T) {
	t.Run("Should round-trip records with a stable etag", func(t *testing.T) {
		ctx := t.Context()
		st := newTestRedisStore(t)
		key := Key{Slug: "postgres-credentials", Name: "prod"}
		rec := Record{"host": "db.internal", "port": "5432", "connect_args": map[string]any{"sslmode": "require"}}

		etag, err := st.Put(ctx, key, rec)
		require.NoError(t, err)
		require.NotEmpty(t, etag)

		got, gotTag, err := st.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, rec, got)
		assert.Equal(t, etag, gotTag)
	})

	t.Run("Should return ErrNotFound for missing keys", func(t *testing.T) {
		st := newTestRedisStore(t)
		_, _, err := st.Get(t.Context(), Key{Slug: "postgres", Name: "missing"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Should reject nil records", func(t *testing.T) {
		st := newTestRedisStore(t)
		_, err := st.Put(t.Context(), Key{Slug: "postgres", Name: "n"}, nil)
		assert.Error(t, err)
	})
}

func TestRedisStore_DeleteList(t *testing.T) {
	t.Run("Should delete idempotently", func(t *testing.T) {
		ctx := t.Context()
		st := newTestRedisStore(t)
		key := Key{Slug: "postgres", Name: "sample"}
		_, err := st.Put(ctx, key, Record{"value": "v"})
		require.NoError(t, err)

		require.NoError(t, st.Delete(ctx, key))
		_, _, err = st.Get(ctx, key)
		assert.ErrorIs(t, err, ErrNotFound)
		require.NoError(t, st.Delete(ctx, key))
	})

	t.Run("Should list only keys of the requested slug", func(t *testing.T) {
		ctx := t.Context()
		st := newTestRedisStore(t)
		_, err := st.Put(ctx, Key{Slug: "postgres-credentials", Name: "a"}, Record{"host": "h"})
		require.NoError(t, err)
		_, err = st.Put(ctx, Key{Slug: "postgres-credentials", Name: "b"}, Record{"host": "h"})
		require.NoError(t, err)
		_, err = st.Put(ctx, Key{Slug: "postgres", Name: "c"}, Record{"value": "v"})
		require.NoError(t, err)

		keys, err := st.List(ctx, "postgres-credentials")
		require.NoError(t, err)
		require.Len(t, keys, 2)
		for _, k := range keys {
			assert.Equal(t, "postgres-credentials", k.Slug)
		}
	})

	t.Run("Should honor a custom key prefix", func(t *testing.T) {
		ctx := t.Context()
		st := newTestRedisStore(t, WithPrefix("cpz"))
		_, err := st.Put(ctx, Key{Slug: "postgres", Name: "a"}, Record{"value": "v"})
		require.NoError(t, err)

		keys, err := st.List(ctx, "postgres")
		require.NoError(t, err)
		require.Len(t, keys, 1)
		assert.Equal(t, Key{Slug: "postgres", Name: "a"}, keys[0])
	})
}

func TestRedisStore_Close(t *testing.T) {
	t.Run("Should error after store Close", func(t *testing.T) {
		ctx := t.Context()
		st := newTestRedisStore(t)
		require.NoError(t, st.Close())
		_, err := st.Put(ctx, Key{Slug: "postgres", Name: "a"}, Record{"value": "v"})
		require.Error(t, err)
		_, _, err = st.Get(ctx, Key{Slug: "postgres", Name: "a"})
		require.Error(t, err)
	})
}
