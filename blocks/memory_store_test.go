package blocks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_PutGet(t *testing.T) {
	t.Run("Should round-trip records with a stable etag", func(t *testing.T) {
		ctx := t.Context()
		st := NewMemoryStore()
		key := Key{Slug: "postgres-credentials", Name: "prod"}
		rec := Record{"host": "db.internal", "port": "5432"}

		etag, err := st.Put(ctx, key, rec)
		require.NoError(t, err)
		require.NotEmpty(t, etag)

		got, gotTag, err := st.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, rec, got)
		assert.Equal(t, etag, gotTag)
	})

	t.Run("Should return deep copies from Get", func(t *testing.T) {
		ctx := t.Context()
		st := NewMemoryStore()
		key := Key{Slug: "postgres", Name: "sample"}
		_, err := st.Put(ctx, key, Record{"value": "original"})
		require.NoError(t, err)

		got, _, err := st.Get(ctx, key)
		require.NoError(t, err)
		got["value"] = "mutated"

		again, _, err := st.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "original", again["value"])
	})

	t.Run("Should not alias the record passed to Put", func(t *testing.T) {
		ctx := t.Context()
		st := NewMemoryStore()
		key := Key{Slug: "postgres", Name: "sample"}
		rec := Record{"value": "original"}
		_, err := st.Put(ctx, key, rec)
		require.NoError(t, err)

		rec["value"] = "mutated"
		got, _, err := st.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "original", got["value"])
	})

	t.Run("Should return ErrNotFound for missing keys", func(t *testing.T) {
		st := NewMemoryStore()
		_, _, err := st.Get(t.Context(), Key{Slug: "postgres", Name: "missing"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Should reject nil records", func(t *testing.T) {
		st := NewMemoryStore()
		_, err := st.Put(t.Context(), Key{Slug: "postgres", Name: "n"}, nil)
		assert.Error(t, err)
	})
}

func TestMemoryStore_DeleteList(t *testing.T) {
	t.Run("Should delete idempotently", func(t *testing.T) {
		ctx := t.Context()
		st := NewMemoryStore()
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
		st := NewMemoryStore()
		_, err := st.Put(ctx, Key{Slug: "postgres-credentials", Name: "a"}, Record{"host": "h"})
		require.NoError(t, err)
		_, err = st.Put(ctx, Key{Slug: "postgres-credentials", Name: "b"}, Record{"host": "h"})
		require.NoError(t, err)
		_, err = st.Put(ctx, Key{Slug: "postgres", Name: "c"}, Record{"value": "v"})
		require.NoError(t, err)

		keys, err := st.List(ctx, "postgres-credentials")
		require.NoError(t, err)
		assert.Len(t, keys, 2)
	})
}

func TestMemoryStore_ContextAndCloseErrors(t *testing.T) {
	t.Run("Should error on context canceled", func(t *testing.T) {
		st := NewMemoryStore()
		cctx, cancel := context.WithCancel(t.Context())
		cancel()
		_, err := st.List(cctx, "postgres")
		require.Error(t, err)
	})

	t.Run("Should error after store Close", func(t *testing.T) {
		ctx := t.Context()
		st := NewMemoryStore()
		require.NoError(t, st.Close())
		_, err := st.Put(ctx, Key{Slug: "postgres", Name: "a"}, Record{"value": "v"})
		require.Error(t, err)
		_, _, err = st.Get(ctx, Key{Slug: "postgres", Name: "a"})
		require.Error(t, err)
		require.Error(t, st.Delete(ctx, Key{Slug: "postgres", Name: "a"}))
		_, err = st.List(ctx, "postgres")
		require.Error(t, err)
	})
}
