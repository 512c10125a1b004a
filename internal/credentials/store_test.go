package credentials

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, "test"), mr
}

func TestStoresRoundTrip(t *testing.T) {
	redisStore, _ := newRedisStore(t)
	fileStore, err := NewFileStore(filepath.Join(t.TempDir(), "nested", "credentials.json"))
	require.NoError(t, err)

	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"file":   fileStore,
		"redis":  redisStore,
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			empty, err := store.Read(ctx)
			require.NoError(t, err)
			assert.True(t, empty.Empty())

			require.NoError(t, store.Put(ctx, "t1", "r1"))
			got, err := store.Read(ctx)
			require.NoError(t, err)
			assert.Equal(t, Tokens{AccessToken: "t1", RefreshToken: "r1"}, got)

			require.NoError(t, store.Put(ctx, "t2", "r2"))
			got, err = store.Read(ctx)
			require.NoError(t, err)
			assert.Equal(t, Tokens{AccessToken: "t2", RefreshToken: "r2"}, got)

			require.NoError(t, store.Clear(ctx))
			got, err = store.Read(ctx)
			require.NoError(t, err)
			assert.Equal(t, Tokens{}, got)

			require.NoError(t, store.Clear(ctx), "clearing an empty store is not an error")
		})
	}
}

func TestRedisStoreKeys(t *testing.T) {
	store, mr := newRedisStore(t)
	require.NoError(t, store.Put(context.Background(), "access", "refresh"))

	access, err := mr.Get("test:token")
	require.NoError(t, err)
	assert.Equal(t, "access", access)
	refresh, err := mr.Get("test:refreshToken")
	require.NoError(t, err)
	assert.Equal(t, "refresh", refresh)
}

func TestRedisStoreUnavailable(t *testing.T) {
	store, mr := newRedisStore(t)
	mr.Close()

	err := store.Put(context.Background(), "a", "b")
	require.Error(t, err)
	_, err = store.Read(context.Background())
	require.Error(t, err)
}

func TestFileStorePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds", "credentials.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), "a", "b"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	dir, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), dir.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileStoreCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	store, err := NewFileStore(path)
	require.NoError(t, err)

	_, err = store.Read(context.Background())
	require.Error(t, err)
}

func TestOpen(t *testing.T) {
	store, err := Open(Options{Backend: BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	store, err = Open(Options{Backend: BackendFile, Path: filepath.Join(t.TempDir(), "c.json")})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)

	_, err = Open(Options{Backend: BackendRedis})
	require.Error(t, err)

	_, err = Open(Options{Backend: "etcd"})
	require.ErrorIs(t, err, ErrUnknownBackend)
}
