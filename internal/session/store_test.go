package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s TokenStore) {
	t.Helper()
	ctx := context.Background()

	tok, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)

	require.NoError(t, s.Set(ctx, "abc.def.ghi"))
	tok, err = s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", tok)

	require.NoError(t, s.Clear(ctx))
	tok, err = s.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)
	require.NoError(t, s.Clear(ctx))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.yaml")
	exerciseStore(t, NewFileStore(path))
}

func TestFileStorePermissionsAndOtherKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_url: http://example\n"), 0o600))

	s := NewFileStore(path)
	require.NoError(t, s.Set(context.Background(), "tok"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "api_url: http://example")
	assert.Contains(t, string(data), "token: tok")

	require.NoError(t, s.Clear(context.Background()))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "api_url")
	assert.NotContains(t, string(data), "token")
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	require.NoError(t, os.WriteFile(path, []byte("token: [unterminated"), 0o600))

	_, err := NewFileStore(path).Get(context.Background())
	assert.Error(t, err)
}

func TestRedisStore(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewRedisStore(db, "", time.Hour)
	ctx := context.Background()
	key := DefaultRedisPrefix + TokenKey

	mock.ExpectGet(key).RedisNil()
	mock.ExpectSet(key, "tok", time.Hour).SetVal("OK")
	mock.ExpectGet(key).SetVal("tok")
	mock.ExpectDel(key).SetVal(1)

	tok, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)

	require.NoError(t, s.Set(ctx, "tok"))

	tok, err = s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok", tok)

	require.NoError(t, s.Clear(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStoreErrors(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewRedisStore(db, "cli:", 0)

	mock.ExpectGet("cli:token").SetErr(errors.New("connection refused"))
	_, err := s.Get(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")

	mock.ExpectSet("cli:token", "tok", 0).SetErr(errors.New("READONLY"))
	assert.Error(t, s.Set(context.Background(), "tok"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
