package filestore

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/helpdock/helpdock/internal/config"
)

type bufCloser struct {
	*bytes.Reader
}

func (bufCloser) Close() error { return nil }

func newLocal(t *testing.T) Store {
	t.Helper()
	store, err := New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": t.TempDir()},
	})
	require.NoError(t, err)
	return store
}

func TestLocalSaveOpenDelete(t *testing.T) {
	store := newLocal(t)
	ctx := context.Background()
	content := []byte("original upload bytes")

	require.NoError(t, store.Save(ctx, "abc123_policy.txt", bufCloser{bytes.NewReader(content)}, int64(len(content))))

	opened, err := store.Open(ctx, "abc123_policy.txt")
	require.NoError(t, err)
	defer opened.Close()
	read, err := io.ReadAll(opened)
	require.NoError(t, err)
	require.Equal(t, content, read)

	require.NoError(t, store.Delete(ctx, "abc123_policy.txt"))
	_, err = store.Open(ctx, "abc123_policy.txt")
	require.Error(t, err)
}

func TestLocalDeleteMissingIsNoError(t *testing.T) {
	store := newLocal(t)
	require.NoError(t, store.Delete(context.Background(), "never-saved.txt"))
}

func TestLocalRejectsPathTraversalKeys(t *testing.T) {
	store := newLocal(t)
	ctx := context.Background()
	for _, key := range []string{"", "../escape", "dir/inner"} {
		require.Error(t, store.Save(ctx, key, bufCloser{bytes.NewReader(nil)}, 0))
	}
}

func TestNewRejectsUnknownType(t *testing.T) {
	_, err := New(config.FileStoreConfig{Type: "ftp"})
	require.Error(t, err)
}
