package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_SaveAndDelete(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(root)
	require.NoError(t, err)
	ctx := context.Background()

	p, err := store.Save(ctx, "posts", "Holiday.JPG", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p, "/uploads/posts/"))
	assert.True(t, strings.HasSuffix(p, ".jpg"))

	onDisk := filepath.Join(root, "posts", filepath.Base(p))
	data, err := os.ReadFile(onDisk)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))

	require.NoError(t, store.Delete(ctx, p))
	_, err = os.Stat(onDisk)
	assert.True(t, os.IsNotExist(err))

	// idempotent
	assert.NoError(t, store.Delete(ctx, p))
}

func TestLocalStore_RejectsTraversal(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Save(ctx, "../etc", "x.png", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrInvalidPath)

	assert.ErrorIs(t, store.Delete(ctx, "/uploads/../secret"), ErrInvalidPath)
	assert.ErrorIs(t, store.Delete(ctx, "/elsewhere/file.png"), ErrInvalidPath)
}

func TestLocalStore_UniqueNames(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	a, err := store.Save(ctx, "posts", "same.png", strings.NewReader("a"))
	require.NoError(t, err)
	b, err := store.Save(ctx, "posts", "same.png", strings.NewReader("b"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
