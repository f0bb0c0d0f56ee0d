package images

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_SaveCreatesDirAndOpens(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "generated_images")
	store := NewFileStore(dir)

	url, err := store.Save("1_1.png", []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, "/images/1_1.png", url)

	_, err = os.Stat(filepath.Join(dir, "1_1.png"))
	require.NoError(t, err)

	data, err := store.Open(url)
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), data)

	data, err = store.Open("1_1.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), data)
}

func TestFileStore_NotFoundAndTraversal(t *testing.T) {
	store := NewFileStore(t.TempDir())

	_, err := store.Open("/images/missing.png")
	require.ErrorIs(t, err, ErrImageNotFound)

	_, err = store.Open("/images/../secret")
	require.ErrorIs(t, err, ErrImageNotFound)

	_, err = store.Save("../escape.png", []byte("x"))
	require.ErrorIs(t, err, ErrInvalidName)
}

func TestFileStore_Remove(t *testing.T) {
	store := NewFileStore(t.TempDir())
	_, err := store.Save("a.png", []byte("x"))
	require.NoError(t, err)
	require.NoError(t, store.Remove("a.png"))
	require.NoError(t, store.Remove("a.png"))

	_, err = store.Open("a.png")
	require.ErrorIs(t, err, ErrImageNotFound)
}
