package zarr

import (
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreList(t *testing.T) {
	s := NewMemoryStore()
	for _, key := range []string{".zgroup", "b/.zgroup", "b/c/.zarray", "a/.zarray", "a/0.0"} {
		require.NoError(t, s.Put(key, strings.NewReader("{}")))
	}

	children, err := s.List("")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, children)

	children, err = s.List("b")
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, children)

	children, err = s.List("a")
	require.NoError(t, err)
	assert.Empty(t, children)

	_, err = s.List("missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryStoreGet(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Put("a/.zattrs", strings.NewReader(`{"a":1}`)))

	ok, err := s.Has("a/.zattrs")
	require.NoError(t, err)
	assert.True(t, ok)

	f, err := s.Get("a/.zattrs")
	require.NoError(t, err)
	d, err := ioutil.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(d))

	_, err = s.Get("b/.zattrs")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLocalStore(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(dir)
	require.NoError(t, err)
	assert.Equal(t, LocalStoreType, s.Type())

	require.NoError(t, s.Put("g/.zgroup", strings.NewReader(`{"zarr_format":2}`)))
	require.NoError(t, s.Put(".zmetadata", strings.NewReader("first")))
	require.NoError(t, s.Put(".zmetadata", strings.NewReader("second")))

	ok, err := s.Has("g/.zgroup")
	require.NoError(t, err)
	assert.True(t, ok)

	// directories are not documents
	ok, err = s.Has("g")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.Has("nope/.zarray")
	require.NoError(t, err)
	assert.False(t, ok)

	children, err := s.List("")
	require.NoError(t, err)
	assert.Equal(t, []string{"g"}, children)

	d, err := ioutil.ReadFile(filepath.Join(dir, ".zmetadata"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(d))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "temporary files must not be left behind")

	_, err = s.Get("missing/.zarray")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = s.List("missing")
	assert.Error(t, err)
}

func TestLocalStoreListFollowsSymlinks(t *testing.T) {
	dir, outside := t.TempDir(), t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "real"), 0755))
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "file"), []byte("x"), 0644))
	if err := os.Symlink(outside, filepath.Join(dir, "linked")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	require.NoError(t, os.Symlink(filepath.Join(dir, "file"), filepath.Join(dir, "filelink")))
	require.NoError(t, os.Symlink(filepath.Join(dir, "missing"), filepath.Join(dir, "dangling")))

	s, err := NewLocalStore(dir)
	require.NoError(t, err)
	children, err := s.List("")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"linked", "real"}, children)
}
