package zarr

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newStore returns a MemoryStore holding docs.
func newStore(t *testing.T, docs map[string]string) *MemoryStore {
	t.Helper()
	s := NewMemoryStore()
	for key, doc := range docs {
		require.NoError(t, s.Put(key, strings.NewReader(doc)))
	}
	return s
}

// vanishingStore reports keys as present that can no longer be read.
type vanishingStore struct {
	*MemoryStore
	gone map[string]bool
}

func (s *vanishingStore) Get(key string) (io.ReadCloser, error) {
	if s.gone[key] {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return s.MemoryStore.Get(key)
}

func TestReadNode(t *testing.T) {
	s := newStore(t, map[string]string{
		"arr/.zarray":  `{"shape": [10]}`,
		"arr/.zattrs":  `{"units":"m"}`,
		"grp/.zgroup":  `{"zarr_format":2}`,
		"grp/.zattrs":  "{ }\n",
		"both/.zarray": `{}`,
		"both/.zgroup": `{}`,
		"plain/x/0.0":  "chunk",
	})

	n, err := ReadNode(s, Path{"arr"})
	require.NoError(t, err)
	assert.Equal(t, NodeArray, n.Kind)
	assert.Equal(t, `{"shape":[10]}`, string(n.Core))
	assert.Equal(t, `{"units":"m"}`, string(n.Attrs))

	n, err = ReadNode(s, Path{"grp"})
	require.NoError(t, err)
	assert.Equal(t, NodeGroup, n.Kind)
	assert.Nil(t, n.Attrs, "empty attributes are treated as absent")

	n, err = ReadNode(s, Path{"both"})
	require.NoError(t, err)
	assert.Equal(t, NodeArray, n.Kind)

	n, err = ReadNode(s, Path{"plain"})
	require.NoError(t, err)
	assert.Equal(t, NodeNeither, n.Kind)
	assert.Nil(t, n.Core)
}

func TestReadNodeErrors(t *testing.T) {
	s := newStore(t, map[string]string{
		"bad/.zarray":      `{"shape": [10]`,
		"badattrs/.zgroup": `{}`,
		"badattrs/.zattrs": `not json`,
		"gone/.zgroup":     `{}`,
		"gone2/.zgroup":    `{}`,
		"gone2/.zattrs":    `{"a":1}`,
	})
	vs := &vanishingStore{MemoryStore: s, gone: map[string]bool{
		"gone/.zgroup":  true,
		"gone2/.zattrs": true,
	}}

	_, err := ReadNode(vs, Path{"bad"})
	assert.True(t, IsCode(err, ErrMalformedDocument), "got %v", err)

	_, err = ReadNode(vs, Path{"badattrs"})
	assert.True(t, IsCode(err, ErrMalformedDocument), "got %v", err)

	_, err = ReadNode(vs, Path{"gone"})
	assert.True(t, IsCode(err, ErrMissingCoreDocument), "got %v", err)
	assert.Equal(t, ErrMissingCoreDocument, CodeOf(err))

	// attributes vanishing between probe and read are simply absent
	n, err := ReadNode(vs, Path{"gone2"})
	require.NoError(t, err)
	assert.Nil(t, n.Attrs)
}

func TestNodeKind(t *testing.T) {
	assert.Equal(t, "array", NodeArray.String())
	assert.Equal(t, MTGroup, NodeGroup.MetaType())
	assert.Equal(t, MetaType(""), NodeNeither.MetaType())
}
