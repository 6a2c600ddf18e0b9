package zarr

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// https://zarr.readthedocs.io/en/stable/spec/v2.html#metadata
const zarrDocsExample = `{
  "chunks": [
    1000,
    1000
  ],
	"compressor": {
			"id": "blosc",
			"cname": "lz4",
			"clevel": 5,
			"shuffle": 1
	},
	"dtype": "<f8",
	"fill_value": "NaN",
	"filters": [
			{"id": "delta", "dtype": "<f8", "astype": "<f4"}
	],
	"order": "C",
	"shape": [
			10000,
			10000
	],
	"zarr_format": 2
}`

func TestMetadataSerialization(t *testing.T) {
	m := &ArrayMeta{}
	require.NoError(t, json.Unmarshal([]byte(zarrDocsExample), m))

	assert.Equal(t, []int{10000, 10000}, m.Shape)
	assert.Equal(t, []int{1000, 1000}, m.Chunks)
	assert.Equal(t, "float64", m.Dtype.Human())
	assert.Equal(t, "blosc/lz4", m.Compressor.String())
	assert.Equal(t, FillValueNaN, m.FillValue)
	require.Len(t, m.Filters, 1)
	assert.Equal(t, Filter{ID: "delta", Dtype: "<f8", AsType: "<f4"}, m.Filters[0])
}

const consolidatedExample = `{
    "metadata": {
        ".zgroup": {"zarr_format": 2},
        ".zattrs": {"title": "example"},
        "temp/.zarray": {
            "chunks": [10], "compressor": null, "dtype": "<i4", "fill_value": 0,
            "filters": null, "order": "C", "shape": [100], "zarr_format": 2
        },
        "temp/.zattrs": {"units": "K"},
        "grp/.zgroup": {"zarr_format": 2}
    },
    "zarr_consolidated_format": 1
}`

func TestConsolidatedMetadata(t *testing.T) {
	cm, err := ReadConsolidated(strings.NewReader(consolidatedExample))
	require.NoError(t, err)
	assert.Equal(t, ConsolidatedFormat, cm.ConsolidatedFormat)
	assert.Equal(t, []string{".zgroup", ".zattrs", "temp/.zarray", "temp/.zattrs", "grp/.zgroup"}, keys(t, cm))

	arr, err := cm.Array("temp")
	require.NoError(t, err)
	assert.Equal(t, []int{100}, arr.Shape)
	assert.Equal(t, "int32", arr.Dtype.Human())
	assert.Nil(t, arr.Compressor)
	assert.Equal(t, "none", arr.Compressor.String())

	grp, err := cm.Group("/grp/")
	require.NoError(t, err)
	assert.Equal(t, 2, grp.ZarrFormat)

	root, err := cm.Group("")
	require.NoError(t, err)
	assert.Equal(t, 2, root.ZarrFormat)

	attrs, err := cm.Attributes("temp")
	require.NoError(t, err)
	assert.Equal(t, Attributes{"units": "K"}, attrs)

	attrs, err = cm.Attributes("grp")
	require.NoError(t, err)
	assert.Empty(t, attrs)

	_, err = cm.Array("grp")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestConsolidatedMetadataInvalid(t *testing.T) {
	_, err := ReadConsolidated(strings.NewReader(`{"zarr_consolidated_format": 2, "metadata": {}}`))
	assert.True(t, IsCode(err, ErrUnsupportedFormat), "got %v", err)

	_, err = ReadConsolidated(strings.NewReader(`{"zarr_consolidated_format": 1, "metadata": {"a/.zfoo": {}}}`))
	assert.Error(t, err)

	_, err = ReadConsolidated(strings.NewReader(`not json`))
	assert.Error(t, err)
}

func TestKeyMetaType(t *testing.T) {
	mt, ok := KeyMetaType("a/b/.zarray")
	assert.True(t, ok)
	assert.Equal(t, MTArray, mt)

	mt, ok = KeyMetaType(".zattrs")
	assert.True(t, ok)
	assert.Equal(t, MTAttributes, mt)

	_, ok = KeyMetaType("a/0.0")
	assert.False(t, ok)

	assert.Equal(t, "", KeyNodePath(".zgroup"))
	assert.Equal(t, "a/b", KeyNodePath("a/b/.zarray"))
}
