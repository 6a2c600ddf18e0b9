package zarr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityCodec(t *testing.T) {
	key := "sub/gr oup/ärray/.zarray"
	tok, err := IdentityCodec{}.Encode(key)
	require.NoError(t, err)
	assert.Equal(t, key, tok)
	got, err := IdentityCodec{}.Decode(tok)
	require.NoError(t, err)
	assert.Equal(t, key, got)
}

func TestIdentifier(t *testing.T) {
	assert.Equal(t, "xzgroup", Identifier(".zgroup"))
	assert.Equal(t, "g1_a1__zarray", Identifier("g1/a1/.zarray"))
	assert.Equal(t, "x_b__zattrs", Identifier("1_b/.zattrs"))

	long := strings.Repeat("a", 70) + "/.zarray"
	tok := Identifier(long)
	assert.Len(t, tok, MaxIdentifierLength)
	assert.True(t, strings.HasSuffix(tok, "a__zarray"))
}

func TestIdentifierCodecRoundTrip(t *testing.T) {
	c := NewIdentifierCodec()
	keys := []string{".zgroup", ".zattrs", "g1/.zgroup", "g1/a1/.zarray", strings.Repeat("deep/", 20) + ".zarray"}
	for _, key := range keys {
		tok, err := c.Encode(key)
		require.NoError(t, err)
		got, err := c.Decode(tok)
		require.NoError(t, err)
		assert.Equal(t, key, got)
	}

	// encoding the same key twice is stable
	a, err := c.Encode("g1/.zgroup")
	require.NoError(t, err)
	b, err := c.Encode("g1/.zgroup")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestIdentifierCodecCollision(t *testing.T) {
	c := NewIdentifierCodec()
	suffix := "/" + strings.Repeat("x", 70) + "/.zarray"
	_, err := c.Encode("one" + suffix)
	require.NoError(t, err)

	_, err = c.Encode("two" + suffix)
	assert.True(t, IsCode(err, ErrDuplicateKey), "got %v", err)

	_, err = c.Decode("never_encoded")
	assert.Error(t, err)
}
