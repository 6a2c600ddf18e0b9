package zarr

import (
	"fmt"
	"sync"
)

// KeyCodec maps hierarchical keys to the tokens an Aggregate stores them
// under, and back. Decode(Encode(k)) == k for every key encoded in a run.
type KeyCodec interface {
	Encode(key string) (string, error)
	Decode(token string) (string, error)
}

// IdentityCodec stores keys verbatim. It is the default.
type IdentityCodec struct{}

var _ KeyCodec = IdentityCodec{}

func (IdentityCodec) Encode(key string) (string, error)   { return key, nil }
func (IdentityCodec) Decode(token string) (string, error) { return token, nil }

// MaxIdentifierLength is the longest token IdentifierCodec produces.
const MaxIdentifierLength = 63

// IdentifierCodec reproduces the key shape of consolidators whose
// intermediate containers only accept short identifiers: characters outside
// [A-Za-z0-9_] become "_", a leading non-letter becomes "x", and tokens keep
// only their last MaxIdentifierLength characters. The true key is restored
// from a lookup table on Decode.
//
// An IdentifierCodec remembers every key it encoded, so use a fresh one per
// consolidation run.
type IdentifierCodec struct {
	lk     sync.Mutex
	tokens map[string]string
}

var _ KeyCodec = (*IdentifierCodec)(nil)

func NewIdentifierCodec() *IdentifierCodec {
	return &IdentifierCodec{tokens: map[string]string{}}
}

// Identifier returns the sanitized token for key without recording it.
func Identifier(key string) string {
	b := []byte(key)
	for i, c := range b {
		if !isIdentChar(c) {
			b[i] = '_'
		}
	}
	if len(b) > MaxIdentifierLength {
		b = b[len(b)-MaxIdentifierLength:]
	}
	if len(b) == 0 {
		return "x"
	}
	if !isLetter(b[0]) {
		b[0] = 'x'
	}
	return string(b)
}

// Encode fails with ErrDuplicateKey when a different key already claimed the
// same token, e.g. two long paths sharing their last 63 characters.
func (c *IdentifierCodec) Encode(key string) (string, error) {
	tok := Identifier(key)

	c.lk.Lock()
	defer c.lk.Unlock()
	if prev, ok := c.tokens[tok]; ok && prev != key {
		return "", newError(ErrDuplicateKey, key, fmt.Errorf("identifier %q already holds %q", tok, prev))
	}
	c.tokens[tok] = key
	return tok, nil
}

func (c *IdentifierCodec) Decode(token string) (string, error) {
	c.lk.Lock()
	defer c.lk.Unlock()
	key, ok := c.tokens[token]
	if !ok {
		return "", fmt.Errorf("unknown identifier %q", token)
	}
	return key, nil
}

func isLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isLetter(c) || ('0' <= c && c <= '9') || c == '_'
}
