package zarr

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

// Aggregate is an insertion-ordered mapping from hierarchical key to metadata
// document. Documents are held as compact JSON and never modified once
// inserted. Keys are stored as codec tokens and decoded on the way out.
//
// The zero value is an empty Aggregate using IdentityCodec. An Aggregate is
// not safe for concurrent use.
type Aggregate struct {
	codec  KeyCodec
	tokens []string
	docs   map[string]json.RawMessage
}

func NewAggregate(codec KeyCodec) *Aggregate {
	return &Aggregate{codec: codec}
}

func (a *Aggregate) keyCodec() KeyCodec {
	if a.codec == nil {
		return IdentityCodec{}
	}
	return a.codec
}

// Len returns the number of documents.
func (a *Aggregate) Len() int { return len(a.tokens) }

// Insert adds doc under key. Inserting the same document twice is a no-op;
// inserting a different document under an existing key fails with
// ErrDuplicateKey.
func (a *Aggregate) Insert(key string, doc json.RawMessage) error {
	tok, err := a.keyCodec().Encode(key)
	if err != nil {
		return err
	}
	if prev, ok := a.docs[tok]; ok {
		if bytes.Equal(prev, doc) {
			return nil
		}
		return newError(ErrDuplicateKey, key, nil)
	}
	a.put(tok, doc)
	return nil
}

func (a *Aggregate) put(tok string, doc json.RawMessage) {
	if a.docs == nil {
		a.docs = map[string]json.RawMessage{}
	}
	if _, ok := a.docs[tok]; !ok {
		a.tokens = append(a.tokens, tok)
	}
	a.docs[tok] = doc
}

// Merge appends the entries of other in order. When a key is already present
// the incoming document wins and the key keeps its original position. Both
// aggregates must share a codec.
func (a *Aggregate) Merge(other *Aggregate) {
	if other == nil {
		return
	}
	for _, tok := range other.tokens {
		a.put(tok, other.docs[tok])
	}
}

// Get returns the document stored under key.
func (a *Aggregate) Get(key string) (json.RawMessage, bool) {
	tok, err := a.keyCodec().Encode(key)
	if err != nil {
		return nil, false
	}
	doc, ok := a.docs[tok]
	return doc, ok
}

// Keys returns the decoded keys in insertion order.
func (a *Aggregate) Keys() ([]string, error) {
	keys := make([]string, 0, len(a.tokens))
	err := a.Range(func(key string, _ json.RawMessage) error {
		keys = append(keys, key)
		return nil
	})
	return keys, err
}

// Range calls fn for every entry in insertion order, stopping at the first
// error.
func (a *Aggregate) Range(fn func(key string, doc json.RawMessage) error) error {
	codec := a.keyCodec()
	for _, tok := range a.tokens {
		key, err := codec.Decode(tok)
		if err != nil {
			return err
		}
		if err := fn(key, a.docs[tok]); err != nil {
			return err
		}
	}
	return nil
}

// MarshalJSON writes the entries as a JSON object in insertion order. Keys
// are the decoded hierarchical keys, never codec tokens. Call it directly
// rather than through json.Marshal to keep "<", ">" and "&" unescaped.
func (a *Aggregate) MarshalJSON() ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.WriteByte('{')
	i := 0
	err := a.Range(func(key string, doc json.RawMessage) error {
		if i > 0 {
			buf.WriteByte(',')
		}
		i++
		if err := writeJSONString(buf, key); err != nil {
			return err
		}
		buf.WriteByte(':')
		buf.Write(doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object, keeping the order its keys appear in.
func (a *Aggregate) UnmarshalJSON(d []byte) error {
	dec := json.NewDecoder(bytes.NewReader(d))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected a JSON object, got %v", tok)
	}

	agg := NewAggregate(a.codec)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected an object key, got %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return errors.Wrapf(err, "reading %q", key)
		}
		doc, err := compactDocument(key, raw)
		if err != nil {
			return err
		}
		if err := agg.Insert(key, doc); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*a = *agg
	return nil
}

func compactDocument(key string, data []byte) (json.RawMessage, error) {
	buf := &bytes.Buffer{}
	if err := json.Compact(buf, data); err != nil {
		return nil, newError(ErrMalformedDocument, key, err)
	}
	return buf.Bytes(), nil
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encode terminates every value with a newline
	buf.Truncate(buf.Len() - 1)
	return nil
}
