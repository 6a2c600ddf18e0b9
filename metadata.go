package zarr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"path"

	"github.com/pkg/errors"
)

type MetaType string

const (
	// MTAttributes stores userland metadata keyed by array name
	MTAttributes MetaType = ".zattrs"
	// MTArray is the key for storing metadata on an array store
	MTArray MetaType = ".zarray"
	// MTGroup is the key for storing group definitions on an array store
	MTGroup MetaType = ".zgroup"
	// MTMetadata is the key for composite metadata
	MTMetadata MetaType = ".zmetadata"
)

// ConsolidatedFormat is the only zarr_consolidated_format this package reads
// and writes.
const ConsolidatedFormat = 1

var metaTypes = map[MetaType]struct{}{
	MTAttributes: {},
	MTArray:      {},
	MTGroup:      {},
}

// KeyMetaType returns the document type named by the last element of a
// hierarchical key.
func KeyMetaType(s string) (mt MetaType, ok bool) {
	mt = MetaType(path.Base(s))
	_, ok = metaTypes[mt]
	return mt, ok
}

// KeyNodePath returns the node path a hierarchical key belongs to, "" for the
// root.
func KeyNodePath(s string) string {
	dir := path.Dir(s)
	if dir == "." {
		return ""
	}
	return dir
}

type Attributes map[string]interface{}

// ConsolidatedMetadata is the envelope stored under .zmetadata.
type ConsolidatedMetadata struct {
	ConsolidatedFormat int
	Metadata           *Aggregate
}

type consolidatedMetaDecoder struct {
	ConsolidatedFormat int             `json:"zarr_consolidated_format"`
	Metadata           json.RawMessage `json:"metadata"`
}

// MarshalJSON writes the envelope compactly with metadata keys in insertion
// order.
func (m *ConsolidatedMetadata) MarshalJSON() ([]byte, error) {
	md := m.Metadata
	if md == nil {
		md = &Aggregate{}
	}
	inner, err := md.MarshalJSON()
	if err != nil {
		return nil, err
	}
	buf := &bytes.Buffer{}
	fmt.Fprintf(buf, `{"zarr_consolidated_format":%d,"metadata":`, m.ConsolidatedFormat)
	buf.Write(inner)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Encode writes the envelope pretty-printed with four space indentation and
// a trailing newline.
func (m *ConsolidatedMetadata) Encode(w io.Writer) error {
	d, err := m.MarshalJSON()
	if err != nil {
		return err
	}
	buf := &bytes.Buffer{}
	if err := json.Indent(buf, d, "", "    "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err = buf.WriteTo(w)
	return err
}

func (m *ConsolidatedMetadata) UnmarshalJSON(d []byte) error {
	cd := consolidatedMetaDecoder{}
	if err := json.Unmarshal(d, &cd); err != nil {
		return err
	}
	if cd.ConsolidatedFormat != ConsolidatedFormat {
		return newError(ErrUnsupportedFormat, string(MTMetadata), fmt.Errorf("zarr_consolidated_format %d", cd.ConsolidatedFormat))
	}

	cm := ConsolidatedMetadata{
		ConsolidatedFormat: cd.ConsolidatedFormat,
		Metadata:           &Aggregate{},
	}
	if len(cd.Metadata) > 0 {
		if err := cm.Metadata.UnmarshalJSON(cd.Metadata); err != nil {
			return errors.Wrap(err, "reading consolidated metadata")
		}
	}
	if err := cm.Metadata.Range(func(key string, _ json.RawMessage) error {
		if _, ok := KeyMetaType(key); !ok {
			return fmt.Errorf("invalid consolidated metadata key: %q", key)
		}
		return nil
	}); err != nil {
		return err
	}

	*m = cm
	return nil
}

// ReadConsolidated decodes a consolidated metadata document from r.
func ReadConsolidated(r io.Reader) (*ConsolidatedMetadata, error) {
	d, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}
	cm := &ConsolidatedMetadata{}
	if err := cm.UnmarshalJSON(d); err != nil {
		return nil, err
	}
	return cm, nil
}

// OpenConsolidated reads the .zmetadata document at the root of store.
func OpenConsolidated(store Store) (*ConsolidatedMetadata, error) {
	f, err := store.Get(string(MTMetadata))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadConsolidated(f)
}

func (m *ConsolidatedMetadata) document(nodePath string, mt MetaType) (json.RawMessage, error) {
	p, err := NewPath(nodePath)
	if err != nil {
		return nil, err
	}
	key := p.Key(mt)
	if m.Metadata == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	doc, ok := m.Metadata.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return doc, nil
}

// Array returns the array metadata of the node at nodePath.
func (m *ConsolidatedMetadata) Array(nodePath string) (*ArrayMeta, error) {
	doc, err := m.document(nodePath, MTArray)
	if err != nil {
		return nil, err
	}
	arr := &ArrayMeta{}
	if err := json.Unmarshal(doc, arr); err != nil {
		return nil, fmt.Errorf("reading %q metadata: %w", nodePath, err)
	}
	return arr, nil
}

// Group returns the group metadata of the node at nodePath.
func (m *ConsolidatedMetadata) Group(nodePath string) (*Group, error) {
	doc, err := m.document(nodePath, MTGroup)
	if err != nil {
		return nil, err
	}
	grp := &Group{}
	if err := json.Unmarshal(doc, grp); err != nil {
		return nil, fmt.Errorf("reading %q group: %w", nodePath, err)
	}
	return grp, nil
}

// Attributes returns the attributes of the node at nodePath. A node without
// attributes yields an empty map.
func (m *ConsolidatedMetadata) Attributes(nodePath string) (Attributes, error) {
	doc, err := m.document(nodePath, MTAttributes)
	if errors.Is(err, ErrNotFound) {
		return Attributes{}, nil
	} else if err != nil {
		return nil, err
	}
	attr := Attributes{}
	if err := json.Unmarshal(doc, &attr); err != nil {
		return nil, fmt.Errorf("reading %q attributes: %w", nodePath, err)
	}
	return attr, nil
}

// Each array requires essential configuration metadata to be stored,
// enabling correct interpretation of the stored data.
// This metadata is encoded using JSON and stored as the value of the
// “.zarray” key within an array store.
type ArrayMeta struct {
	// An integer defining the version of the storage specification to which
	// the array store adheres.
	ZarrFormat int `json:"zarr_format"`
	// A list of integers defining the length of each dimension of the array.
	Shape []int `json:"shape"`
	// A list of integers defining the length of each dimension of a chunk of the
	// array. Note that all chunks within a Zarr array have the same shape.
	Chunks []int `json:"chunks"`
	// A string or list defining a valid data type for the array. See also the
	// subsection below on data type encoding.
	Dtype Dtype `json:"dtype"`
	// A JSON object identifying the primary compression codec and providing
	// configuration parameters, or null if no compressor is to be used. The
	// object MUST contain an "id" key identifying the codec to be used.
	Compressor *CompressionMeta `json:"compressor"`

	// A scalar value providing the default value to use for uninitialized
	// portions of the array, or null if no fill_value is to be used.
	// If an array has a fixed length byte string data type (e.g., "|S12"), or a
	// structured data type, and if the fill value is not null, then the fill
	// value MUST be encoded as an ASCII string using the standard Base64
	// alphabet.
	FillValue interface{} `json:"fill_value"`
	// Either “C” or “F”, defining the layout of bytes within each chunk of the
	// array. “C” means row-major order, i.e., the last dimension varies fastest;
	// “F” means column-major order, i.e., the first dimension varies fastest.
	Order string `json:"order"`
	// A list of JSON objects providing codec configurations, or null if no
	// filters are to be applied. Each codec configuration object MUST contain a
	// "id" key identifying the codec to be used.
	Filters []Filter `json:"filters"`

	// optional fields

	// If present, either the string "." or "/"" definining the separator placed
	// between the dimensions of a chunk. If the value is not set, then the
	// default MUST be assumed to be ".", leading to chunk keys of the form “0.0”.
	DimensionSeparator string `json:"dimension_separator,omitempty"`
}

type Filter struct {
	ID     string `json:"id"`
	Dtype  string `json:"dtype,omitempty"`
	AsType string `json:"astype,omitempty"`
}

const (
	// Not a Number
	FillValueNaN = "NaN"
	// Infinity
	FillValueInfinity = "Infinity"
	// -Infinity
	FillValueNegativeInfinity = "-Infinity"
)
