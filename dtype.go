package zarr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Dtype is the data type of an array as recorded in .zarray. Simple types
// are NumPy typestrs such as "<i4" or "<M8[ns]": a byte order, a kind code
// and an item size, optionally followed by datetime units. Structured types
// are lists of fields and are kept verbatim in Fields.
type Dtype struct {
	Order byte
	Kind  byte
	Size  int
	Units string

	Fields json.RawMessage
}

var (
	_ json.Unmarshaler = (*Dtype)(nil)
	_ json.Marshaler   = Dtype{}
)

var dtypeKinds = map[byte]string{
	'b': "bool",
	'i': "int",
	'u': "uint",
	'f': "float",
	'c': "complex",
	'm': "timedelta",
	'M': "datetime",
	'S': "byte",
	'U': "rune",
	'V': "void",
}

// ParseDtype parses a typestr. Escaped angle brackets, as written by some
// older zarr-python releases, are accepted.
func ParseDtype(s string) (Dtype, error) {
	var dt Dtype
	s = strings.NewReplacer("&lt;", "<", "&gt;", ">").Replace(s)
	if len(s) < 3 {
		return dt, fmt.Errorf("invalid dtype %q: too short", s)
	}

	dt.Order, dt.Kind = s[0], s[1]
	if !strings.ContainsRune("<>|", rune(dt.Order)) {
		return dt, fmt.Errorf("invalid dtype %q: unsupported byte order %q", s, dt.Order)
	}
	if _, ok := dtypeKinds[dt.Kind]; !ok {
		return dt, fmt.Errorf("invalid dtype %q: unsupported kind %q", s, dt.Kind)
	}

	size := s[2:]
	if i := strings.IndexByte(size, '['); i >= 0 {
		size, dt.Units = size[:i], size[i:]
		if !strings.HasSuffix(dt.Units, "]") {
			return dt, fmt.Errorf("invalid dtype %q: unterminated units", s)
		}
	}
	n, err := strconv.Atoi(size)
	if err != nil || n < 0 {
		return dt, fmt.Errorf("invalid dtype %q: bad item size", s)
	}
	dt.Size = n
	return dt, nil
}

// IsStructured reports whether dt is a list of fields rather than a typestr.
func (dt Dtype) IsStructured() bool {
	return dt.Fields != nil
}

func (dt Dtype) String() string {
	if dt.IsStructured() {
		return string(dt.Fields)
	}
	return fmt.Sprintf("%c%c%d%s", dt.Order, dt.Kind, dt.Size, dt.Units)
}

// Human names dt the way a Go declaration would, e.g. "int32" for "<i4" and
// "[12]byte" for "|S12". Structured types are reported as "struct".
func (dt Dtype) Human() string {
	if dt.IsStructured() {
		return "struct"
	}
	name := dtypeKinds[dt.Kind]
	switch dt.Kind {
	case 'b':
		return name
	case 'i', 'u', 'f', 'c':
		return name + strconv.Itoa(dt.Size*8)
	case 'm', 'M':
		return name + dt.Units
	}
	return fmt.Sprintf("[%d]%s", dt.Size, name)
}

func (dt Dtype) MarshalJSON() ([]byte, error) {
	if dt.IsStructured() {
		return dt.Fields, nil
	}
	return json.Marshal(dt.String())
}

func (dt *Dtype) UnmarshalJSON(d []byte) error {
	d = bytes.TrimSpace(d)
	if len(d) > 0 && d[0] == '[' {
		var fields []json.RawMessage
		if err := json.Unmarshal(d, &fields); err != nil {
			return err
		}
		if len(fields) == 0 {
			return fmt.Errorf("invalid structured dtype: no fields")
		}
		*dt = Dtype{Fields: append(json.RawMessage(nil), d...)}
		return nil
	}

	var s string
	if err := json.Unmarshal(d, &s); err != nil {
		return err
	}
	t, err := ParseDtype(s)
	if err != nil {
		return err
	}
	*dt = t
	return nil
}
