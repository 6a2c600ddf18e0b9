// Package zarr consolidates the metadata of a Zarr v2 hierarchy into a single
// .zmetadata document, so clients can learn the layout of a whole store with
// one read instead of one read per node.
package zarr

import (
	"fmt"
	"strings"
)

const (
	// Version is the current version of this library.
	Version = "0.1.0"
)

// Arrays can be organized into groups which can also contain other groups.
// A group is created by storing group metadata under the “.zgroup” key under
// some logical path. E.g., a group exists at the root of an array store if the
// “.zgroup” key exists in the store, and a group exists at logical path
// “foo/bar” if the “foo/bar/.zgroup” key exists in the store.
type Group struct {
	ZarrFormat int `json:"zarr_format"`
}

// Path is a logical path into a store, one element per hierarchy level. The
// root of a store is the empty Path.
type Path []string

// NewPath parses a posix-style logical path. To ensure consistent behaviour
// across different storage systems, logical paths are normalized as follows:
//   - backward slash characters ("\") become forward slash characters ("/")
//   - leading and trailing "/" characters are stripped
//   - any sequence of more than one "/" collapses into a single "/"
//
// Paths with "." or ".." elements are rejected.
func NewPath(posix string) (Path, error) {
	posix = strings.ReplaceAll(posix, `\`, "/")
	var p Path
	for _, el := range strings.Split(posix, "/") {
		switch el {
		case "":
			continue
		case ".", "..":
			return nil, fmt.Errorf("invalid path %q: relative element %q", posix, el)
		}
		p = append(p, el)
	}
	return p, nil
}

func (p Path) String() string {
	return strings.Join(p, "/")
}

// Join returns a new Path with elems appended. p is never modified.
func (p Path) Join(elems ...string) Path {
	j := make(Path, 0, len(p)+len(elems))
	j = append(j, p...)
	return append(j, elems...)
}

// Key returns the hierarchical key of the mt document belonging to the node
// at p, e.g. "sub/group/array/.zarray". Root documents use the bare name.
func (p Path) Key(mt MetaType) string {
	return p.Join(string(mt)).String()
}
