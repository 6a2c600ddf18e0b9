package zarr

import (
	"encoding/json"
	"io/ioutil"

	"github.com/pkg/errors"
)

// NodeKind tells arrays, groups and plain directories apart.
type NodeKind int

const (
	NodeNeither NodeKind = iota
	NodeArray
	NodeGroup
)

func (k NodeKind) String() string {
	switch k {
	case NodeArray:
		return "array"
	case NodeGroup:
		return "group"
	default:
		return "neither"
	}
}

// MetaType returns the core document type of the kind, "" for NodeNeither.
func (k NodeKind) MetaType() MetaType {
	switch k {
	case NodeArray:
		return MTArray
	case NodeGroup:
		return MTGroup
	default:
		return ""
	}
}

// Node is the metadata of one directory of a hierarchy.
type Node struct {
	Path Path
	Kind NodeKind
	// Core is the .zarray or .zgroup document, nil for NodeNeither.
	Core json.RawMessage
	// Attrs is nil when the node has no attributes or they are empty.
	Attrs json.RawMessage
}

// ReadNode loads the metadata of the directory at p. The array document is
// probed before the group document.
func ReadNode(store Store, p Path) (*Node, error) {
	n := &Node{Path: p}
	for _, kind := range []NodeKind{NodeArray, NodeGroup} {
		ok, err := store.Has(p.Key(kind.MetaType()))
		if err != nil {
			return nil, errors.Wrapf(err, "probing %s", p.Key(kind.MetaType()))
		}
		if ok {
			n.Kind = kind
			break
		}
	}
	if n.Kind == NodeNeither {
		return n, nil
	}

	var err error
	if n.Core, err = readCoreDocument(store, p.Key(n.Kind.MetaType())); err != nil {
		return nil, err
	}
	if n.Attrs, err = readAttributes(store, p.Key(MTAttributes)); err != nil {
		return nil, err
	}
	return n, nil
}

// readDocument reads the JSON document at key as compact JSON. Store errors
// are returned unchanged.
func readDocument(store Store, key string) (json.RawMessage, error) {
	f, err := store.Get(key)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := ioutil.ReadAll(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", key)
	}
	return compactDocument(key, data)
}

// readCoreDocument reads a document that is known to exist. Failing to
// read it means it vanished or became unreadable after the existence check.
func readCoreDocument(store Store, key string) (json.RawMessage, error) {
	doc, err := readDocument(store, key)
	if err != nil && !IsCode(err, ErrMalformedDocument) {
		return nil, newError(ErrMissingCoreDocument, key, err)
	}
	return doc, err
}

// readAttributes returns nil for missing attributes and for an empty object.
func readAttributes(store Store, key string) (json.RawMessage, error) {
	ok, err := store.Has(key)
	if err != nil {
		return nil, errors.Wrapf(err, "probing %s", key)
	}
	if !ok {
		return nil, nil
	}

	doc, err := readDocument(store, key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	if string(doc) == "{}" {
		return nil, nil
	}
	return doc, nil
}
