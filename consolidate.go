package zarr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// SupportedZarrFormat is the only zarr_format a hierarchy root may report.
const SupportedZarrFormat = 2

// Options configures a consolidation run. The zero value walks sequentially,
// stores keys verbatim and logs nothing.
type Options struct {
	Logger  *zerolog.Logger
	Metrics *Metrics
	// Codec maps keys to aggregate tokens. Stateful codecs such as
	// IdentifierCodec must not be shared between runs. Defaults to
	// IdentityCodec.
	Codec KeyCodec
	// StrictListing makes an unlistable directory fail the run with
	// ErrUnreadableDirectory instead of being treated as empty.
	StrictListing bool
	// MaxDepth <= 0 selects DefaultMaxDepth.
	MaxDepth int
	// Concurrency > 1 reads sibling subtrees in parallel, with at most
	// Concurrency goroutines walking at once. The artifact is identical to
	// a sequential run.
	Concurrency int
}

// RootFormat returns the zarr_format reported by the root .zgroup document
// of store, 0 if the field is absent or null. A value that is not an integer
// fails with ErrUnsupportedFormat; 2.0 counts as 2.
func RootFormat(store Store) (int, error) {
	doc, err := readDocument(store, string(MTGroup))
	if err != nil {
		return 0, err
	}
	var grp map[string]json.RawMessage
	if err := json.Unmarshal(doc, &grp); err != nil {
		return 0, newError(ErrUnsupportedFormat, string(MTGroup), errors.New("group document is not an object"))
	}
	raw, ok := grp["zarr_format"]
	if !ok {
		return 0, nil
	}
	var v *float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, newError(ErrUnsupportedFormat, string(MTGroup), errors.Errorf("zarr_format %s is not a number", raw))
	}
	if v == nil {
		return 0, nil
	}
	if *v != math.Trunc(*v) || math.Abs(*v) > math.MaxInt32 {
		return 0, newError(ErrUnsupportedFormat, string(MTGroup), errors.Errorf("zarr_format %s is not an integer", raw))
	}
	return int(*v), nil
}

// CheckRoot confirms store is rooted at a Zarr v2 group.
func CheckRoot(store Store) error {
	ok, err := store.Has(string(MTGroup))
	if err != nil {
		return errors.Wrap(err, "probing root group")
	}
	if !ok {
		return newError(ErrNotAZarrGroup, string(MTGroup), nil)
	}

	version, err := RootFormat(store)
	if errors.Is(err, ErrNotFound) {
		return newError(ErrNotAZarrGroup, string(MTGroup), err)
	} else if err != nil {
		return err
	}
	if version != SupportedZarrFormat {
		return newError(ErrUnsupportedFormat, string(MTGroup), fmt.Errorf("zarr_format %d, want %d", version, SupportedZarrFormat))
	}
	return nil
}

// Consolidate gathers every .zarray, .zgroup and non-empty .zattrs document
// of the hierarchy in store and writes them, keyed by hierarchical key, to
// the .zmetadata document at the store root. Nothing is written when the
// root check or the walk fails.
func Consolidate(ctx context.Context, store Store, opts Options) (*ConsolidatedMetadata, error) {
	start := time.Now()
	if err := CheckRoot(store); err != nil {
		return nil, err
	}

	w := newWalker(store, opts)
	agg, err := w.walk(ctx)
	if err != nil {
		return nil, err
	}

	cm := &ConsolidatedMetadata{
		ConsolidatedFormat: ConsolidatedFormat,
		Metadata:           agg,
	}
	n, err := writeConsolidated(store, cm)
	if err != nil {
		return nil, err
	}

	opts.Metrics.recordRun(time.Since(start), n)
	w.log.Info().
		Str("store", store.Type()).
		Int("documents", agg.Len()).
		Int("bytes", n).
		Dur("duration", time.Since(start)).
		Msg("wrote consolidated metadata")
	return cm, nil
}

// ConsolidatePath runs Consolidate on the directory at path.
func ConsolidatePath(ctx context.Context, path string, opts Options) (*ConsolidatedMetadata, error) {
	store, err := NewLocalStore(path)
	if err != nil {
		return nil, err
	}
	return Consolidate(ctx, store, opts)
}

// writeConsolidated makes sure the root documents are part of cm, then
// stores its pretty-printed encoding under .zmetadata. It returns the number
// of bytes written.
func writeConsolidated(store Store, cm *ConsolidatedMetadata) (int, error) {
	if err := insertRootDocuments(store, cm.Metadata); err != nil {
		return 0, err
	}

	buf := &bytes.Buffer{}
	if err := cm.Encode(buf); err != nil {
		return 0, newError(ErrWriteFailure, string(MTMetadata), err)
	}
	n := buf.Len()
	if err := store.Put(string(MTMetadata), buf); err != nil {
		return 0, newError(ErrWriteFailure, string(MTMetadata), err)
	}
	return n, nil
}

// insertRootDocuments re-reads the root .zgroup and .zattrs. Documents the
// walk already inserted are left as they are.
func insertRootDocuments(store Store, agg *Aggregate) error {
	core, err := readCoreDocument(store, string(MTGroup))
	if err != nil {
		return err
	}
	if err := agg.Insert(string(MTGroup), core); err != nil {
		return err
	}

	attrs, err := readAttributes(store, string(MTAttributes))
	if err != nil || attrs == nil {
		return err
	}
	return agg.Insert(string(MTAttributes), attrs)
}
