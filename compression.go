package zarr

import (
	"io"
	"os"

	"github.com/qri-io/dataset/compression"
)

// CompressionMeta defines compression settings zarr-go understands
type CompressionMeta struct {
	ID      string `json:"id"`
	Cname   string `json:"cname,omitempty"`
	Clevel  int    `json:"clevel,omitempty"`
	Shuffle int    `json:"shuffle,omitempty"`
}

func (m *CompressionMeta) Decompressor(r io.ReadCloser) (io.ReadCloser, error) {
	return compression.Decompressor(m.ID, r)
}

// String describes the codec the way inspect output shows it.
func (m *CompressionMeta) String() string {
	if m == nil || m.ID == "" {
		return "none"
	}
	if m.Cname != "" {
		return m.ID + "/" + m.Cname
	}
	return m.ID
}

// ReadConsolidatedFile reads a consolidated metadata document from a file.
// Archived artifacts are decompressed first when compressionFormat is set,
// e.g. "gzip" or "zst".
func ReadConsolidatedFile(path, compressionFormat string) (*ConsolidatedMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.ReadCloser = f
	if compressionFormat != "" {
		if r, err = compression.Decompressor(compressionFormat, f); err != nil {
			return nil, err
		}
		defer r.Close()
	}
	return ReadConsolidated(r)
}
