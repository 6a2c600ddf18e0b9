package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	zarr "github.com/ehennestad/zarr-consolidate"
	"github.com/jedib0t/go-pretty/table"
	"github.com/jedib0t/go-pretty/text"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const noValue = "-"

// InspectCommand prints the contents of a consolidated metadata document.
type InspectCommand struct {
	// Either a hierarchy root holding .zmetadata or the artifact file itself.
	Path string
	// Compression of an archived artifact file, e.g. "gzip" or "zst".
	Compression string

	Stdout io.Writer
}

func NewInspectCommand(stdout io.Writer) *InspectCommand {
	return &InspectCommand{Stdout: stdout}
}

// Run executes the inspection.
func (cmd *InspectCommand) Run(_ context.Context) error {
	cm, err := cmd.open()
	if err != nil {
		return errors.Wrapf(err, "reading %s", cmd.Path)
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.Stdout)
	t.Style().Format.Header = text.FormatDefault
	t.AppendHeader(table.Row{"key", "kind", "shape", "chunks", "dtype", "compressor"})

	err = cm.Metadata.Range(func(key string, _ json.RawMessage) error {
		t.AppendRow(cmd.row(cm, key))
		return nil
	})
	if err != nil {
		return err
	}
	t.Render()
	fmt.Fprintf(cmd.Stdout, "%d documents\n", cm.Metadata.Len())
	return nil
}

func (cmd *InspectCommand) open() (*zarr.ConsolidatedMetadata, error) {
	fi, err := os.Stat(cmd.Path)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return zarr.ReadConsolidatedFile(cmd.Path, cmd.Compression)
	}
	store, err := zarr.NewLocalStore(cmd.Path)
	if err != nil {
		return nil, err
	}
	return zarr.OpenConsolidated(store)
}

func (cmd *InspectCommand) row(cm *zarr.ConsolidatedMetadata, key string) table.Row {
	mt, _ := zarr.KeyMetaType(key)
	node := zarr.KeyNodePath(key)
	switch mt {
	case zarr.MTArray:
		arr, err := cm.Array(node)
		if err != nil {
			return table.Row{key, "array", noValue, noValue, err.Error(), noValue}
		}
		return table.Row{key, "array", fmt.Sprint(arr.Shape), fmt.Sprint(arr.Chunks), arr.Dtype.Human(), arr.Compressor.String()}
	case zarr.MTGroup:
		return table.Row{key, "group", noValue, noValue, noValue, noValue}
	default:
		attrs, err := cm.Attributes(node)
		if err != nil {
			return table.Row{key, "attributes", noValue, noValue, err.Error(), noValue}
		}
		return table.Row{key, fmt.Sprintf("attributes (%d)", len(attrs)), noValue, noValue, noValue, noValue}
	}
}

func newInspectCommand(stdout io.Writer) *cobra.Command {
	c := NewInspectCommand(stdout)
	cc := &cobra.Command{
		Use:   "inspect <path>",
		Short: "Print the documents of a consolidated metadata file",
		Long: `
Prints one row per document of a consolidated metadata file. path is either a
hierarchy root containing .zmetadata or a metadata file, which may be
compressed (see --compression).
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.Path = args[0]
			return c.Run(commandContext(cmd))
		},
	}
	cc.Flags().StringVar(&c.Compression, "compression", c.Compression, "Compression of a metadata file: gzip or zst.")
	return cc
}
