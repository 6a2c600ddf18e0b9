package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	zarr "github.com/ehennestad/zarr-consolidate"
	"github.com/ehennestad/zarr-consolidate/internal/logger"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// ConsolidateCommand writes the consolidated metadata of a hierarchy.
type ConsolidateCommand struct {
	// Root directory of the hierarchy.
	Path string

	LogLevel       string
	LogPretty      bool
	Strict         bool
	MaxDepth       int
	Concurrency    int
	IdentifierKeys bool
	// Node-exporter textfile to write run metrics to.
	MetricsFile string

	Stdout io.Writer
	Stderr io.Writer
}

func NewConsolidateCommand(stdout, stderr io.Writer) *ConsolidateCommand {
	return &ConsolidateCommand{
		LogLevel:    "info",
		MaxDepth:    zarr.DefaultMaxDepth,
		Concurrency: 1,
		Stdout:      stdout,
		Stderr:      stderr,
	}
}

// Run executes the consolidation.
func (cmd *ConsolidateCommand) Run(ctx context.Context) error {
	log := logger.Component(logger.New(logger.Config{
		Level:  cmd.LogLevel,
		Pretty: cmd.LogPretty,
		Output: cmd.Stderr,
	}), "consolidate")

	reg := prometheus.NewRegistry()
	opts := zarr.Options{
		Logger:        &log,
		Metrics:       zarr.NewMetrics(reg),
		StrictListing: cmd.Strict,
		MaxDepth:      cmd.MaxDepth,
		Concurrency:   cmd.Concurrency,
	}
	if cmd.IdentifierKeys {
		opts.Codec = zarr.NewIdentifierCodec()
	}

	cm, err := zarr.ConsolidatePath(ctx, cmd.Path, opts)
	if err != nil {
		return errors.Wrapf(err, "consolidating %s", cmd.Path)
	}

	if cmd.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(cmd.MetricsFile, reg); err != nil {
			return errors.Wrap(err, "writing metrics")
		}
	}

	fmt.Fprintf(cmd.Stdout, "%s: %d documents\n", filepath.Join(cmd.Path, string(zarr.MTMetadata)), cm.Metadata.Len())
	return nil
}

func newConsolidateCommand(stdout, stderr io.Writer) *cobra.Command {
	c := NewConsolidateCommand(stdout, stderr)
	cc := &cobra.Command{
		Use:   "consolidate <path>",
		Short: "Write .zmetadata for the hierarchy rooted at path",
		Long: `
Walks the Zarr v2 hierarchy rooted at path and writes every array, group and
attributes document to path/.zmetadata. The root must be a group with
zarr_format 2.
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.Path = args[0]
			return c.Run(commandContext(cmd))
		},
	}

	flags := cc.Flags()
	flags.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level: debug, info, warn or error.")
	flags.BoolVar(&c.LogPretty, "log-pretty", c.LogPretty, "Log in human readable form instead of JSON.")
	flags.BoolVar(&c.Strict, "strict", c.Strict, "Fail when a directory cannot be listed instead of treating it as empty.")
	flags.IntVar(&c.MaxDepth, "max-depth", c.MaxDepth, "Maximum number of levels below the root to descend.")
	flags.IntVar(&c.Concurrency, "concurrency", c.Concurrency, "Number of sibling subtrees to read in parallel.")
	flags.BoolVar(&c.IdentifierKeys, "identifier-keys", c.IdentifierKeys, "Track keys as restricted identifiers while walking.")
	flags.StringVar(&c.MetricsFile, "metrics-file", c.MetricsFile, "Write run metrics to this Prometheus textfile.")
	return cc
}
