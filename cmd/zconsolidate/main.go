// Command zconsolidate writes the consolidated metadata of a Zarr v2
// hierarchy.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ehennestad/zarr-consolidate/internal/cli"
)

func main() {
	rootCmd := cli.NewRootCommand(os.Stdin, os.Stdout, os.Stderr)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
