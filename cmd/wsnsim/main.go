// Command wsnsim runs, inspects and interacts with an in-memory simulation
// of the routing core, for development and demonstration. It is not part
// of the routing core's public contract.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "wsnsim",
		Short: "Simulate a multi-hop sensor network routing layer",
	}
	root.PersistentFlags().String("config", "", "path to a YAML topology/config file")
	root.AddCommand(newRunCmd())
	root.AddCommand(newRoutesCmd())
	root.AddCommand(newBeaconCmd())
	return root
}
