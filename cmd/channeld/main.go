// Command channeld runs one channel instance: the UTXO core, its HTTP
// front door, and the background plumbing (logging, metrics, tracing,
// rate limiting) around it, wired together the way main/params.go
// wires an Avalanche node's CLI flags into node.Config and then hands
// off to node.Node.Dispatch.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "channeld:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "channeld",
		Short:         "Privacy-preserving UTXO channel node",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newGenesisCmd())
	return root
}
