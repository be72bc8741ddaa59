package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╔═╗┬ ┬┬  ┌─┐┌─┐
  ╠═╝│ ││  └─┐├┤
  ╩  └─┘┴─┘└─┘└─┘
`

func main() {
	rootCmd := &cobra.Command{
		Use:   "pulse",
		Short: "Fine-grained reactive state for Go",
		Long: `Pulse is a fine-grained reactive runtime for Go.

Signals hold state, memos derive it, effects react to it. The runtime
tracks dependencies automatically as computations read signals, so any
write re-runs exactly the affected effects: no diffing, no glitches.

This CLI ships diagnostics for the runtime:

  • bench: measure propagation throughput on common graph shapes
  • version: print build information`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		benchCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

// printBanner prints the Pulse ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}
