package cmd

import (
	"github.com/spf13/cobra"

	"github.com/TomatOrg/tinydotnet/internal/host"
)

var (
	debug         bool
	assemblyPaths []string
)

var rootCmd = &cobra.Command{
	Use:   "tdnjit",
	Short: "Method translator front end for the managed runtime's JIT",
	Long: `tdnjit drives the bytecode-to-IR method translator standalone, outside
the managed runtime it is normally embedded in.

It is a diagnostic and development tool: it does not load real assemblies by
itself (that is the job of the runtime's metadata loader, which this
translator only consumes), but it can dump the IR the translator produces for
a set of built-in sample methods. It does not exercise the host's executable
memory mapping.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable development-mode (verbose) logging")
	rootCmd.PersistentFlags().StringSliceVar(&assemblyPaths, "assembly-path", nil, "assembly search directories, in order (stored in host.Config; translate loads no assemblies)")
}

func newLogger() (*host.Logger, error) {
	return host.NewLogger(host.Config{Debug: debug, AssemblyPaths: assemblyPaths})
}
