package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"scopealloc/internal/version"
)

// errDiagnostics makes the process exit with status 1 without printing
// anything; the diagnostics have already been written.
var errDiagnostics = errors.New("diagnostics reported errors")

var rootCmd = &cobra.Command{
	Use:   "scopealloc",
	Short: "Assign dense scope ids to named record pairs in .pir modules",
	Long: `scopealloc reads .pir modules, pairs every "record start" with its
"record end", and assigns each scope a module-wide id by walking the call
graph callee-first.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// main registers subcommands and persistent flags, then executes the root
// command. Any error exits with status 1.
func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(allocCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(versionCmd)

	registerPersistentFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errDiagnostics) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func registerPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	cmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	cmd.PersistentFlags().Bool("timings", false, "show timing information")
	cmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to show (0 = no limit)")
	cmd.PersistentFlags().String("config", "", "path to scopealloc.toml (default: search upwards from the input)")
	cmd.PersistentFlags().String("trace", "", "trace output file (\"-\" for stderr)")
	cmd.PersistentFlags().String("trace-level", "", "trace level (off|error|phase|detail|debug); overrides [trace].level")
	cmd.PersistentFlags().String("trace-mode", "stream", "trace storage mode (stream|ring|both)")
	cmd.PersistentFlags().String("trace-format", "auto", "trace output format (auto|text|ndjson); auto picks ndjson for .ndjson/.jsonl files")
	cmd.PersistentFlags().Int("trace-ring-size", 4096, "ring buffer capacity for ring mode")
	cmd.PersistentFlags().String("cpu-profile", "", "write a CPU profile to this file")
	cmd.PersistentFlags().String("mem-profile", "", "write a heap profile to this file on exit")
	cmd.PersistentFlags().String("runtime-trace", "", "write a Go runtime trace to this file")
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
