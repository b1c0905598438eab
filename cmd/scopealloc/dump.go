package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"scopealloc/internal/diag"
	"scopealloc/internal/diagfmt"
	"scopealloc/internal/ir"
	"scopealloc/internal/source"
)

var dumpCmd = &cobra.Command{
	Use:   "dump [flags] <file.pir>",
	Short: "Print the parsed IR with instruction ids",
	Args:  cobra.ExactArgs(1),
	RunE:  runDump,
}

func init() {
	dumpCmd.Flags().Bool("ids", true, "prefix every instruction with its id")
}

func runDump(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic(cmd)
	path := args[0]
	ids, err := cmd.Flags().GetBool("ids")
	if err != nil {
		return fmt.Errorf("failed to get ids flag: %w", err)
	}

	s, err := newSession(cmd, path)
	if err != nil {
		return err
	}
	defer s.close()

	fs := source.NewFileSet()
	fileID, err := fs.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	bag := diag.NewBag(s.cfg.Diagnostics.Max)
	m := ir.Parse(fs, fileID, diag.BagReporter{Bag: bag})

	if bag.Len() > 0 {
		stderrColor, err := colorEnabled(cmd, os.Stderr)
		if err != nil {
			return err
		}
		if err := diagfmt.Pretty(os.Stderr, bag, fs, diagfmt.PrettyOpts{Color: stderrColor, ShowNotes: true}); err != nil {
			return fmt.Errorf("failed to format diagnostics: %w", err)
		}
	}
	if err := ir.DumpModule(os.Stdout, m, ir.DumpOptions{IDs: ids}); err != nil {
		return fmt.Errorf("failed to dump module: %w", err)
	}
	if bag.HasErrors() {
		return errDiagnostics
	}
	return nil
}
