package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"scopealloc/internal/diagfmt"
	"scopealloc/internal/driver"
	"scopealloc/internal/ir"
	"scopealloc/internal/scopeid"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup [flags] <file.pir> <instr-id>",
	Short: "Print the module scope id of one record instruction",
	Long: `Allocate scopes for a single file and print the module-wide scope id
of the record instruction with the given id (as shown by "dump"; the "i"
prefix is optional).`,
	Args: cobra.ExactArgs(2),
	RunE: runLookup,
}

func init() {
	addAnalysisFlags(lookupCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic(cmd)
	path := args[0]
	instr, err := parseInstrID(args[1])
	if err != nil {
		return err
	}

	s, err := newSession(cmd, path)
	if err != nil {
		return err
	}
	defer s.close()

	res, err := driver.Run(cmd.Context(), driver.Request{Path: path, Jobs: 1, Config: s.cfg})
	if err != nil {
		return err
	}
	if len(res.Files) != 1 {
		return fmt.Errorf("lookup expects a single .pir file, got %d files", len(res.Files))
	}
	fr := res.Files[0]
	if fr.Bag.HasErrors() && !s.quiet {
		stderrColor, err := colorEnabled(cmd, os.Stderr)
		if err != nil {
			return err
		}
		bag := res.Diagnostics(s.cfg.Diagnostics.Max)
		if err := diagfmt.Pretty(os.Stderr, bag, res.FileSet, diagfmt.PrettyOpts{Color: stderrColor, ShowNotes: true}); err != nil {
			return fmt.Errorf("failed to format diagnostics: %w", err)
		}
	}
	if fr.Analysis == nil {
		return errDiagnostics
	}

	ma := fr.Analysis.Alloc
	id, err := ma.ScopeIDOf(instr)
	if err != nil {
		return err
	}
	f, _ := fr.Analysis.Module.EnclosingFunc(instr)
	fmt.Fprintf(os.Stdout, "i%d @%s scope %d %s\n", instr, f.Name, id, strconv.Quote(scopeName(ma, f.ID, id)))
	return nil
}

func parseInstrID(s string) (ir.InstrID, error) {
	n, err := strconv.ParseUint(strings.TrimPrefix(s, "i"), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid instruction id %q: %w", s, err)
	}
	return ir.InstrID(n), nil
}

func scopeName(ma *scopeid.ModuleAllocation, fn ir.FuncID, id scopeid.ScopeID) string {
	for _, sn := range ma.ScopeNamesOf(fn) {
		if sn.ID == id {
			return sn.Name
		}
	}
	return ""
}
