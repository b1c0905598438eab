package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"scopealloc/internal/diagfmt"
	"scopealloc/internal/driver"
	"scopealloc/internal/source"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <file.pir|directory>",
	Short: "Report diagnostics without printing allocations",
	Long: `Parse and allocate every .pir file and print only the diagnostics:
syntax errors, unknown callees, and unbalanced or duplicated record pairs.
With --code only the listed diagnostic ids are reported and considered for
the exit status. Exits with status 1 when any error is reported.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("format", "pretty", "output format (pretty|json|short)")
	checkCmd.Flags().Int("jobs", 0, "max parallel workers for directory processing (0=auto)")
	checkCmd.Flags().Bool("with-notes", true, "include diagnostic notes in output")
	checkCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
	checkCmd.Flags().StringSlice("code", nil, "only report diagnostics with these ids (e.g. SCP4003)")
	addAnalysisFlags(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic(cmd)
	path := args[0]

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	codes, err := cmd.Flags().GetStringSlice("code")
	if err != nil {
		return fmt.Errorf("failed to get code flag: %w", err)
	}

	s, err := newSession(cmd, path)
	if err != nil {
		return err
	}
	defer s.close()

	res, err := driver.Run(cmd.Context(), driver.Request{
		Path:    path,
		Jobs:    jobs,
		Config:  s.cfg,
		Timings: s.timings,
	})
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}
	keepCodes(res, codes)

	pathMode := source.PathAuto
	if fullPath {
		pathMode = source.PathAbsolute
	}
	limit := s.cfg.Diagnostics.Max

	switch format {
	case "pretty":
		bag := res.Diagnostics(limit)
		bag.Sort()
		err = diagfmt.Pretty(os.Stdout, bag, res.FileSet, diagfmt.PrettyOpts{
			Color:     s.color,
			Context:   2,
			PathMode:  pathMode,
			ShowNotes: withNotes,
		})
		if err == nil {
			printDropped(os.Stdout, bag)
		}
	case "short":
		err = diagfmt.Short(os.Stdout, res.Diagnostics(limit), res.FileSet, withNotes)
	case "json":
		err = writeCheckJSON(res, pathMode, limit, withNotes)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
	if err != nil {
		return fmt.Errorf("failed to format diagnostics: %w", err)
	}

	if s.timings && !s.quiet {
		printTimings(os.Stderr, res)
	}
	if res.HasErrors() {
		return errDiagnostics
	}
	return nil
}

// writeCheckJSON prints one diagnostics object per file, keyed by path.
func writeCheckJSON(res *driver.Result, mode source.PathMode, limit int, withNotes bool) error {
	opts := diagfmt.JSONOpts{
		IncludePositions: true,
		PathMode:         mode,
		Max:              limit,
		IncludeNotes:     withNotes,
	}
	output := make(map[string]diagfmt.DiagnosticsOutput, len(res.Files))
	for _, r := range res.Files {
		display := res.FileSet.Get(r.FileID).FormatPath(mode, res.FileSet.BaseDir())
		output[display] = diagfmt.BuildDiagnosticsOutput(r.Bag, res.FileSet, opts)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}
