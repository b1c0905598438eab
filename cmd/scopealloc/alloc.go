package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"scopealloc/internal/cache"
	"scopealloc/internal/config"
	"scopealloc/internal/diagfmt"
	"scopealloc/internal/driver"
	"scopealloc/internal/report"
	"scopealloc/internal/trace"
)

var allocCmd = &cobra.Command{
	Use:   "alloc [flags] <file.pir|directory>",
	Short: "Allocate scope ids and print them per function",
	Long: `Parse every .pir file, allocate module-wide scope ids and print the
per-function offsets and (id, name) pairs. Diagnostics go to stderr.`,
	Args: cobra.ExactArgs(1),
	RunE: runAlloc,
}

func init() {
	allocCmd.Flags().String("format", "table", "output format (table|json|yaml)")
	allocCmd.Flags().Int("jobs", 0, "max parallel workers for directory processing (0=auto)")
	allocCmd.Flags().Bool("cache", false, "serve unchanged files from the result cache (overrides [cache].enabled)")
	allocCmd.Flags().String("ui", "auto", "progress UI for directories (auto|on|off)")
	addAnalysisFlags(allocCmd)
}

func runAlloc(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic(cmd)
	path := args[0]

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	switch format {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiFlag)
	if err != nil {
		return err
	}

	s, err := newSession(cmd, path)
	if err != nil {
		return err
	}
	defer s.close()

	req := driver.Request{
		Path:    path,
		Jobs:    jobs,
		Config:  s.cfg,
		Timings: s.timings,
	}
	if req.Cache, err = openCache(s.cfg); err != nil {
		return err
	}

	res, err := runDriver(cmd, &req, mode, s.quiet)
	if err != nil {
		return err
	}
	tracer := trace.FromContext(cmd.Context())
	trace.Point(tracer, trace.ScopeDriver, "alloc.done", fmt.Sprintf("%d files", len(res.Files)))
	if req.Cache != nil {
		if err := pruneCache(cmd, req.Cache, s.cfg); err != nil {
			return err
		}
	}

	bag := res.Diagnostics(s.cfg.Diagnostics.Max)
	if bag.Len() > 0 {
		stderrColor, err := colorEnabled(cmd, os.Stderr)
		if err != nil {
			return err
		}
		if err := diagfmt.Pretty(os.Stderr, bag, res.FileSet, diagfmt.PrettyOpts{
			Color:     stderrColor,
			Context:   1,
			ShowNotes: true,
		}); err != nil {
			return fmt.Errorf("failed to format diagnostics: %w", err)
		}
		printDropped(os.Stderr, bag)
	}

	switch format {
	case "json":
		err = report.WriteJSON(os.Stdout, res.Summaries())
	case "yaml":
		err = report.WriteYAML(os.Stdout, res.Summaries())
	default:
		err = report.WriteTable(os.Stdout, res.Summaries(), report.TableOptions{Color: s.color})
	}
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if s.timings && !s.quiet {
		printTimings(os.Stderr, res)
	}
	if res.HasErrors() {
		return errDiagnostics
	}
	return nil
}

// openCache returns nil when caching is disabled.
func openCache(cfg config.Config) (*cache.Cache, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}
	dir, err := cacheDir(cfg)
	if err != nil {
		return nil, err
	}
	c, err := cache.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	return c, nil
}

// pruneCache enforces [cache].max_size after a run.
func pruneCache(cmd *cobra.Command, c *cache.Cache, cfg config.Config) error {
	limit, err := cfg.CacheMaxBytes()
	if err != nil {
		return err
	}
	removed, err := c.Prune(limit)
	if err != nil {
		return fmt.Errorf("failed to prune cache: %w", err)
	}
	if removed.Entries > 0 {
		trace.Point(trace.FromContext(cmd.Context()), trace.ScopeDriver, "cache.prune",
			fmt.Sprintf("%d entries, %s", removed.Entries, humanize.IBytes(removed.Bytes)))
	}
	return nil
}

func cacheDir(cfg config.Config) (string, error) {
	if cfg.Cache.Dir != "" {
		return cfg.Cache.Dir, nil
	}
	dir, err := cache.DefaultDir("scopealloc")
	if err != nil {
		return "", fmt.Errorf("failed to locate cache directory: %w", err)
	}
	return dir, nil
}

// runDriver runs the request, with the progress UI when the input is a
// directory and the UI mode allows it.
func runDriver(cmd *cobra.Command, req *driver.Request, mode uiMode, quiet bool) (*driver.Result, error) {
	files, err := driver.ListFiles(req.Path)
	if err != nil {
		return nil, err
	}
	if !quiet && len(files) > 1 && shouldUseTUI(mode) {
		return runWithUI(cmd.Context(), "allocating scopes", files, req)
	}
	return driver.Run(cmd.Context(), *req)
}

