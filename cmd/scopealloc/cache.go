package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"scopealloc/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the allocation result cache",
}

var cacheCleanCmd = &cobra.Command{
	Use:   "clean [path]",
	Short: "Remove every cached allocation result",
	Long: `Remove the result cache. The directory comes from [cache].dir of the
scopealloc.toml found from path (default "."), or the user cache directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCacheClean,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats [path]",
	Short: "Show the number and size of cached results",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCacheStats,
}

func init() {
	cacheCmd.AddCommand(cacheCleanCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
}

func runCacheClean(cmd *cobra.Command, args []string) error {
	base := "."
	if len(args) > 0 && args[0] != "" {
		base = args[0]
	}
	s, err := newSession(cmd, base)
	if err != nil {
		return err
	}
	defer s.close()

	dir, err := cacheDir(s.cfg)
	if err != nil {
		return err
	}
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if !s.quiet {
				fmt.Fprintln(os.Stdout, "cache directory not found")
			}
			return nil
		}
		return fmt.Errorf("failed to stat %q: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%q is not a directory", dir)
	}

	c, err := cache.Open(dir)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	st, err := c.Stats()
	if err != nil {
		return fmt.Errorf("failed to read cache: %w", err)
	}
	if err := c.DropAll(); err != nil {
		return fmt.Errorf("failed to clean cache: %w", err)
	}
	if !s.quiet {
		fmt.Fprintf(os.Stdout, "removed %s (%d entries, %s)\n", c.Dir(), st.Entries, humanize.IBytes(st.Bytes))
	}
	return nil
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	base := "."
	if len(args) > 0 && args[0] != "" {
		base = args[0]
	}
	s, err := newSession(cmd, base)
	if err != nil {
		return err
	}
	defer s.close()

	dir, err := cacheDir(s.cfg)
	if err != nil {
		return err
	}
	c, err := cache.Open(dir)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	st, err := c.Stats()
	if err != nil {
		return fmt.Errorf("failed to read cache: %w", err)
	}
	limit, err := s.cfg.CacheMaxBytes()
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "%s: %d entries, %s", c.Dir(), st.Entries, humanize.IBytes(st.Bytes))
	if limit > 0 {
		fmt.Fprintf(os.Stdout, " of %s", humanize.IBytes(limit))
	}
	fmt.Fprintln(os.Stdout)
	return nil
}
