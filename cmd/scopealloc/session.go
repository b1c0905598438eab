package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"scopealloc/internal/config"
)

// session is the per-invocation state shared by the commands: the merged
// configuration plus the cleanups of tracing and profiling.
type session struct {
	cfg     config.Config
	color   bool
	quiet   bool
	timings bool
	cleanup []func()
}

// newSession loads the configuration for input, applies flag overrides and
// starts tracing. The caller must call close.
func newSession(cmd *cobra.Command, input string) (*session, error) {
	flags := cmd.Root().PersistentFlags()

	explicit, err := flags.GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	cfg, err := config.Discover(input, explicit)
	if err != nil {
		return nil, err
	}
	if err := applyFlags(cmd, &cfg); err != nil {
		return nil, err
	}

	s := &session{cfg: cfg}
	if s.color, err = colorEnabled(cmd, os.Stdout); err != nil {
		return nil, err
	}
	if s.quiet, err = flags.GetBool("quiet"); err != nil {
		return nil, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if s.timings, err = flags.GetBool("timings"); err != nil {
		return nil, fmt.Errorf("failed to get timings flag: %w", err)
	}
	stopTrace, err := setupTracing(cmd, cfg.Trace.Level)
	if err != nil {
		return nil, err
	}
	s.cleanup = append(s.cleanup, stopTrace)
	stopProf, err := setupProfiling(cmd)
	if err != nil {
		s.close()
		return nil, err
	}
	s.cleanup = append(s.cleanup, stopProf)
	return s, nil
}

func (s *session) close() {
	if s == nil {
		return
	}
	// profiling stops before the tracer flushes
	for i := len(s.cleanup) - 1; i >= 0; i-- {
		s.cleanup[i]()
	}
	s.cleanup = nil
}

// applyFlags overrides config values with explicitly set flags.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Root().PersistentFlags()
	if flags.Changed("max-diagnostics") {
		n, err := flags.GetInt("max-diagnostics")
		if err != nil {
			return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
		}
		cfg.Diagnostics.Max = n
	}
	if flags.Changed("trace-level") {
		level, err := flags.GetString("trace-level")
		if err != nil {
			return fmt.Errorf("failed to get trace-level flag: %w", err)
		}
		cfg.Trace.Level = level
	}
	local := cmd.Flags()
	if f := local.Lookup("unreachable"); f != nil && f.Changed {
		cfg.Analysis.Unreachable = f.Value.String()
	}
	if f := local.Lookup("root"); f != nil && f.Changed {
		roots, err := local.GetStringSlice("root")
		if err != nil {
			return fmt.Errorf("failed to get root flag: %w", err)
		}
		cfg.Analysis.Roots = roots
	}
	if f := local.Lookup("cache"); f != nil && f.Changed {
		enabled, err := local.GetBool("cache")
		if err != nil {
			return fmt.Errorf("failed to get cache flag: %w", err)
		}
		cfg.Cache.Enabled = enabled
	}
	return cfg.Validate()
}

// colorEnabled resolves --color against the terminal state of f.
func colorEnabled(cmd *cobra.Command, f *os.File) (bool, error) {
	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, fmt.Errorf("failed to get color flag: %w", err)
	}
	switch colorFlag {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "auto", "":
		return isTerminal(f), nil
	default:
		return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", colorFlag)
	}
}

// addAnalysisFlags registers the flags that override [analysis].
func addAnalysisFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("root", nil, "explicit root functions, without the @ (overrides [analysis].roots)")
	cmd.Flags().String("unreachable", "visit", "functions not reachable from a root (visit|skip)")
}
