package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"scopealloc/internal/trace"
)

// setupTracing reads the trace flags, falling back to configLevel for the
// level, and attaches the tracer to the command context. It returns a
// cleanup function that flushes and closes the tracer.
func setupTracing(cmd *cobra.Command, configLevel string) (func(), error) {
	root := cmd.Root()

	traceOutput, err := root.PersistentFlags().GetString("trace")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace flag: %w", err)
	}

	modeStr, err := root.PersistentFlags().GetString("trace-mode")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-mode flag: %w", err)
	}

	formatStr, err := root.PersistentFlags().GetString("trace-format")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-format flag: %w", err)
	}

	ringSize, err := root.PersistentFlags().GetInt("trace-ring-size")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}

	level, err := trace.ParseLevel(configLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid trace level: %w", err)
	}

	if level == trace.LevelOff {
		if traceOutput == "" {
			setContextTracer(cmd, trace.Nop)
			return func() {}, nil
		}
		// --trace alone implies the phase level
		level = trace.LevelPhase
	}

	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return nil, fmt.Errorf("invalid trace mode: %w", err)
	}
	format, err := trace.ParseFormat(formatStr)
	if err != nil {
		return nil, err
	}

	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		OutputPath: traceOutput,
		Format:     format,
		RingSize:   ringSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	setContextTracer(cmd, tracer)

	cleanup := func() {
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}
	return cleanup, nil
}

func setContextTracer(cmd *cobra.Command, t trace.Tracer) {
	ctx := trace.WithTracer(cmd.Context(), t)
	cmd.SetContext(ctx)
	cmd.Root().SetContext(ctx)
}

// dumpTraceOnPanic writes the ring buffer of the command's tracer to stderr
// when a panic unwinds through it, then re-panics.
func dumpTraceOnPanic(cmd *cobra.Command) {
	r := recover()
	if r == nil {
		return
	}
	if ring, ok := trace.Ring(trace.FromContext(cmd.Context())); ok {
		fmt.Fprintf(os.Stderr, "== trace (most recent events, %d older dropped) ==\n", ring.Overwritten())
		_ = ring.Dump(os.Stderr, trace.FormatText)
	}
	panic(r)
}
