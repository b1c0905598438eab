package prof_test

import (
	"os"
	"path/filepath"
	"testing"

	"scopealloc/internal/prof"
)

func TestSessionWritesProfiles(t *testing.T) {
	dir := t.TempDir()
	opts := prof.Options{
		CPU:   filepath.Join(dir, "cpu.pprof"),
		Mem:   filepath.Join(dir, "mem.pprof"),
		Trace: filepath.Join(dir, "trace.out"),
	}
	if !opts.Enabled() {
		t.Fatal("options with paths report disabled")
	}
	s, err := prof.Start(opts)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
	for _, path := range []string{opts.CPU, opts.Mem, opts.Trace} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("missing %s: %v", filepath.Base(path), err)
		}
	}
}

func TestStartFailsOnBadPath(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no", "such", "dir", "cpu.pprof")
	if _, err := prof.Start(prof.Options{CPU: missing}); err == nil {
		t.Fatal("expected error for unwritable cpu profile path")
	}
}

func TestEmptyOptions(t *testing.T) {
	var opts prof.Options
	if opts.Enabled() {
		t.Fatal("zero options report enabled")
	}
	s, err := prof.Start(opts)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}
