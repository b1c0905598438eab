package driver

import (
	"context"
	"errors"
	"fmt"

	"scopealloc/internal/callgraph"
	"scopealloc/internal/config"
	"scopealloc/internal/diag"
	"scopealloc/internal/ir"
	"scopealloc/internal/observ"
	"scopealloc/internal/scopeid"
	"scopealloc/internal/source"
	"scopealloc/internal/trace"
)

// Analysis is the in-memory result of one file.
type Analysis struct {
	Module *ir.Module
	Alloc  *scopeid.ModuleAllocation
}

// Analyze parses a loaded file and allocates its scopes. Diagnostics go to
// bag. The returned error is reserved for internal inconsistencies; a file
// with syntax errors still gets a best-effort allocation.
func Analyze(ctx context.Context, fs *source.FileSet, file source.FileID, cfg config.Config, bag *diag.Bag, timer *observ.Timer) (*Analysis, error) {
	if timer == nil {
		timer = observ.NewTimer()
	}
	tracer := trace.FromContext(ctx)
	var r diag.Reporter = diag.BagReporter{Bag: bag}
	var dedup *diag.DedupReporter
	if cfg.Diagnostics.Dedup {
		dedup = diag.NewDedupReporter(r)
		r = dedup
	}

	idx := timer.Begin("parse")
	before := bag.HasErrors()
	m := ir.Parse(fs, file, r)
	timer.End(idx, fmt.Sprintf("%d funcs", len(m.Funcs)))

	if !before && !bag.HasErrors() {
		if err := ir.Validate(m); err != nil {
			return nil, fmt.Errorf("invalid module from %s: %w", fs.Get(file).Path, err)
		}
	}

	idx = timer.Begin("alloc")
	opts := []scopeid.Option{
		scopeid.WithTracer(tracer),
		scopeid.WithUnreachable(cfg.Unreachable()),
	}
	if roots := resolveRoots(m, cfg.Analysis.Roots, file, r); len(roots) > 0 {
		opts = append(opts, scopeid.WithRoots(roots...))
	}
	ma := scopeid.NewModuleAllocation(m, r, opts...)
	timer.End(idx, fmt.Sprintf("%d scopes", ma.Total()))
	if n := dedup.Suppressed(); n > 0 {
		trace.Point(tracer, trace.ScopeDriver, "diag.dedup", fmt.Sprintf("%d repeated diagnostics dropped", n))
	}

	return &Analysis{Module: m, Alloc: ma}, nil
}

// resolveRoots keeps the configured roots this file defines and warns about
// the others.
func resolveRoots(m *ir.Module, names []string, file source.FileID, r diag.Reporter) []ir.FuncID {
	if len(names) == 0 {
		return nil
	}
	at := source.Span{File: file}
	out := make([]ir.FuncID, 0, len(names))
	for _, name := range names {
		ids, err := callgraph.ResolveRoots(m, []string{name})
		if errors.Is(err, callgraph.ErrUnknownRoot) {
			diag.ReportWarning(r, diag.IRUnknownRoot, at,
				fmt.Sprintf("configured root function @%s is not defined in this file", name)).Emit()
			continue
		}
		out = append(out, ids...)
	}
	return out
}
