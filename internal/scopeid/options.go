package scopeid

import (
	"scopealloc/internal/callgraph"
	"scopealloc/internal/ir"
	"scopealloc/internal/trace"
)

type options struct {
	tracer      trace.Tracer
	roots       []ir.FuncID
	unreachable callgraph.Unreachable
}

// Option configures an allocation.
type Option func(*options)

// WithTracer routes allocation events to t.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WithRoots starts the call graph walk at the given functions instead of the
// functions nobody calls. Only ModuleAllocation uses it.
func WithRoots(roots ...ir.FuncID) Option {
	return func(o *options) {
		o.roots = append(o.roots[:0:0], roots...)
	}
}

// WithUnreachable sets what happens to functions the roots do not reach.
// Only ModuleAllocation uses it.
func WithUnreachable(u callgraph.Unreachable) Option {
	return func(o *options) {
		o.unreachable = u
	}
}

func buildOptions(opts []Option) options {
	o := options{tracer: trace.Nop}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
