// Package trace provides leveled debug tracing for scopealloc.
//
// Tracing replaces ad-hoc debug prints: the driver, the call-graph walk and
// the scope-id allocator emit events that are dropped unless a tracer with a
// sufficient level is installed.
//
// # Usage
//
//	scopealloc alloc --trace=- --trace-level=debug kernels/
//
// # Tracers
//
//   - Nop: zero-overhead tracer used when tracing is disabled
//   - StreamTracer: immediate write to an io.Writer (file/stderr)
//   - RingTracer: circular buffer, dumped on panic
//   - MultiTracer: fan-out to several tracers
//
// # Levels and scopes
//
// Each event carries a Scope; a Level decides which scopes are emitted:
//
//   - LevelPhase: ScopeDriver and ScopePass (per-file pipeline phases)
//   - LevelDetail: adds ScopeModule (call-graph walk, per-function offsets)
//   - LevelDebug: adds ScopeFunc (every record instruction, id assignment)
//
// # Context propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopePass, "allocate", 0)
//	defer span.End("")
package trace
