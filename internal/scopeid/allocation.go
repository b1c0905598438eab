package scopeid

import (
	"cmp"
	"fmt"
	"slices"

	"fortio.org/safecast"

	"scopealloc/internal/diag"
	"scopealloc/internal/ir"
	"scopealloc/internal/source"
	"scopealloc/internal/trace"
)

// Allocation is the scope numbering of one function. It is read-only after
// NewAllocation returns.
type Allocation struct {
	fn        *ir.Func
	nameToID  map[string]ScopeID
	idToName  []string // indexed by ScopeID
	instrToID map[ir.InstrID]ScopeID
}

type openScope struct {
	id ScopeID
	at source.Span
}

// allocator holds the scan state; it lives for one NewAllocation call.
type allocator struct {
	a        *Allocation
	open     map[string]openScope
	closed   map[string]source.Span
	reporter diag.Reporter
	tracer   trace.Tracer
}

// NewAllocation numbers the scopes of f and reports nesting defects to r.
// Markers are processed in pre-order. An instruction involved in a defect
// gets no id; the scan always runs to the end of the function.
func NewAllocation(f *ir.Func, r diag.Reporter, opts ...Option) *Allocation {
	o := buildOptions(opts)
	if r == nil {
		r = diag.NopReporter{}
	}
	st := &allocator{
		a: &Allocation{
			fn:        f,
			nameToID:  make(map[string]ScopeID),
			instrToID: make(map[ir.InstrID]ScopeID),
		},
		open:     make(map[string]openScope),
		closed:   make(map[string]source.Span),
		reporter: r,
		tracer:   o.tracer,
	}
	ir.WalkRecords(f, st.record)
	st.finish()
	return st.a
}

func (st *allocator) record(in *ir.Instr) {
	name := in.Record.Name
	if trace.On(st.tracer, trace.ScopeFunc) {
		kind := "end"
		if in.Record.IsStart {
			kind = "start"
		}
		trace.Point(st.tracer, trace.ScopeFunc, "scopeid.record", fmt.Sprintf("i%d %s %q", in.ID, kind, name))
	}
	if in.Record.IsStart {
		st.start(in, name)
		return
	}
	st.end(in, name)
}

func (st *allocator) start(in *ir.Instr, name string) {
	if prev, isOpen := st.open[name]; isOpen {
		diag.ReportError(st.reporter, diag.ScopeAlreadyOpen, in.Span,
			fmt.Sprintf("the scope name '%s' is already open", name)).
			WithNote(prev.at, "previously opened here").
			Emit()
		return
	}
	id, ok := st.a.nameToID[name]
	if !ok {
		id = st.nextID()
		st.a.nameToID[name] = id
		st.a.idToName = append(st.a.idToName, name)
		if trace.On(st.tracer, trace.ScopeFunc) {
			trace.Point(st.tracer, trace.ScopeFunc, "scopeid.assign",
				fmt.Sprintf("assigning new scope id %d to name '%s'", id, name))
		}
	}
	st.a.instrToID[in.ID] = id
	st.open[name] = openScope{id: id, at: in.Span}
}

func (st *allocator) end(in *ir.Instr, name string) {
	cur, isOpen := st.open[name]
	if !isOpen {
		b := diag.ReportError(st.reporter, diag.ScopeNotOpened, in.Span,
			fmt.Sprintf("the scope name '%s' was not opened or already closed", name))
		if last, wasClosed := st.closed[name]; wasClosed {
			b.WithNote(last, "last closed here")
		}
		b.Emit()
		return
	}
	st.a.instrToID[in.ID] = cur.id
	delete(st.open, name)
	st.closed[name] = in.Span
}

// finish reports every scope still open, in id order.
func (st *allocator) finish() {
	if len(st.open) == 0 {
		return
	}
	pending := make([]openScope, 0, len(st.open))
	for _, s := range st.open {
		pending = append(pending, s)
	}
	slices.SortFunc(pending, func(a, b openScope) int {
		return cmp.Compare(a.id, b.id)
	})
	var at source.Span
	if st.a.fn != nil {
		at = st.a.fn.Span
	}
	for _, s := range pending {
		name := st.a.idToName[s.id]
		diag.ReportError(st.reporter, diag.ScopeNeverClosed, at,
			fmt.Sprintf("scope name '%s' was opened but never closed", name)).
			WithNote(s.at, "opened here").
			Emit()
	}
}

func (st *allocator) nextID() ScopeID {
	id, err := safecast.Conv[uint32](len(st.a.idToName))
	if err != nil {
		panic(fmt.Errorf("scope id overflow: %w", err))
	}
	return ScopeID(id)
}

// Func returns the function the allocation was computed for.
func (a *Allocation) Func() *ir.Func {
	return a.fn
}

// NumScopes reports the number of distinct scope names that were opened.
func (a *Allocation) NumScopes() int {
	return len(a.idToName)
}

// ScopeID returns the id of a scope name.
func (a *Allocation) ScopeID(name string) (ScopeID, bool) {
	id, ok := a.nameToID[name]
	return id, ok
}

// ScopeName returns the name behind an id.
func (a *Allocation) ScopeName(id ScopeID) (string, bool) {
	if int(id) >= len(a.idToName) {
		return "", false
	}
	return a.idToName[id], true
}

// InstrScopeID returns the id recorded for a marker instruction, or
// ErrNoScopeID if the instruction was not a correctly paired marker of this
// function.
func (a *Allocation) InstrScopeID(id ir.InstrID) (ScopeID, error) {
	sid, ok := a.instrToID[id]
	if !ok {
		return 0, fmt.Errorf("i%d: %w", id, ErrNoScopeID)
	}
	return sid, nil
}

// Names returns every (id, name) pair in ascending id order.
func (a *Allocation) Names() []ScopeName {
	return a.shiftedNames(0)
}

// Parents returns the parent relation, which is always empty.
func (a *Allocation) Parents() []ScopeParent {
	return []ScopeParent{}
}

func (a *Allocation) shiftedNames(offset ScopeID) []ScopeName {
	out := make([]ScopeName, len(a.idToName))
	for i, name := range a.idToName {
		out[i] = ScopeName{ID: offset + ScopeID(i), Name: name}
	}
	return out
}
