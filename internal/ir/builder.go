package ir

import (
	"fmt"

	"fortio.org/safecast"

	"scopealloc/internal/source"
)

// Builder assembles a Module. Instruction ids are handed out in creation
// order, which for a FuncBuilder used top to bottom is pre-order.
type Builder struct {
	funcs     []*FuncBuilder
	nextInstr uint32
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// FuncBuilder appends instructions to one function.
type FuncBuilder struct {
	b     *Builder
	fn    *Func
	stack []frame
}

type frame struct {
	region Instr
	body   []Instr
}

// Func starts a new function. Functions may share a name; each gets its own id.
func (b *Builder) Func(name string, span source.Span) *FuncBuilder {
	id, err := safecast.Conv[int32](len(b.funcs))
	if err != nil {
		panic(fmt.Errorf("function count overflow: %w", err))
	}
	fb := &FuncBuilder{
		b:     b,
		fn:    &Func{ID: FuncID(id), Name: name, Span: span},
		stack: []frame{{}},
	}
	b.funcs = append(b.funcs, fb)
	return fb
}

func (b *Builder) newInstrID() InstrID {
	if b.nextInstr == uint32(NoInstrID) {
		panic("instruction id overflow")
	}
	id := InstrID(b.nextInstr)
	b.nextInstr++
	return id
}

// ID returns the id the function will have in the built module.
func (fb *FuncBuilder) ID() FuncID {
	return fb.fn.ID
}

func (fb *FuncBuilder) push(in Instr) InstrID {
	in.ID = fb.b.newInstrID()
	top := &fb.stack[len(fb.stack)-1]
	top.body = append(top.body, in)
	return in.ID
}

// Record appends a scope marker.
func (fb *FuncBuilder) Record(name string, isStart bool, span source.Span) InstrID {
	return fb.push(Instr{
		Kind:   InstrRecord,
		Span:   span,
		Record: RecordInstr{Name: name, IsStart: isStart},
	})
}

// Start appends a "record start" marker.
func (fb *FuncBuilder) Start(name string, span source.Span) InstrID {
	return fb.Record(name, true, span)
}

// End appends a "record end" marker.
func (fb *FuncBuilder) End(name string, span source.Span) InstrID {
	return fb.Record(name, false, span)
}

// Call appends a call to the function named callee. The target is resolved
// when the module is built.
func (fb *FuncBuilder) Call(callee string, span source.Span) InstrID {
	return fb.push(Instr{
		Kind: InstrCall,
		Span: span,
		Call: CallInstr{Callee: NoFuncID, Name: callee},
	})
}

// Nop appends a no-op.
func (fb *FuncBuilder) Nop(span source.Span) InstrID {
	return fb.push(Instr{Kind: InstrNop, Span: span})
}

// BeginRegion opens a nested body; instructions go into it until EndRegion.
func (fb *FuncBuilder) BeginRegion(label string, span source.Span) InstrID {
	in := Instr{
		ID:     fb.b.newInstrID(),
		Kind:   InstrRegion,
		Span:   span,
		Region: RegionInstr{Label: label},
	}
	fb.stack = append(fb.stack, frame{region: in})
	return in.ID
}

// EndRegion closes the innermost open region. It reports false when no
// region is open.
func (fb *FuncBuilder) EndRegion() bool {
	if len(fb.stack) < 2 {
		return false
	}
	top := fb.stack[len(fb.stack)-1]
	fb.stack = fb.stack[:len(fb.stack)-1]
	top.region.Region.Body = top.body
	parent := &fb.stack[len(fb.stack)-1]
	parent.body = append(parent.body, top.region)
	return true
}

// Depth reports how many regions are open.
func (fb *FuncBuilder) Depth() int {
	return len(fb.stack) - 1
}

// Build closes any open regions, resolves call targets by name and indexes
// every instruction. The Builder must not be used afterwards.
func (b *Builder) Build() *Module {
	m := &Module{
		Funcs:  make([]*Func, 0, len(b.funcs)),
		ByName: make(map[string]FuncID, len(b.funcs)),
	}
	for _, fb := range b.funcs {
		for fb.Depth() > 0 {
			fb.EndRegion()
		}
		fb.fn.Body = fb.stack[0].body
		m.Funcs = append(m.Funcs, fb.fn)
		if _, dup := m.ByName[fb.fn.Name]; !dup {
			m.ByName[fb.fn.Name] = fb.fn.ID
		}
	}
	for _, f := range m.Funcs {
		Walk(f, func(in *Instr) bool {
			if in.Kind == InstrCall {
				if id, ok := m.ByName[in.Call.Name]; ok {
					in.Call.Callee = id
				}
			}
			return true
		})
	}
	m.reindex()
	return m
}
