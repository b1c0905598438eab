package ir

import (
	"scopealloc/internal/source"
)

// InstrKind enumerates instruction kinds.
type InstrKind uint8

const (
	// InstrNop does nothing.
	InstrNop InstrKind = iota
	// InstrRecord is a scope start/end marker.
	InstrRecord
	// InstrCall calls another function of the module.
	InstrCall
	// InstrRegion holds a nested body (loop, branch arm).
	InstrRegion
)

func (k InstrKind) String() string {
	switch k {
	case InstrNop:
		return "nop"
	case InstrRecord:
		return "record"
	case InstrCall:
		return "call"
	case InstrRegion:
		return "region"
	}
	return "unknown"
}

// Instr is a single instruction. Only the payload matching Kind is meaningful.
type Instr struct {
	ID   InstrID
	Kind InstrKind
	Span source.Span

	Record RecordInstr
	Call   CallInstr
	Region RegionInstr
}

// RecordInstr marks the start or end of a named profiling scope.
type RecordInstr struct {
	Name    string
	IsStart bool
}

// CallInstr calls Callee. Name keeps the textual target for diagnostics and
// is the only information left when Callee is NoFuncID.
type CallInstr struct {
	Callee FuncID
	Name   string
}

// RegionInstr carries a nested instruction list.
type RegionInstr struct {
	Label string
	Body  []Instr
}

// IsRecord reports whether the instruction is a scope marker.
func (in *Instr) IsRecord() bool {
	return in != nil && in.Kind == InstrRecord
}
