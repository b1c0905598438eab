package ir

import "math"

// FuncID identifies a function within a Module. It is the function's
// identity: two functions may share a name but never an id.
type FuncID int32

// InstrID identifies an instruction within a Module.
type InstrID uint32

const (
	// NoFuncID marks an unresolved call target.
	NoFuncID FuncID = -1
	// NoInstrID is never assigned to an instruction.
	NoInstrID InstrID = math.MaxUint32
)
