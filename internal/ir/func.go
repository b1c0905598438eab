package ir

import "scopealloc/internal/source"

// Func is one function of a Module. Span covers the function header and is
// where function-level diagnostics are anchored.
type Func struct {
	ID   FuncID
	Name string
	Span source.Span
	Body []Instr
}
