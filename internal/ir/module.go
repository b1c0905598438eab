package ir

// Module is a set of functions with a module-wide instruction index.
type Module struct {
	Funcs  []*Func           // indexed by FuncID
	ByName map[string]FuncID // first definition wins

	instrs []*Instr // indexed by InstrID
	owner  []FuncID // indexed by InstrID
}

// Func returns the function with the given id, or nil.
func (m *Module) Func(id FuncID) *Func {
	if m == nil || id < 0 || int(id) >= len(m.Funcs) {
		return nil
	}
	return m.Funcs[id]
}

// Lookup returns the first function defined with name.
func (m *Module) Lookup(name string) (*Func, bool) {
	if m == nil {
		return nil, false
	}
	id, ok := m.ByName[name]
	if !ok {
		return nil, false
	}
	return m.Func(id), true
}

// NumInstrs reports how many instructions the module holds.
func (m *Module) NumInstrs() int {
	if m == nil {
		return 0
	}
	return len(m.instrs)
}

// Instr returns the instruction with the given id, or nil.
func (m *Module) Instr(id InstrID) *Instr {
	if m == nil || int(id) >= len(m.instrs) {
		return nil
	}
	return m.instrs[id]
}

// EnclosingFunc returns the function whose body (at any nesting depth)
// contains the instruction.
func (m *Module) EnclosingFunc(id InstrID) (*Func, bool) {
	if m == nil || int(id) >= len(m.owner) {
		return nil, false
	}
	f := m.Func(m.owner[id])
	return f, f != nil
}

// reindex rebuilds the instruction index from the function bodies.
func (m *Module) reindex() {
	total := 0
	for _, f := range m.Funcs {
		Walk(f, func(*Instr) bool {
			total++
			return true
		})
	}
	m.instrs = make([]*Instr, total)
	m.owner = make([]FuncID, total)
	for _, f := range m.Funcs {
		Walk(f, func(in *Instr) bool {
			if int(in.ID) < total {
				m.instrs[in.ID] = in
				m.owner[in.ID] = f.ID
			}
			return true
		})
	}
}
