package ir

// Walk visits every instruction of f in pre-order: an instruction is visited
// before the body of its region. Returning false from fn skips the region
// body of that instruction.
func Walk(f *Func, fn func(*Instr) bool) {
	if f == nil {
		return
	}
	walkBody(f.Body, fn)
}

func walkBody(body []Instr, fn func(*Instr) bool) {
	for i := range body {
		in := &body[i]
		if !fn(in) {
			continue
		}
		if in.Kind == InstrRegion {
			walkBody(in.Region.Body, fn)
		}
	}
}

// WalkRecords visits the record instructions of f in pre-order.
func WalkRecords(f *Func, fn func(*Instr)) {
	Walk(f, func(in *Instr) bool {
		if in.IsRecord() {
			fn(in)
		}
		return true
	})
}

// Calls returns the call instructions of f in pre-order.
func Calls(f *Func) []*Instr {
	var out []*Instr
	Walk(f, func(in *Instr) bool {
		if in.Kind == InstrCall {
			out = append(out, in)
		}
		return true
	})
	return out
}
