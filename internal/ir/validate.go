package ir

import (
	"errors"
	"fmt"
)

// Validate checks structural invariants of a built module.
// It returns all violations joined into one error.
func Validate(m *Module) error {
	if m == nil {
		return nil
	}
	var errs []error
	for i, f := range m.Funcs {
		if f == nil {
			errs = append(errs, fmt.Errorf("function #%d: nil", i))
			continue
		}
		if int(f.ID) != i {
			errs = append(errs, fmt.Errorf("function %s: id %d stored at index %d", f.Name, f.ID, i))
		}
		if err := validateFunc(m, f); err != nil {
			errs = append(errs, fmt.Errorf("function %s: %w", f.Name, err))
		}
	}
	return errors.Join(errs...)
}

func validateFunc(m *Module, f *Func) error {
	var errs []error
	prev := int64(-1)
	Walk(f, func(in *Instr) bool {
		if int64(in.ID) <= prev {
			errs = append(errs, fmt.Errorf("i%d: instruction ids not in pre-order (previous i%d)", in.ID, prev))
		}
		prev = int64(in.ID)

		if m.Instr(in.ID) != in {
			errs = append(errs, fmt.Errorf("i%d: not indexed", in.ID))
		} else if owner, _ := m.EnclosingFunc(in.ID); owner != f {
			errs = append(errs, fmt.Errorf("i%d: indexed under another function", in.ID))
		}

		switch in.Kind {
		case InstrRecord:
			if in.Record.Name == "" {
				errs = append(errs, fmt.Errorf("i%d: record with empty scope name", in.ID))
			}
		case InstrCall:
			if m.Func(in.Call.Callee) == nil {
				errs = append(errs, fmt.Errorf("i%d: call to unresolved function @%s", in.ID, in.Call.Name))
			}
		}
		return true
	})
	return errors.Join(errs...)
}
