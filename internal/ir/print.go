package ir

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// DumpOptions configures module dumping.
type DumpOptions struct {
	// IDs prefixes every instruction with its id.
	IDs bool
}

// DumpModule writes m in .pir syntax. With opts.IDs the output is no longer
// parseable; it is meant for humans matching ids from other commands.
func DumpModule(w io.Writer, m *Module, opts DumpOptions) error {
	if w == nil || m == nil {
		return nil
	}
	for i, f := range m.Funcs {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := dumpFunc(w, f, opts); err != nil {
			return err
		}
	}
	return nil
}

func dumpFunc(w io.Writer, f *Func, opts DumpOptions) error {
	if _, err := fmt.Fprintf(w, "func @%s {\n", f.Name); err != nil {
		return err
	}
	if err := dumpBody(w, f.Body, 1, opts); err != nil {
		return err
	}
	_, err := io.WriteString(w, "}\n")
	return err
}

func dumpBody(w io.Writer, body []Instr, depth int, opts DumpOptions) error {
	indent := strings.Repeat("  ", depth)
	for i := range body {
		in := &body[i]
		prefix := indent
		if opts.IDs {
			prefix = fmt.Sprintf("%si%-4d", indent, in.ID)
		}
		var line string
		switch in.Kind {
		case InstrRecord:
			kind := "end"
			if in.Record.IsStart {
				kind = "start"
			}
			line = fmt.Sprintf("record %s %s", kind, strconv.Quote(in.Record.Name))
		case InstrCall:
			line = "call @" + in.Call.Name
		case InstrRegion:
			line = "region {"
			if in.Region.Label != "" {
				line = fmt.Sprintf("region %s {", strconv.Quote(in.Region.Label))
			}
		default:
			line = "nop"
		}
		if _, err := fmt.Fprintf(w, "%s%s\n", prefix, line); err != nil {
			return err
		}
		if in.Kind == InstrRegion {
			if err := dumpBody(w, in.Region.Body, depth+1, opts); err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "%s}\n", indent); err != nil {
				return err
			}
		}
	}
	return nil
}
