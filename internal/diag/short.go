package diag

import (
	"sort"
	"strconv"
	"strings"

	"scopealloc/internal/source"
)

type shortDiagnostic struct {
	Severity string
	Code     string
	Path     string
	Line     uint32
	Column   uint32
	Message  string
}

// FormatShortDiagnostics renders diagnostics one per line as
// "<severity> <CODE> <path>:<line>:<col> <message>", sorted by position.
// Notes are rendered as separate "note" lines after their diagnostic when
// includeNotes is set.
func FormatShortDiagnostics(diags []Diagnostic, fs *source.FileSet, includeNotes bool) string {
	if fs == nil || len(diags) == 0 {
		return ""
	}

	groups := make([][]shortDiagnostic, 0, len(diags))
	for i := range diags {
		d := &diags[i]
		group := []shortDiagnostic{makeShort(fs, strings.ToLower(d.Severity.String()), d.Code, d.Primary, d.Message)}
		if includeNotes {
			for _, n := range d.Notes {
				group = append(group, makeShort(fs, "note", d.Code, n.Span, n.Msg))
			}
		}
		groups = append(groups, group)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		di, dj := groups[i][0], groups[j][0]
		if di.Path != dj.Path {
			return di.Path < dj.Path
		}
		if di.Line != dj.Line {
			return di.Line < dj.Line
		}
		if di.Column != dj.Column {
			return di.Column < dj.Column
		}
		return di.Code < dj.Code
	})

	var sb strings.Builder
	for _, group := range groups {
		for _, d := range group {
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(d.Severity)
			sb.WriteByte(' ')
			sb.WriteString(d.Code)
			sb.WriteByte(' ')
			sb.WriteString(d.Path)
			sb.WriteByte(':')
			sb.WriteString(strconv.FormatUint(uint64(d.Line), 10))
			sb.WriteByte(':')
			sb.WriteString(strconv.FormatUint(uint64(d.Column), 10))
			sb.WriteByte(' ')
			sb.WriteString(d.Message)
		}
	}
	return sb.String()
}

func makeShort(fs *source.FileSet, sev string, code Code, span source.Span, msg string) shortDiagnostic {
	out := shortDiagnostic{
		Severity: sev,
		Code:     code.ID(),
		Message:  strings.Join(strings.Fields(msg), " "),
	}
	if f := fs.Get(span.File); f != nil {
		start, _ := fs.Resolve(span)
		out.Path = f.Path
		out.Line = start.Line
		out.Column = start.Col
	}
	return out
}
