package cache

import (
	"scopealloc/internal/diag"
	"scopealloc/internal/source"
)

// Diagnostic is a diag.Diagnostic with byte offsets only. File ids are not
// stable between runs, so spans are rebound when the entry is used.
type Diagnostic struct {
	Severity uint8
	Code     uint16
	Message  string
	Start    uint32
	End      uint32
	Notes    []Note
}

// Note mirrors diag.Note.
type Note struct {
	Start uint32
	End   uint32
	Msg   string
}

// FromDiagnostics strips file ids from ds.
func FromDiagnostics(ds []diag.Diagnostic) []Diagnostic {
	out := make([]Diagnostic, len(ds))
	for i, d := range ds {
		cd := Diagnostic{
			Severity: uint8(d.Severity),
			Code:     uint16(d.Code),
			Message:  d.Message,
			Start:    d.Primary.Start,
			End:      d.Primary.End,
		}
		for _, n := range d.Notes {
			cd.Notes = append(cd.Notes, Note{Start: n.Span.Start, End: n.Span.End, Msg: n.Msg})
		}
		out[i] = cd
	}
	return out
}

// Bind restores a diagnostic against file.
func (d Diagnostic) Bind(file source.FileID) diag.Diagnostic {
	out := diag.New(diag.Severity(d.Severity), diag.Code(d.Code),
		source.Span{File: file, Start: d.Start, End: d.End}, d.Message)
	for _, n := range d.Notes {
		out = out.WithNote(source.Span{File: file, Start: n.Start, End: n.End}, n.Msg)
	}
	return out
}
