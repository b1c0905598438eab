package diagfmt

import (
	"io"

	"scopealloc/internal/diag"
	"scopealloc/internal/source"
)

// Short writes one line per diagnostic, sorted, in the compact form
// "error SCP4002 path:line:col message".
func Short(w io.Writer, bag *diag.Bag, fs *source.FileSet, showNotes bool) error {
	if bag == nil || bag.Len() == 0 {
		return nil
	}
	_, err := io.WriteString(w, diag.FormatShortDiagnostics(bag.Items(), fs, showNotes)+"\n")
	return err
}
