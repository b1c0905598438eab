package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"scopealloc/internal/diag"
	"scopealloc/internal/source"
)

const tabWidth = 4

type palette struct {
	err, warn, info *color.Color
	path, gutter    *color.Color
	caret, note     *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan, color.Bold),
		path:   color.New(color.Bold),
		gutter: color.New(color.FgBlue),
		caret:  color.New(color.FgRed),
		note:   color.New(color.FgGreen),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.path, p.gutter, p.caret, p.note} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	}
	return p.info
}

// Pretty writes bag.Items() in the order they are stored (call bag.Sort()
// first for stable output). Each diagnostic prints as
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//	  12 | record end "a"
//	     | ^~~~~~~~~~~~~~
//
// followed by its notes in the same shape when opts.ShowNotes is set.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) error {
	if bag == nil {
		return nil
	}
	p := newPalette(opts.Color)
	for i, d := range bag.Items() {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		sev := p.severity(d.Severity)
		header := fmt.Sprintf("%s: %s: %s\n",
			p.path.Sprint(location(fs, d.Primary, opts.PathMode)),
			sev.Sprintf("%s %s", d.Severity, d.Code.ID()),
			d.Message)
		if _, err := io.WriteString(w, header); err != nil {
			return err
		}
		if err := snippet(w, fs, d.Primary, int(opts.Context), p.caret, p); err != nil {
			return err
		}
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			line := fmt.Sprintf("  %s %s: %s\n", p.note.Sprint("note:"),
				location(fs, n.Span, opts.PathMode), n.Msg)
			if _, err := io.WriteString(w, line); err != nil {
				return err
			}
			if err := snippet(w, fs, n.Span, 0, p.note, p); err != nil {
				return err
			}
		}
	}
	return nil
}

func location(fs *source.FileSet, sp source.Span, mode source.PathMode) string {
	f := fs.Get(sp.File)
	if f == nil {
		return "<unknown>"
	}
	start, _ := fs.Resolve(sp)
	return fmt.Sprintf("%s:%d:%d", f.FormatPath(mode, fs.BaseDir()), start.Line, start.Col)
}

// snippet prints the source line of sp with the span underlined. Empty spans
// print nothing. Spans crossing lines are underlined to the end of the first.
func snippet(w io.Writer, fs *source.FileSet, sp source.Span, context int, mark *color.Color, p palette) error {
	f := fs.Get(sp.File)
	if f == nil || sp.Empty() {
		return nil
	}
	start, end := fs.Resolve(sp)
	text := f.GetLine(start.Line)
	gutterWidth := len(strconv.FormatUint(uint64(start.Line), 10))

	first := int(start.Line) - context
	if first < 1 {
		first = 1
	}
	for ln := first; ln <= int(start.Line); ln++ {
		// #nosec G115 -- ln is a valid line number
		line := expandTabs(f.GetLine(uint32(ln)))
		gutter := p.gutter.Sprintf("%*d |", gutterWidth, ln)
		if _, err := fmt.Fprintf(w, "  %s %s\n", gutter, line); err != nil {
			return err
		}
	}

	startCol := int(start.Col) - 1
	endCol := len(text)
	if end.Line == start.Line {
		endCol = int(end.Col) - 1
	}
	startCol = min(startCol, len(text))
	endCol = max(min(endCol, len(text)), startCol)

	pad := runewidth.StringWidth(expandTabs(text[:startCol]))
	width := max(runewidth.StringWidth(expandTabs(text[startCol:endCol])), 1)
	underline := "^" + strings.Repeat("~", width-1)
	gutter := p.gutter.Sprintf("%*s |", gutterWidth, "")
	_, err := fmt.Fprintf(w, "  %s %s%s\n", gutter, strings.Repeat(" ", pad), mark.Sprint(underline))
	return err
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}
