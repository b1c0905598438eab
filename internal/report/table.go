package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// TableOptions controls text rendering.
type TableOptions struct {
	Color bool
}

type styles struct {
	header lipgloss.Style
	path   lipgloss.Style
	dim    lipgloss.Style
}

func newStyles(color bool) styles {
	if !color {
		plain := lipgloss.NewStyle()
		return styles{header: plain, path: plain, dim: plain}
	}
	return styles{
		header: lipgloss.NewStyle().Bold(true),
		path:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		dim:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
}

// WriteTable renders summaries as one table per file:
//
//	path (N scopes)
//	FUNCTION  OFFSET  COUNT  SCOPES
//	helper    0       1      0=h
func WriteTable(w io.Writer, summaries []Summary, opts TableOptions) error {
	st := newStyles(opts.Color)
	for i, s := range summaries {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := writeOne(w, s, st); err != nil {
			return err
		}
	}
	return nil
}

func writeOne(w io.Writer, s Summary, st styles) error {
	noun := "scopes"
	if s.Total == 1 {
		noun = "scope"
	}
	title := st.path.Render(s.Path) + st.dim.Render(fmt.Sprintf(" (%d %s)", s.Total, noun))
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	if len(s.Funcs) == 0 {
		_, err := fmt.Fprintln(w, st.dim.Render("  no functions"))
		return err
	}

	rows := [][]string{{"FUNCTION", "OFFSET", "COUNT", "SCOPES"}}
	for _, f := range s.Funcs {
		scopes := make([]string, len(f.Scopes))
		for i, e := range f.Scopes {
			scopes[i] = strconv.FormatUint(uint64(e.ID), 10) + "=" + e.Name
		}
		rows = append(rows, []string{
			"@" + f.Name,
			strconv.FormatUint(uint64(f.Offset), 10),
			strconv.Itoa(f.Count),
			strings.Join(scopes, " "),
		})
	}

	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for c, cell := range row {
			widths[c] = max(widths[c], runewidth.StringWidth(cell))
		}
	}
	for r, row := range rows {
		var sb strings.Builder
		sb.WriteString("  ")
		for c, cell := range row {
			if c == len(row)-1 {
				sb.WriteString(cell)
				break
			}
			sb.WriteString(runewidth.FillRight(cell, widths[c]+2))
		}
		line := strings.TrimRight(sb.String(), " ")
		if r == 0 {
			line = st.header.Render(line)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if len(s.Skipped) > 0 {
		msg := "  not reached: @" + strings.Join(s.Skipped, ", @")
		if _, err := fmt.Fprintln(w, st.dim.Render(msg)); err != nil {
			return err
		}
	}
	return nil
}
