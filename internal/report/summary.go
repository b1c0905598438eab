package report

import (
	"scopealloc/internal/scopeid"
)

// Entry is one (id, name) pair in module id space.
type Entry struct {
	ID   uint32 `json:"id" msgpack:"id" yaml:"id"`
	Name string `json:"name" msgpack:"name" yaml:"name"`
}

// FuncSummary describes the id range of one allocated function.
type FuncSummary struct {
	Name   string  `json:"name" msgpack:"name" yaml:"name"`
	Offset uint32  `json:"offset" msgpack:"offset" yaml:"offset"`
	Count  int     `json:"count" msgpack:"count" yaml:"count"`
	Scopes []Entry `json:"scopes" msgpack:"scopes" yaml:"scopes"`
}

// Summary is the printable and cacheable result for one file.
type Summary struct {
	Path    string        `json:"path" msgpack:"path" yaml:"path"`
	Total   int           `json:"total" msgpack:"total" yaml:"total"`
	Funcs   []FuncSummary `json:"functions" msgpack:"functions" yaml:"functions"`
	Skipped []string      `json:"skipped,omitempty" msgpack:"skipped,omitempty" yaml:"skipped,omitempty"`
	Scopes  []Entry       `json:"scopes" msgpack:"scopes" yaml:"scopes"`
}

// Summarize flattens a module allocation into a Summary. Functions are
// listed in allocation order; functions without an allocation are named in
// Skipped in module order.
func Summarize(path string, ma *scopeid.ModuleAllocation) Summary {
	s := Summary{
		Path:   path,
		Total:  ma.Total(),
		Funcs:  []FuncSummary{},
		Scopes: entries(ma.ScopeNames()),
	}
	for _, id := range ma.Order() {
		off, _ := ma.Offset(id)
		s.Funcs = append(s.Funcs, FuncSummary{
			Name:   ma.Module().Func(id).Name,
			Offset: uint32(off),
			Count:  ma.NumScopesOf(id),
			Scopes: entries(ma.ScopeNamesOf(id)),
		})
	}
	if m := ma.Module(); m != nil {
		for _, f := range m.Funcs {
			if ma.Allocation(f.ID) == nil {
				s.Skipped = append(s.Skipped, f.Name)
			}
		}
	}
	return s
}

func entries(names []scopeid.ScopeName) []Entry {
	out := make([]Entry, len(names))
	for i, n := range names {
		out[i] = Entry{ID: uint32(n.ID), Name: n.Name}
	}
	return out
}
