package ui

import (
	"strings"
	"testing"

	"scopealloc/internal/driver"
)

func TestProgressModelTracksEvents(t *testing.T) {
	events := make(chan driver.Event)
	m := NewProgressModel("alloc", []string{"a.pir", "b.pir"}, events).(*progressModel)

	m.Update(eventMsg{File: "a.pir", Stage: driver.StageParse, Status: driver.StatusWorking})
	if got := m.fraction(); got != 0.15 {
		t.Fatalf("fraction = %v, want 0.15", got)
	}
	m.Update(eventMsg{File: "a.pir", Stage: driver.StageAlloc, Status: driver.StatusDone})
	m.Update(eventMsg{File: "b.pir", Stage: driver.StageAlloc, Status: driver.StatusCached})
	m.Update(eventMsg{File: "unknown.pir", Status: driver.StatusError})
	if got := m.fraction(); got != 1 {
		t.Fatalf("fraction = %v, want 1", got)
	}

	view := m.View()
	for _, want := range []string{"alloc", "done", "cached", "a.pir", "b.pir"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}

	if _, cmd := m.Update(doneMsg{}); cmd == nil || !m.done {
		t.Fatal("doneMsg must quit")
	}
	if !strings.Contains(m.View(), "done: alloc") {
		t.Errorf("final view:\n%s", m.View())
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{in: "kernels/main.pir", width: 40, want: "kernels/main.pir"},
		{in: "kernels/main.pir", width: 10, want: "kernels..."},
		{in: "kernels/main.pir", width: 3, want: "ker"},
		{in: "kernels/main.pir", width: 0, want: "kernels/main.pir"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
