package version

import (
	"strings"
	"testing"
)

func TestColoredPlain(t *testing.T) {
	tests := []struct{ in, want string }{
		{in: "0.1.0-dev", want: "0.1.0-dev"},
		{in: "1.2.3", want: "1.2.3"},
		{in: "2.0.0-rc.1", want: "2.0.0-rc.1"},
	}
	for _, tt := range tests {
		if got := Colored(tt.in, false); got != tt.want {
			t.Errorf("Colored(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestColoredAddsEscapes(t *testing.T) {
	got := Colored("1.2.3", true)
	for _, part := range []string{"1", "2", "3"} {
		if !strings.Contains(got, "m"+part+"\x1b[") {
			t.Fatalf("Colored = %q, part %q is not wrapped in escapes", got, part)
		}
	}
	if !strings.HasPrefix(got, "\x1b[") || !strings.HasSuffix(got, "m") {
		t.Fatalf("Colored = %q", got)
	}
}

func TestLineCanBeOverridden(t *testing.T) {
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	defer func() { Version, GitCommit, BuildDate = origVersion, origCommit, origDate }()

	Version = "1.2.3"
	GitCommit = "abc123def456789"
	BuildDate = "2024-01-15T10:30:00Z"
	want := "scopealloc 1.2.3 (abc123def456) built 2024-01-15T10:30:00Z"
	if got := Line(false); got != want {
		t.Fatalf("Line = %q, want %q", got, want)
	}
}
