package version

import (
	"strings"

	"github.com/fatih/color"
)

// Build information for the scopealloc CLI, overridable with -ldflags.
var (
	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var partColors = []*color.Color{
	color.New(color.FgYellow, color.Bold),
	color.New(color.FgGreen, color.Bold),
	color.New(color.FgBlue, color.Bold),
}

// Colored renders major, minor and patch in their own colors. Any
// pre-release suffix is left plain.
func Colored(v string, enabled bool) string {
	core, suffix, hasSuffix := strings.Cut(v, "-")
	parts := strings.SplitN(core, ".", len(partColors))
	for i, p := range parts {
		c := *partColors[i]
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		parts[i] = c.Sprint(p)
	}
	out := strings.Join(parts, ".")
	if hasSuffix {
		out += "-" + suffix
	}
	return out
}

// Line is the one-line description printed by "scopealloc version".
func Line(enabled bool) string {
	var b strings.Builder
	b.WriteString("scopealloc ")
	b.WriteString(Colored(Version, enabled))
	if GitCommit != "" {
		commit := GitCommit
		if len(commit) > 12 {
			commit = commit[:12]
		}
		b.WriteString(" (" + commit + ")")
	}
	if BuildDate != "" {
		b.WriteString(" built " + BuildDate)
	}
	return b.String()
}
