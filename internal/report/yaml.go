package report

import (
	"io"

	"gopkg.in/yaml.v3"
)

// WriteYAML renders summaries as a YAML document with the same shape as
// the JSON report.
func WriteYAML(w io.Writer, summaries []Summary) error {
	if summaries == nil {
		summaries = []Summary{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(Output{Files: summaries, Count: len(summaries)}); err != nil {
		return err
	}
	return enc.Close()
}
