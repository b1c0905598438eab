package report

import (
	"encoding/json"
	"io"
)

// Output is the root of the JSON and YAML reports.
type Output struct {
	Files []Summary `json:"files" yaml:"files"`
	Count int       `json:"count" yaml:"count"`
}

// WriteJSON renders summaries as indented JSON.
func WriteJSON(w io.Writer, summaries []Summary) error {
	if summaries == nil {
		summaries = []Summary{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Output{Files: summaries, Count: len(summaries)})
}
