package report

import (
	"encoding/json"
	"io"

	"github.com/google/uuid"

	"github.com/antoninbas/stepmark/pkg/mark"
)

// Document is the JSON form of a benchmark run: raw samples and their
// summary, with enough metadata to tell runs apart.
type Document struct {
	ID             string            `json:"id"`
	Revision       string            `json:"revision,omitempty"`
	HarnessVersion string            `json:"harnessVersion"`
	RunCount       int               `json:"runCount"`
	Steps          []string          `json:"steps"`
	Results        *mark.ResultStore `json:"results"`
	Summary        *mark.Summaries   `json:"summary"`
}

func NewDocument(harnessVersion, revision string, runner *mark.Runner, results *mark.ResultStore, summary *mark.Summaries) *Document {
	return &Document{
		ID:             uuid.NewString(),
		Revision:       revision,
		HarnessVersion: harnessVersion,
		RunCount:       runner.RunCount(),
		Steps:          runner.Steps(),
		Results:        results,
		Summary:        summary,
	}
}

func (d *Document) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}
