// Package report turns settled harness results into the artifacts the
// run publishes: summary.json, per-program SVG badges, the static HTML
// report tree and a terminal summary.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/xid"

	"github.com/chromy/ink-proof/internal/harness"
	"github.com/chromy/ink-proof/internal/status"
)

// Metadata describes the run itself.
type Metadata struct {
	Timestamp string `json:"timestamp"`
	RunID     string `json:"runId"`
}

// Summary is the full summary.json document.
type Summary struct {
	Metadata Metadata                   `json:"metadata"`
	Statuses map[string]status.Metadata `json:"statuses"`
	Programs []harness.ProgramRecord    `json:"programs"`
	Examples []harness.ExampleRecord    `json:"examples"`
	Results  []harness.Record           `json:"results"`
}

// Build assembles the summary document. Paths inside result and
// example records are made relative to outDir so the report tree is
// relocatable.
func Build(programs []*harness.Driver, examples []*harness.Fixture, results []harness.Result, outDir string) *Summary {
	statuses := make(map[string]status.Metadata, len(status.All()))
	for _, s := range status.All() {
		statuses[s.String()] = s.Describe()
	}

	programRecords := make([]harness.ProgramRecord, 0, len(programs))
	for _, p := range programs {
		programRecords = append(programRecords, p.Describe())
	}
	exampleRecords := make([]harness.ExampleRecord, 0, len(examples))
	for _, e := range examples {
		exampleRecords = append(exampleRecords, e.Describe(outDir))
	}
	resultRecords := make([]harness.Record, 0, len(results))
	for _, r := range results {
		resultRecords = append(resultRecords, r.Describe(outDir))
	}

	return &Summary{
		Metadata: Metadata{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			RunID:     xid.New().String(),
		},
		Statuses: statuses,
		Programs: programRecords,
		Examples: exampleRecords,
		Results:  resultRecords,
	}
}

// WriteFile serializes the summary to path.
func (s *Summary) WriteFile(path string) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	return nil
}

// ExitCode maps a result set to the process exit code: 0 when every
// result succeeded, 1 when any result is a plain FAIL, 2 when the only
// non-successes are crashes, timeouts or infra errors.
func ExitCode(results []harness.Result) int {
	code := 0
	for _, r := range results {
		switch r.Status() {
		case status.Success:
		case status.Fail:
			return 1
		default:
			if code == 0 {
				code = 2
			}
		}
	}
	return code
}
