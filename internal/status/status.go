// Package status defines the closed set of terminal classifications a
// conformance result can settle to, plus the human-facing metadata the
// report renders for each of them.
package status

// Status is one terminal classification. The zero value is Success.
type Status int

const (
	Success Status = iota
	Fail
	Timeout
	InfraError
	RuntimeCrashed
	CompilerCrashed
	CompilerNoOutput
)

// SummaryField names a per-result field the report should surface for
// results carrying this status.
type SummaryField struct {
	Name      string `json:"name"`
	HumanName string `json:"humanName"`
}

// Metadata is the static, human-facing description of a status.
type Metadata struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Symbol      string         `json:"symbol"`
	Summary     []SummaryField `json:"summary"`
}

var metadata = map[Status]Metadata{
	Success: {
		Name:        "SUCCESS",
		Description: "Output matches the expected transcript",
		Symbol:      "💚",
		Summary:     []SummaryField{},
	},
	Fail: {
		Name:        "FAIL",
		Description: "Actual output does not match expected",
		Symbol:      "❌",
		Summary: []SummaryField{
			{Name: "diffPath", HumanName: "Diff"},
		},
	},
	Timeout: {
		Name:        "TIMEOUT",
		Description: "The program timed out",
		Symbol:      "⌛",
		Summary:     []SummaryField{},
	},
	InfraError: {
		Name:        "INFRA_ERROR",
		Description: "The test harness itself failed",
		Symbol:      "🏗️",
		Summary: []SummaryField{
			{Name: "infraError", HumanName: "Infra error"},
		},
	},
	RuntimeCrashed: {
		Name:        "RUNTIME_CRASHED",
		Description: "The runtime crashed on this input",
		Symbol:      "🔥",
		Summary: []SummaryField{
			{Name: "errPath", HumanName: "Stderr"},
		},
	},
	CompilerCrashed: {
		Name:        "COMPILER_CRASHED",
		Description: "The compiler crashed on this input",
		Symbol:      "🔥",
		Summary: []SummaryField{
			{Name: "compileErrPath", HumanName: "Compiler stderr"},
		},
	},
	CompilerNoOutput: {
		Name:        "COMPILER_NO_OUTPUT",
		Description: "The compiler exited cleanly but produced no output",
		Symbol:      "📭",
		Summary: []SummaryField{
			{Name: "compileErrPath", HumanName: "Compiler stderr"},
		},
	},
}

// All returns every status in report order.
func All() []Status {
	return []Status{
		Success,
		Fail,
		Timeout,
		InfraError,
		RuntimeCrashed,
		CompilerCrashed,
		CompilerNoOutput,
	}
}

func (s Status) String() string {
	return metadata[s].Name
}

// Symbol returns the status glyph used in rendered reports.
func (s Status) Symbol() string {
	return metadata[s].Symbol
}

// Describe returns the status's static metadata for serialization.
func (s Status) Describe() Metadata {
	return metadata[s]
}
