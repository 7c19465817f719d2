// Package harness discovers the fixture corpus and driver set, builds
// the compile/run/diff job chains for each (driver, fixture) pair,
// executes them through the job runner and settles every chain into a
// terminal status.
package harness

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"time"

	"github.com/chromy/ink-proof/internal/job"
)

// Options configures one harness run. Zero values select the
// defaults noted on each field.
type Options struct {
	// Root is the corpus root holding ink/, bytecode/ and drivers/.
	Root string

	// OutDir receives every captured stream, compiled artifact and
	// report file. Created if absent.
	OutDir string

	// Timeout bounds each compile and run job. Default 2s.
	Timeout time.Duration

	// Parallelism caps concurrently running subprocesses. Default 30.
	Parallelism int

	// ExampleFilter selects fixtures by name when non-nil.
	ExampleFilter *regexp.Regexp

	// ReferenceCompiler and ReferenceRuntime name the drivers used for
	// the stages the harness itself needs to trust.
	ReferenceCompiler string
	ReferenceRuntime  string

	// DiffCommand invokes the line differ; the expected and actual
	// paths are appended. Default: this binary's internal-diff
	// subcommand.
	DiffCommand []string

	// StderrCrashThreshold overrides DefaultStderrCrashThreshold when
	// positive.
	StderrCrashThreshold int64

	// Log receives per-spawn progress lines. Nil disables logging.
	Log io.Writer
}

// DefaultTimeout bounds compile and run jobs unless configured
// otherwise.
const DefaultTimeout = 2 * time.Second

// Harness holds the discovered corpus and drivers for one run.
type Harness struct {
	opts     Options
	fixtures []*Fixture
	drivers  []*Driver

	referenceCompiler *Driver
	referenceRuntime  *Driver
}

// New discovers fixtures and drivers under opts.Root and validates the
// reference driver selection. A fixture missing a required file is
// fatal here, before any job exists.
func New(opts Options) (*Harness, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	fixtures, err := DiscoverFixtures(opts.Root)
	if err != nil {
		return nil, err
	}
	drivers, err := DiscoverDrivers(opts.Root)
	if err != nil {
		return nil, err
	}

	// A reference name that does not match any discovered driver is a
	// configuration error, except when no drivers of that kind exist
	// at all; then the corresponding chains are simply not built.
	h := &Harness{opts: opts, fixtures: fixtures, drivers: drivers}
	if opts.ReferenceRuntime != "" && len(h.Runtimes()) > 0 {
		h.referenceRuntime = findDriver(h.Runtimes(), opts.ReferenceRuntime)
		if h.referenceRuntime == nil {
			return nil, fmt.Errorf("runtime %q unknown; available runtimes: %s",
				opts.ReferenceRuntime, driverNames(h.Runtimes()))
		}
	}
	if opts.ReferenceCompiler != "" && len(h.Compilers()) > 0 {
		h.referenceCompiler = findDriver(h.Compilers(), opts.ReferenceCompiler)
		if h.referenceCompiler == nil {
			return nil, fmt.Errorf("compiler %q unknown; available compilers: %s",
				opts.ReferenceCompiler, driverNames(h.Compilers()))
		}
	}
	return h, nil
}

// Compilers returns the discovered compiler drivers.
func (h *Harness) Compilers() []*Driver {
	return filterKind(h.drivers, CompilerDriver)
}

// Runtimes returns the discovered runtime drivers.
func (h *Harness) Runtimes() []*Driver {
	return filterKind(h.drivers, RuntimeDriver)
}

// Drivers returns every discovered driver, compilers first.
func (h *Harness) Drivers() []*Driver {
	return h.drivers
}

// ReferenceCompiler returns the selected reference compiler, or nil.
func (h *Harness) ReferenceCompiler() *Driver {
	return h.referenceCompiler
}

// ReferenceRuntime returns the selected reference runtime, or nil.
func (h *Harness) ReferenceRuntime() *Driver {
	return h.referenceRuntime
}

// SelectedFixtures returns the fixtures this run will exercise: not
// hidden, and matching the example filter when one is set.
func (h *Harness) SelectedFixtures() []*Fixture {
	var out []*Fixture
	for _, f := range h.fixtures {
		if f.Metadata.Hidden {
			continue
		}
		if h.opts.ExampleFilter != nil && !h.opts.ExampleFilter.MatchString(f.Name) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Run builds every job chain, drives the batch to completion and
// settles all results. Results are returned in chain-construction
// order: compile chains first, then run chains.
func (h *Harness) Run() ([]Result, error) {
	if err := os.MkdirAll(h.opts.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	diffCommand := h.opts.DiffCommand
	if len(diffCommand) == 0 {
		self, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("locating own binary for internal-diff: %w", err)
		}
		diffCommand = []string{self, "internal-diff"}
	}

	var jobs []*job.Job
	var results []Result
	for _, fixture := range h.SelectedFixtures() {
		switch fixture.Kind {
		case SourceFixture:
			if h.referenceRuntime == nil {
				continue
			}
			for _, compiler := range h.Compilers() {
				result, chainJobs := NewCompileChain(compiler, h.referenceRuntime, fixture,
					h.opts.OutDir, h.opts.Timeout, diffCommand)
				result.StderrCrashThreshold = h.opts.StderrCrashThreshold
				jobs = append(jobs, chainJobs...)
				results = append(results, result)
			}
		case BytecodeFixture:
			for _, runtime := range h.Runtimes() {
				result, chainJobs := NewRunChain(runtime, fixture,
					h.opts.OutDir, h.opts.Timeout, diffCommand)
				result.StderrCrashThreshold = h.opts.StderrCrashThreshold
				jobs = append(jobs, chainJobs...)
				results = append(results, result)
			}
		}
	}

	runner := job.NewRunner(h.opts.Parallelism)
	runner.Log = h.opts.Log
	runner.Run(jobs)

	for _, result := range results {
		result.Settle()
	}
	return results, nil
}

func driverNames(drivers []*Driver) string {
	names := ""
	for i, d := range drivers {
		if i > 0 {
			names += ", "
		}
		names += d.Name
	}
	return names
}
