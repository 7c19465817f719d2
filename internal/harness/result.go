package harness

import (
	"os"

	"github.com/chromy/ink-proof/internal/job"
	"github.com/chromy/ink-proof/internal/status"
)

// DefaultStderrCrashThreshold is the stderr size in bytes above which a
// diff mismatch is reclassified as a runtime crash. inklecate reports
// uncaught exceptions with a zero exit code and a BOM-prefixed empty
// stdout; the only visible signal is a non-trivial stderr. This is
// specific to that runtime's error reporting, not a general rule.
const DefaultStderrCrashThreshold = 5

// Result is a settled-exactly-once classification of one job chain.
// Settle must only be called after every job in the chain is terminal;
// calling it again is a no-op, so classification is idempotent.
type Result interface {
	Settle()
	Status() status.Status
	Program() string
	Example() string
	Describe(base string) Record
}

// Record is one result's entry in the JSON summary. Compile-stage
// fields are only present for compile chains.
type Record struct {
	Status              string `json:"status"`
	Program             string `json:"program"`
	Compiler            string `json:"compiler,omitempty"`
	Runtime             string `json:"runtime,omitempty"`
	Example             string `json:"example"`
	DiffPath            string `json:"diffPath"`
	OutPath             string `json:"outPath"`
	ErrPath             string `json:"errPath"`
	ExitCode            *int   `json:"exitcode"`
	DiffExitCode        *int   `json:"diffExitcode,omitempty"`
	CompileOutPath      string `json:"compileOutPath,omitempty"`
	CompileErrPath      string `json:"compileErrPath,omitempty"`
	CompileBytecodePath string `json:"compileBytecodePath,omitempty"`
	CompilerExitCode    *int   `json:"compilerExitcode,omitempty"`
	InfraError          string `json:"infraError,omitempty"`
}

// chain carries the jobs a settle ladder inspects. compile is nil for
// run-only chains; compileOut is the artifact path the compile job was
// asked to produce.
type chain struct {
	compile         *job.Job
	compileOut      string
	run             *job.Job
	diff            *job.Job
	stderrThreshold int64
}

// settle reduces a terminal chain to one status using first-match
// priority. Infrastructure failures and timeouts are checked before
// anything that could be blamed on the software under test; a nonzero
// exit outranks an output mismatch. A skipped downstream job never
// reaches its own rungs because the upstream failure matches first.
func (c chain) settle() (status.Status, error) {
	if c.compile != nil {
		if c.compile.TimedOut {
			return status.Timeout, nil
		}
		if c.compile.InfraErr != nil {
			return status.InfraError, c.compile.InfraErr
		}
		if c.compile.ExitCode != nil && *c.compile.ExitCode != 0 {
			return status.CompilerCrashed, nil
		}
		if _, err := os.Stat(c.compileOut); err != nil {
			return status.CompilerNoOutput, nil
		}
	}
	if c.run.TimedOut {
		return status.Timeout, nil
	}
	if c.run.InfraErr != nil {
		return status.InfraError, c.run.InfraErr
	}
	if c.run.ExitCode != nil && *c.run.ExitCode != 0 {
		return status.RuntimeCrashed, nil
	}
	if c.diff.ExitCode != nil && *c.diff.ExitCode == 1 {
		if fileSize(c.run.StderrPath) > c.threshold() {
			return status.RuntimeCrashed, nil
		}
		return status.Fail, nil
	}
	return status.Success, nil
}

func (c chain) threshold() int64 {
	if c.stderrThreshold > 0 {
		return c.stderrThreshold
	}
	return DefaultStderrCrashThreshold
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// RunResult classifies a run-only chain: a runtime playing a bytecode
// fixture, then a diff against the expected transcript.
type RunResult struct {
	Driver  *Driver
	Fixture *Fixture
	Run     *job.Job
	Diff    *job.Job

	// StderrCrashThreshold overrides DefaultStderrCrashThreshold when
	// positive.
	StderrCrashThreshold int64

	settled  bool
	st       status.Status
	infraErr error
}

func (r *RunResult) Settle() {
	if r.settled {
		return
	}
	r.st, r.infraErr = chain{
		run:             r.Run,
		diff:            r.Diff,
		stderrThreshold: r.StderrCrashThreshold,
	}.settle()
	r.settled = true
}

func (r *RunResult) Status() status.Status { return r.st }
func (r *RunResult) Program() string       { return r.Driver.Name }
func (r *RunResult) Example() string       { return r.Fixture.Name }

func (r *RunResult) Describe(base string) Record {
	rec := Record{
		Status:   r.st.String(),
		Program:  r.Driver.Name,
		Example:  r.Fixture.Name,
		DiffPath: relPath(base, r.Diff.StdoutPath),
		OutPath:  relPath(base, r.Run.StdoutPath),
		ErrPath:  relPath(base, r.Run.StderrPath),
		ExitCode: r.Run.ExitCode,
	}
	if r.infraErr != nil {
		rec.InfraError = r.infraErr.Error()
	}
	return rec
}

// CompileResult classifies a full chain: a compiler producing bytecode,
// the reference runtime playing it, then a diff.
type CompileResult struct {
	Compiler   *Driver
	Runtime    *Driver
	Fixture    *Fixture
	Compile    *job.Job
	CompileOut string
	Run        *job.Job
	Diff       *job.Job

	// StderrCrashThreshold overrides DefaultStderrCrashThreshold when
	// positive.
	StderrCrashThreshold int64

	settled  bool
	st       status.Status
	infraErr error
}

func (r *CompileResult) Settle() {
	if r.settled {
		return
	}
	r.st, r.infraErr = chain{
		compile:         r.Compile,
		compileOut:      r.CompileOut,
		run:             r.Run,
		diff:            r.Diff,
		stderrThreshold: r.StderrCrashThreshold,
	}.settle()
	r.settled = true
}

func (r *CompileResult) Status() status.Status { return r.st }
func (r *CompileResult) Program() string       { return r.Compiler.Name }
func (r *CompileResult) Example() string       { return r.Fixture.Name }

func (r *CompileResult) Describe(base string) Record {
	rec := Record{
		Status:              r.st.String(),
		Program:             r.Compiler.Name,
		Compiler:            r.Compiler.Name,
		Runtime:             r.Runtime.Name,
		Example:             r.Fixture.Name,
		DiffPath:            relPath(base, r.Diff.StdoutPath),
		OutPath:             relPath(base, r.Run.StdoutPath),
		ErrPath:             relPath(base, r.Run.StderrPath),
		ExitCode:            r.Run.ExitCode,
		DiffExitCode:        r.Diff.ExitCode,
		CompileOutPath:      relPath(base, r.Compile.StdoutPath),
		CompileErrPath:      relPath(base, r.Compile.StderrPath),
		CompileBytecodePath: relPath(base, r.CompileOut),
		CompilerExitCode:    r.Compile.ExitCode,
	}
	if r.infraErr != nil {
		rec.InfraError = r.infraErr.Error()
	}
	return rec
}
