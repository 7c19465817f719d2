package harness

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/chromy/ink-proof/internal/job"
)

// artifactName builds the flat output-file name for a chain stage,
// e.g. "inkjs_hello_stdout.txt".
func artifactName(parts []string, suffix string) string {
	return strings.Join(parts, "_") + suffix
}

// NewRunChain wires the run→diff jobs for one runtime playing one
// bytecode fixture. The diff job depends on the run job and compares
// the expected transcript against the captured stdout.
func NewRunChain(runtime *Driver, fixture *Fixture, outDir string, timeout time.Duration, diffCommand []string) (*RunResult, []*job.Job) {
	parts := []string{runtime.Name, fixture.Name}
	run := &job.Job{
		Name:       artifactName(parts, ""),
		Command:    []string{runtime.Path, fixture.SourcePath},
		StdinPath:  fixture.InputPath,
		StdoutPath: filepath.Join(outDir, artifactName(parts, "_stdout.txt")),
		StderrPath: filepath.Join(outDir, artifactName(parts, "_stderr.txt")),
		Timeout:    timeout,
	}
	diff := newDiffJob(diffCommand, fixture.TranscriptPath, run.StdoutPath,
		filepath.Join(outDir, artifactName(parts, "_diff.txt")), run)

	result := &RunResult{
		Driver:  runtime,
		Fixture: fixture,
		Run:     run,
		Diff:    diff,
	}
	return result, []*job.Job{run, diff}
}

// NewCompileChain wires the compile→run→diff jobs for one compiler
// building one source fixture, played back on the reference runtime.
// The compile job's declared output artifact is both a dependency-
// produced input and a precondition of the run job.
func NewCompileChain(compiler, runtime *Driver, fixture *Fixture, outDir string, timeout time.Duration, diffCommand []string) (*CompileResult, []*job.Job) {
	compileParts := []string{compiler.Name, fixture.Name}
	chainParts := []string{compiler.Name, runtime.Name, fixture.Name}

	compileOut := filepath.Join(outDir, artifactName(compileParts, "_out.json"))
	compile := &job.Job{
		Name:       artifactName(compileParts, ""),
		Command:    []string{compiler.Path, "-o", compileOut, fixture.SourcePath},
		StdoutPath: filepath.Join(outDir, artifactName(compileParts, "_stdout.txt")),
		StderrPath: filepath.Join(outDir, artifactName(compileParts, "_stderr.txt")),
		Timeout:    timeout,
	}
	run := &job.Job{
		Name:          artifactName(chainParts, ""),
		Command:       []string{runtime.Path, compileOut},
		StdinPath:     fixture.InputPath,
		StdoutPath:    filepath.Join(outDir, artifactName(chainParts, "_stdout.txt")),
		StderrPath:    filepath.Join(outDir, artifactName(chainParts, "_stderr.txt")),
		Deps:          []*job.Job{compile},
		Preconditions: []string{compileOut},
		Timeout:       timeout,
	}
	diff := newDiffJob(diffCommand, fixture.TranscriptPath, run.StdoutPath,
		filepath.Join(outDir, artifactName(chainParts, "_diff.txt")), run)

	result := &CompileResult{
		Compiler:   compiler,
		Runtime:    runtime,
		Fixture:    fixture,
		Compile:    compile,
		CompileOut: compileOut,
		Run:        run,
		Diff:       diff,
	}
	return result, []*job.Job{compile, run, diff}
}

// newDiffJob builds the line-diff invocation. Diff jobs carry no
// timeout: the inputs are regular files and the differ is trusted
// harness infrastructure.
func newDiffJob(diffCommand []string, expectedPath, actualPath, outPath string, dep *job.Job) *job.Job {
	command := make([]string, 0, len(diffCommand)+2)
	command = append(command, diffCommand...)
	command = append(command, expectedPath, actualPath)
	return &job.Job{
		Name:       filepath.Base(outPath),
		Command:    command,
		StdoutPath: outPath,
		Deps:       []*job.Job{dep},
	}
}
