// Package job runs batches of subprocess invocations wired into a
// dependency DAG, with bounded concurrency and per-job timeouts.
//
// A Job is shared by reference: the jobs that depend on it and the
// result that reports on it all observe the same terminal state. After
// Begin, exactly one of the following holds once the job is terminal:
//
//   - the process ran to completion and ExitCode is set
//   - TimedOut is set (the process was forcibly terminated)
//   - InfraErr is set (spawn failed, a precondition file was missing,
//     or reaping failed)
//   - the job was skipped because a dependency did not succeed, in
//     which case all outcome fields stay unset
//
// Skipped is deliberately distinct from failed: a skipped job never
// spawned a process, and callers that need to know why must inspect
// the dependency chain themselves.
package job

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"
)

// ErrPrecondition marks an infra error caused by a missing
// precondition file. Use errors.Is to detect it.
var ErrPrecondition = errors.New("precondition file missing")

// Job is one schedulable subprocess invocation.
//
// All configuration fields must be set before Begin and never mutated
// afterwards. Outcome fields are written by the job's own goroutine and
// must only be read after Done is closed.
type Job struct {
	// Name identifies the job in logs.
	Name string

	// Command is the program path followed by its arguments.
	Command []string

	// StdinPath, StdoutPath and StderrPath configure stream
	// redirection. Empty means the stream is not connected.
	StdinPath  string
	StdoutPath string
	StderrPath string

	// Deps are the jobs that must reach a terminal state before this
	// job may run. If any of them does not complete normally with exit
	// code zero, this job is skipped.
	Deps []*Job

	// Preconditions are file paths that must exist when the job is
	// about to run. A missing path is an infra error, not a failure of
	// the program under test.
	Preconditions []string

	// Timeout bounds the process run time. Zero means no bound.
	Timeout time.Duration

	// Outcome fields. Valid only after the job is terminal.
	ExitCode *int
	TimedOut bool
	InfraErr error

	// StartedAt and FinishedAt bracket the spawn-to-reap window.
	// Zero for jobs that never spawned.
	StartedAt  time.Time
	FinishedAt time.Time

	done chan struct{}
	logf func(format string, args ...any)
}

// Begin schedules the job without blocking the caller. The gate bounds
// how many jobs may have a live process at once; every job in a batch
// must share the same gate.
func (j *Job) Begin(gate *Gate) {
	j.done = make(chan struct{})
	go func() {
		defer close(j.done)
		j.run(gate)
	}()
}

// Done is closed when the job reaches a terminal state. It must not be
// called before Begin.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Terminal reports whether the job has reached a terminal state.
func (j *Job) Terminal() bool {
	if j.done == nil {
		return false
	}
	select {
	case <-j.done:
		return true
	default:
		return false
	}
}

// Succeeded reports whether the process ran to completion with exit
// code zero.
func (j *Job) Succeeded() bool {
	return j.ExitCode != nil && *j.ExitCode == 0
}

// Skipped reports whether the job was short-circuited by a dependency
// that did not succeed. Only meaningful once the job is terminal.
func (j *Job) Skipped() bool {
	return j.ExitCode == nil && !j.TimedOut && j.InfraErr == nil
}

func (j *Job) run(gate *Gate) {
	// Wait-all on dependencies, then short-circuit if any of them did
	// not complete normally. A timed-out, errored or itself-skipped
	// dependency has a nil exit code and skips us too.
	for _, dep := range j.Deps {
		<-dep.Done()
	}
	for _, dep := range j.Deps {
		if !dep.Succeeded() {
			return
		}
	}

	for _, path := range j.Preconditions {
		if _, err := os.Stat(path); err != nil {
			j.InfraErr = fmt.Errorf("%w: %s", ErrPrecondition, path)
			return
		}
	}

	gate.Acquire()
	defer gate.Release()

	var stdin io.ReadCloser
	var stdout, stderr io.WriteCloser
	closeStreams := func() {
		if stdin != nil {
			stdin.Close()
		}
		if stdout != nil {
			stdout.Close()
		}
		if stderr != nil {
			stderr.Close()
		}
	}
	defer closeStreams()

	if j.StdinPath != "" {
		f, err := os.Open(j.StdinPath)
		if err != nil {
			j.InfraErr = err
			return
		}
		stdin = f
	}
	if j.StdoutPath != "" {
		f, err := os.Create(j.StdoutPath)
		if err != nil {
			j.InfraErr = err
			return
		}
		stdout = f
	}
	if j.StderrPath != "" {
		f, err := os.Create(j.StderrPath)
		if err != nil {
			j.InfraErr = err
			return
		}
		stderr = f
	}

	cmd := exec.Command(j.Command[0], j.Command[1:]...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	setProcessGroup(cmd)

	if j.logf != nil {
		j.logf("running %q", joinCommand(j.Command))
	}
	j.StartedAt = time.Now()
	if err := cmd.Start(); err != nil {
		// Executable missing or not runnable.
		j.InfraErr = err
		return
	}
	defer func() { j.FinishedAt = time.Now() }()

	waitErr := j.await(cmd)
	code, err := exitCode(waitErr, cmd)
	if err != nil {
		j.InfraErr = err
		return
	}
	j.ExitCode = &code
}

// await waits for the process, enforcing the timeout. On timeout the
// process group gets SIGTERM and a second wait bounded by the same
// duration; if that also expires the group gets SIGKILL, which cannot
// be ignored, so the final wait terminates.
func (j *Job) await(cmd *exec.Cmd) error {
	waited := make(chan error, 1)
	go func() { waited <- cmd.Wait() }()

	if j.Timeout <= 0 {
		return <-waited
	}

	select {
	case err := <-waited:
		return err
	case <-time.After(j.Timeout):
	}

	j.TimedOut = true
	_ = terminateProcessGroup(cmd)
	select {
	case err := <-waited:
		return err
	case <-time.After(j.Timeout):
	}
	_ = killProcessGroup(cmd)
	return <-waited
}

// exitCode turns a Wait result into an exit code. A nonzero exit is a
// normal terminal outcome here, not an error; anything else that Wait
// reports is an infra failure.
func exitCode(waitErr error, cmd *exec.Cmd) (int, error) {
	if waitErr == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		if code, ok := exitCodeFromError(exitErr); ok {
			return code, nil
		}
		return exitErr.ExitCode(), nil
	}
	return 0, fmt.Errorf("waiting for %s: %w", cmd.Path, waitErr)
}

func joinCommand(command []string) string {
	out := ""
	for i, part := range command {
		if i > 0 {
			out += " "
		}
		out += part
	}
	return out
}
