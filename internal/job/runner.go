package job

import (
	"fmt"
	"io"
)

// Runner drives a flat batch of jobs to completion. It does not walk
// the dependency graph; ordering emerges from each job waiting on its
// own declared dependencies. The runner's one global responsibility is
// owning the gate that bounds subprocess concurrency.
//
// The batch must be acyclic. A cycle makes the involved jobs wait on
// each other forever; that is a caller bug, not a handled case.
type Runner struct {
	gate *Gate

	// Log receives one line per spawned process. Nil disables logging.
	Log io.Writer
}

// NewRunner creates a runner whose gate admits capacity concurrent
// subprocesses.
func NewRunner(capacity int) *Runner {
	return &Runner{gate: NewGate(capacity)}
}

// Gate exposes the runner's concurrency gate, mainly for tests that
// need to assert on its capacity.
func (r *Runner) Gate() *Gate {
	return r.gate
}

// Run begins every job and blocks until all of them are terminal,
// including jobs skipped because a dependency failed.
func (r *Runner) Run(jobs []*Job) {
	for _, j := range jobs {
		if r.Log != nil {
			j.logf = r.logf
		}
		j.Begin(r.gate)
	}
	for _, j := range jobs {
		<-j.Done()
	}
}

func (r *Runner) logf(format string, args ...any) {
	fmt.Fprintf(r.Log, format+"\n", args...)
}
