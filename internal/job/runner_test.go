package job

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_Run_When_EmptyBatch_Returns(t *testing.T) {
	t.Parallel()

	NewRunner(2).Run(nil)
}

func TestRunner_Run_When_GateCapacityTwo_BoundsConcurrency(t *testing.T) {
	t.Parallel()

	// 10 independent jobs sleeping 200ms each through a capacity-2
	// gate cannot finish in fewer than 5 batches.
	script := writeScript(t, "sleep.sh", "sleep 0.2")
	jobs := make([]*Job, 10)
	for i := range jobs {
		jobs[i] = &Job{Command: []string{script}}
	}

	start := time.Now()
	NewRunner(2).Run(jobs)
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 5*200*time.Millisecond,
		"10 jobs of 200ms through a 2-slot gate finished in %v", elapsed)
	for _, j := range jobs {
		require.True(t, j.Succeeded())
	}
}

func TestRunner_Run_When_DiamondGraph_AllTerminal(t *testing.T) {
	t.Parallel()

	ok := writeScript(t, "ok.sh", "exit 0")
	root := &Job{Command: []string{ok}}
	left := &Job{Command: []string{ok}, Deps: []*Job{root}}
	right := &Job{Command: []string{ok}, Deps: []*Job{root}}
	sink := &Job{Command: []string{ok}, Deps: []*Job{left, right}}

	NewRunner(2).Run([]*Job{root, left, right, sink})

	for _, j := range []*Job{root, left, right, sink} {
		assert.True(t, j.Terminal())
		assert.True(t, j.Succeeded())
	}
	assert.False(t, sink.StartedAt.Before(left.FinishedAt))
	assert.False(t, sink.StartedAt.Before(right.FinishedAt))
}

func TestRunner_Run_When_LogSet_SpawnsAreLogged(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	script := writeScript(t, "ok.sh", "exit 0")
	r := NewRunner(1)
	r.Log = &buf
	r.Run([]*Job{{Command: []string{script, "one"}}})

	assert.Contains(t, buf.String(), filepath.Base(script))
	assert.Contains(t, buf.String(), "running")
}

func TestGate_When_CapacityNonPositive_UsesDefault(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultGateCapacity, NewGate(0).Capacity())
	assert.Equal(t, DefaultGateCapacity, NewGate(-3).Capacity())
	assert.Equal(t, 7, NewGate(7).Capacity())
}
