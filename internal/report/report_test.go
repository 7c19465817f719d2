package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chromy/ink-proof/internal/harness"
	"github.com/chromy/ink-proof/internal/job"
	"github.com/chromy/ink-proof/internal/status"
)

func intPtr(n int) *int { return &n }

// settledResult fabricates a terminal result carrying the wanted
// status, built from the same ladder the harness uses.
func settledResult(t *testing.T, program, example string, want status.Status) harness.Result {
	t.Helper()
	run := &job.Job{}
	diff := &job.Job{}
	switch want {
	case status.Success:
		run.ExitCode = intPtr(0)
		diff.ExitCode = intPtr(0)
	case status.Fail:
		run.ExitCode = intPtr(0)
		diff.ExitCode = intPtr(1)
	case status.Timeout:
		run.TimedOut = true
	case status.InfraError:
		run.InfraErr = errors.New("spawn failed")
	case status.RuntimeCrashed:
		run.ExitCode = intPtr(2)
	default:
		t.Fatalf("settledResult cannot fabricate %s", want)
	}
	r := &harness.RunResult{
		Driver:  &harness.Driver{Name: program, Kind: harness.RuntimeDriver},
		Fixture: &harness.Fixture{Name: example, Kind: harness.BytecodeFixture},
		Run:     run,
		Diff:    diff,
	}
	r.Settle()
	require.Equal(t, want, r.Status())
	return r
}

func TestExitCode_MapsResultSetsToProcessExit(t *testing.T) {
	t.Parallel()

	success := settledResult(t, "inkjs", "a", status.Success)
	fail := settledResult(t, "inkjs", "b", status.Fail)
	crash := settledResult(t, "inkjs", "c", status.RuntimeCrashed)
	timeout := settledResult(t, "inkjs", "d", status.Timeout)

	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 0, ExitCode([]harness.Result{success}))
	assert.Equal(t, 1, ExitCode([]harness.Result{success, fail}))
	assert.Equal(t, 2, ExitCode([]harness.Result{success, crash}))
	assert.Equal(t, 2, ExitCode([]harness.Result{timeout}))
	// FAIL outranks every other non-success.
	assert.Equal(t, 1, ExitCode([]harness.Result{crash, fail, timeout}))
}

func TestTally_AggregatesPerProgramSortedByName(t *testing.T) {
	t.Parallel()

	results := []harness.Result{
		settledResult(t, "inkjs", "a", status.Success),
		settledResult(t, "inkjs", "b", status.Fail),
		settledResult(t, "inklecore", "a", status.Success),
	}

	tallies := Tally(results)
	require.Len(t, tallies, 2)
	assert.Equal(t, ProgramTally{Program: "inkjs", Passed: 1, Total: 2}, tallies[0])
	assert.Equal(t, ProgramTally{Program: "inklecore", Passed: 1, Total: 1}, tallies[1])
}

func TestBadge_EncodesFractionAndColor(t *testing.T) {
	t.Parallel()

	full := string(Badge("inkjs", 3, 3))
	assert.Contains(t, full, ">3/3<")
	assert.Contains(t, full, badgePassColor)

	partial := string(Badge("inkjs", 2, 3))
	assert.Contains(t, partial, ">2/3<")
	assert.Contains(t, partial, badgeFailColor)
}

func TestWriteBadges_WritesOneSVGPerProgram(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	results := []harness.Result{
		settledResult(t, "inkjs", "a", status.Success),
		settledResult(t, "inklecore", "a", status.Fail),
	}
	require.NoError(t, WriteBadges(results, dir))

	for _, name := range []string{"inkjs.svg", "inklecore.svg"} {
		raw, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Contains(t, string(raw), "<svg")
	}
}

func TestBuild_ProducesSummaryShape(t *testing.T) {
	t.Parallel()

	programs := []*harness.Driver{{Name: "inkjs", Kind: harness.RuntimeDriver}}
	examples := []*harness.Fixture{{Name: "hello", Kind: harness.BytecodeFixture}}
	results := []harness.Result{settledResult(t, "inkjs", "hello", status.Success)}

	summary := Build(programs, examples, results, "")
	raw, err := json.Marshal(summary)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Contains(t, decoded, "metadata")
	assert.Contains(t, decoded, "statuses")
	assert.Contains(t, decoded, "programs")
	assert.Contains(t, decoded, "examples")
	assert.Contains(t, decoded, "results")

	statuses := decoded["statuses"].(map[string]any)
	assert.Len(t, statuses, 7)
	assert.Contains(t, statuses, "SUCCESS")
	assert.Contains(t, statuses, "COMPILER_NO_OUTPUT")

	metadata := decoded["metadata"].(map[string]any)
	assert.NotEmpty(t, metadata["timestamp"])
	assert.NotEmpty(t, metadata["runId"])

	rs := decoded["results"].([]any)
	require.Len(t, rs, 1)
	first := rs[0].(map[string]any)
	assert.Equal(t, "SUCCESS", first["status"])
	assert.Equal(t, "inkjs", first["program"])
}

func TestConsole_Render_When_NotATerminal_PlainText(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	results := []harness.Result{
		settledResult(t, "inkjs", "a", status.Success),
		settledResult(t, "inkjs", "b", status.Timeout),
	}
	NewConsole(&buf, false).Render(results)

	out := buf.String()
	assert.Contains(t, out, "inkjs")
	assert.Contains(t, out, "1/2")
	assert.Contains(t, out, "TIMEOUT")
	assert.NotContains(t, out, "\x1b[", "styling leaked into non-TTY output")
}

func TestCopyAssets_MirrorsUIAndFixtureTrees(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	out := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("<html>"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "bytecode", "hello"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "bytecode", "hello", "bytecode.json"), []byte("{}"), 0o644))

	// A stale copy from an earlier run must be replaced.
	require.NoError(t, os.MkdirAll(filepath.Join(out, "bytecode", "stale"), 0o755))

	require.NoError(t, CopyAssets(root, out))

	_, err := os.Stat(filepath.Join(out, "index.html"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(out, "bytecode", "hello", "bytecode.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(out, "bytecode", "stale"))
	assert.True(t, os.IsNotExist(err))
}
