package harness

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chromy/ink-proof/internal/status"
)

// cmp(1) has diff-compatible exit codes (0 identical, 1 differ) and
// keeps these tests free of a dependency on the harness's own binary.
var testDiffCommand = []string{"cmp", "-s"}

// writeScriptDriver installs a driver whose body is a shell script.
func writeScriptDriver(t *testing.T, root, entry, body string) {
	t.Helper()
	folder := filepath.Join(root, "drivers")
	require.NoError(t, os.MkdirAll(folder, 0o755))
	path := filepath.Join(folder, entry)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
}

// catRuntime plays a bytecode file by printing it verbatim.
const catRuntime = `cat "$1"`

// copyCompiler implements the driver contract: driver -o OUT SRC.
const copyCompiler = `cp "$3" "$2"`

func TestHarness_Run_When_OutputMatchesTranscript_Success(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeScriptDriver(t, root, "inkjs_runtime_driver", catRuntime)
	writeFixture(t, root, BytecodeFixture, "hello", map[string]string{
		"bytecode.json":  "Hello, world.\n",
		"input.txt":      "",
		"transcript.txt": "Hello, world.\n",
	})

	h, err := New(Options{
		Root:        root,
		OutDir:      filepath.Join(root, "out"),
		DiffCommand: testDiffCommand,
	})
	require.NoError(t, err)

	results, err := h.Run()
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, status.Success, results[0].Status())
	assert.Equal(t, "inkjs", results[0].Program())
	assert.Equal(t, "hello", results[0].Example())
}

func TestHarness_Run_When_OutputDiffers_Fail(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeScriptDriver(t, root, "inkjs_runtime_driver", catRuntime)
	writeFixture(t, root, BytecodeFixture, "hello", map[string]string{
		"bytecode.json":  "Goodbye.\n",
		"input.txt":      "",
		"transcript.txt": "Hello, world.\n",
	})

	h, err := New(Options{
		Root:        root,
		OutDir:      filepath.Join(root, "out"),
		DiffCommand: testDiffCommand,
	})
	require.NoError(t, err)

	results, err := h.Run()
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, status.Fail, results[0].Status())
}

func TestHarness_Run_When_RuntimeExitsNonZero_RuntimeCrashed(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeScriptDriver(t, root, "inkjs_runtime_driver", "exit 7")
	writeFixture(t, root, BytecodeFixture, "hello", nil)

	h, err := New(Options{
		Root:        root,
		OutDir:      filepath.Join(root, "out"),
		DiffCommand: testDiffCommand,
	})
	require.NoError(t, err)

	results, err := h.Run()
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, status.RuntimeCrashed, results[0].Status())
}

func TestHarness_Run_When_CompileChainClean_Success(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeScriptDriver(t, root, "inklecate_compiler_driver", copyCompiler)
	writeScriptDriver(t, root, "inklecore_runtime_driver", catRuntime)
	writeFixture(t, root, SourceFixture, "hello", map[string]string{
		"story.ink":      "Hello, world.\n",
		"input.txt":      "",
		"transcript.txt": "Hello, world.\n",
	})

	h, err := New(Options{
		Root:             root,
		OutDir:           filepath.Join(root, "out"),
		ReferenceRuntime: "inklecore",
		DiffCommand:      testDiffCommand,
	})
	require.NoError(t, err)

	results, err := h.Run()
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, status.Success, results[0].Status())

	// The compiled artifact must exist in the out dir.
	compiled, ok := results[0].(*CompileResult)
	require.True(t, ok)
	_, err = os.Stat(compiled.CompileOut)
	assert.NoError(t, err)
}

func TestHarness_Run_When_CompilerCrashes_ShortCircuitsChain(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeScriptDriver(t, root, "inklecate_compiler_driver", "exit 1")
	writeScriptDriver(t, root, "inklecore_runtime_driver", catRuntime)
	writeFixture(t, root, SourceFixture, "hello", nil)

	h, err := New(Options{
		Root:             root,
		OutDir:           filepath.Join(root, "out"),
		ReferenceRuntime: "inklecore",
		DiffCommand:      testDiffCommand,
	})
	require.NoError(t, err)

	results, err := h.Run()
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, status.CompilerCrashed, results[0].Status())

	// The run job never spawned, so its stdout capture must not exist.
	compiled, ok := results[0].(*CompileResult)
	require.True(t, ok)
	assert.True(t, compiled.Run.Skipped())
	_, err = os.Stat(compiled.Run.StdoutPath)
	assert.True(t, os.IsNotExist(err))
}

func TestHarness_SelectedFixtures_When_HiddenOrFiltered_Excluded(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFixture(t, root, BytecodeFixture, "visible", nil)
	writeFixture(t, root, BytecodeFixture, "other", nil)
	writeFixture(t, root, BytecodeFixture, "secret", map[string]string{
		"bytecode.json":  "{}",
		"input.txt":      "",
		"transcript.txt": "",
		"metadata.json":  `{"hidden": true}`,
	})

	h, err := New(Options{Root: root, ExampleFilter: regexp.MustCompile("^vis")})
	require.NoError(t, err)

	selected := h.SelectedFixtures()
	require.Len(t, selected, 1)
	assert.Equal(t, "visible", selected[0].Name)
}

func TestHarness_New_When_ReferenceRuntimeUnknown_Error(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeScriptDriver(t, root, "inkjs_runtime_driver", catRuntime)

	_, err := New(Options{Root: root, ReferenceRuntime: "no-such-runtime"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no-such-runtime")
	assert.Contains(t, err.Error(), "inkjs")
}
