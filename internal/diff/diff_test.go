package diff

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestUnified_When_FilesIdentical_NoDiff(t *testing.T) {
	t.Parallel()

	a := writeFile(t, "a.txt", "one\ntwo\n")
	b := writeFile(t, "b.txt", "one\ntwo\n")

	text, identical, err := Unified(a, b)
	require.NoError(t, err)
	assert.True(t, identical)
	assert.Empty(t, text)
}

func TestUnified_When_OnlyBOMDiffers_TreatedAsIdentical(t *testing.T) {
	t.Parallel()

	// inklecate prefixes its output with a UTF-8 BOM; that alone must
	// never count as a mismatch.
	a := writeFile(t, "a.txt", "Hello.\n")
	b := writeFile(t, "b.txt", "\xef\xbb\xbfHello.\n")

	text, identical, err := Unified(a, b)
	require.NoError(t, err)
	assert.True(t, identical, "unexpected diff:\n%s", text)
}

func TestUnified_When_ContentDiffers_UnifiedText(t *testing.T) {
	t.Parallel()

	a := writeFile(t, "a.txt", "one\ntwo\nthree\n")
	b := writeFile(t, "b.txt", "one\nTWO\nthree\n")

	text, identical, err := Unified(a, b)
	require.NoError(t, err)
	assert.False(t, identical)
	assert.Contains(t, text, "-two")
	assert.Contains(t, text, "+TWO")
}

func TestUnified_When_TrailingNewlineDiffers_TreatedAsIdentical(t *testing.T) {
	t.Parallel()

	a := writeFile(t, "a.txt", "one\ntwo")
	b := writeFile(t, "b.txt", "one\ntwo\n")

	_, identical, err := Unified(a, b)
	require.NoError(t, err)
	assert.True(t, identical)
}

func TestMain_ExitCodesFollowDiffConventions(t *testing.T) {
	t.Parallel()

	same := writeFile(t, "same.txt", "x\n")
	sameCopy := writeFile(t, "copy.txt", "x\n")
	other := writeFile(t, "other.txt", "y\n")

	var stdout, stderr bytes.Buffer
	assert.Equal(t, 0, Main([]string{same, sameCopy}, &stdout, &stderr))
	assert.Empty(t, stdout.String())

	stdout.Reset()
	assert.Equal(t, 1, Main([]string{same, other}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "+y")

	assert.Equal(t, 2, Main([]string{same}, &stdout, &stderr))
	assert.Equal(t, 2, Main([]string{same, filepath.Join(t.TempDir(), "missing")}, &stdout, &stderr))
}
