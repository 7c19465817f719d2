// Package diff implements the line differ the harness spawns as its
// diff jobs. Several runtimes under test emit UTF-8 byte-order marks,
// so both inputs are decoded BOM-tolerantly before comparison; a BOM
// must never count as an output difference.
package diff

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Unified compares two files line by line and returns the unified diff
// text. identical is true when the files have the same content after
// BOM stripping, in which case text is empty.
func Unified(aPath, bPath string) (text string, identical bool, err error) {
	aLines, err := readLines(aPath)
	if err != nil {
		return "", false, err
	}
	bLines, err := readLines(bPath)
	if err != nil {
		return "", false, err
	}

	text, err = difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        aLines,
		B:        bLines,
		FromFile: aPath,
		ToFile:   bPath,
		Context:  3,
	})
	if err != nil {
		return "", false, fmt.Errorf("diffing %s against %s: %w", aPath, bPath, err)
	}
	return text, text == "", nil
}

// Main is the entry point for the internal-diff subcommand. Exit codes
// follow diff(1): 0 identical, 1 different, 2 on trouble.
func Main(args []string, stdout, stderr io.Writer) int {
	if len(args) != 2 {
		fmt.Fprintf(stderr, "usage: ink-proof internal-diff <expected> <actual>\n")
		return 2
	}
	text, identical, err := Unified(args[0], args[1])
	if err != nil {
		fmt.Fprintf(stderr, "ink-proof: %v\n", err)
		return 2
	}
	if identical {
		return 0
	}
	fmt.Fprint(stdout, text)
	return 1
}

// readLines reads a whole file as UTF-8 with an optional leading BOM
// and splits it into lines, each keeping its trailing newline the way
// difflib expects.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	decoder := unicode.UTF8BOM.NewDecoder()
	raw, err := io.ReadAll(transform.NewReader(f, decoder))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return difflib.SplitLines(strings.TrimSuffix(string(raw), "\n")), nil
}
