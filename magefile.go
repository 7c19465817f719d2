//go:build mage

package main

import (
	"fmt"
	"runtime"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default target - build the binary
var Default = Build

const binaryName = "ink-proof"

// Build builds the ink-proof binary with version metadata.
func Build() error {
	commit, err := sh.Output("git", "rev-parse", "--short", "HEAD")
	if err != nil {
		commit = "unknown"
	}
	ldflags := fmt.Sprintf(
		"-X github.com/chromy/ink-proof/internal/version.CommitHash=%s "+
			"-X github.com/chromy/ink-proof/internal/version.BuildDate=%s",
		commit, time.Now().UTC().Format(time.RFC3339))
	return sh.RunV("go", "build", "-ldflags", ldflags, "-o", binName(), "./cmd/ink-proof")
}

// Test runs all tests with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// QA runs format and vet checks followed by the test suite.
func QA() error {
	if err := sh.RunV("go", "vet", "./..."); err != nil {
		return fmt.Errorf("vet failed: %w", err)
	}
	if err := sh.RunV("gofmt", "-l", "."); err != nil {
		return fmt.Errorf("format check failed: %w", err)
	}
	mg.Deps(Test)
	return nil
}

// Clean removes build artifacts.
func Clean() error {
	return sh.Rm(binName())
}

func binName() string {
	if runtime.GOOS == "windows" {
		return binaryName + ".exe"
	}
	return binaryName
}
