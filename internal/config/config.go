// Package config resolves harness settings from, in rising priority:
// built-in defaults, a .inkproof.yaml file next to the corpus, and
// INK_PROOF_* environment variables. CLI flags are applied on top by
// the caller.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultOutDir            = "out"
	DefaultTimeoutSeconds    = 2
	DefaultParallelism       = 30
	DefaultReferenceCompiler = "inklecate"
	DefaultReferenceRuntime  = "inklecore"
	DefaultServeAddr         = "localhost:8080"
)

// Config is the resolved harness configuration.
type Config struct {
	OutDir               string
	Timeout              time.Duration
	Parallelism          int
	ReferenceCompiler    string
	ReferenceRuntime     string
	NoColor              bool
	StderrCrashThreshold int64
	ServeAddr            string
}

// file mirrors the .inkproof.yaml layout.
type file struct {
	Out                  string `yaml:"out"`
	TimeoutSeconds       int    `yaml:"timeout_seconds"`
	Parallelism          int    `yaml:"parallelism"`
	ReferenceCompiler    string `yaml:"reference_compiler"`
	ReferenceRuntime     string `yaml:"reference_runtime"`
	NoColor              bool   `yaml:"no_color"`
	StderrCrashThreshold int64  `yaml:"stderr_crash_threshold"`
	ServeAddr            string `yaml:"serve_addr"`
}

// Load resolves the configuration for a corpus root.
func Load(root string) (*Config, error) {
	cfg := &Config{
		OutDir:            DefaultOutDir,
		Timeout:           DefaultTimeoutSeconds * time.Second,
		Parallelism:       DefaultParallelism,
		ReferenceCompiler: DefaultReferenceCompiler,
		ReferenceRuntime:  DefaultReferenceRuntime,
		ServeAddr:         DefaultServeAddr,
	}
	if err := cfg.applyFile(filepath.Join(root, ".inkproof.yaml")); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	if f.Out != "" {
		c.OutDir = f.Out
	}
	if f.TimeoutSeconds > 0 {
		c.Timeout = time.Duration(f.TimeoutSeconds) * time.Second
	}
	if f.Parallelism > 0 {
		c.Parallelism = f.Parallelism
	}
	if f.ReferenceCompiler != "" {
		c.ReferenceCompiler = f.ReferenceCompiler
	}
	if f.ReferenceRuntime != "" {
		c.ReferenceRuntime = f.ReferenceRuntime
	}
	if f.NoColor {
		c.NoColor = true
	}
	if f.StderrCrashThreshold > 0 {
		c.StderrCrashThreshold = f.StderrCrashThreshold
	}
	if f.ServeAddr != "" {
		c.ServeAddr = f.ServeAddr
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("INK_PROOF_OUT"); v != "" {
		c.OutDir = v
	}
	if v := os.Getenv("INK_PROOF_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Timeout = time.Duration(n) * time.Second
		}
	}
	if v := os.Getenv("INK_PROOF_PARALLELISM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Parallelism = n
		}
	}
	if v := os.Getenv("INK_PROOF_REFERENCE_COMPILER"); v != "" {
		c.ReferenceCompiler = v
	}
	if v := os.Getenv("INK_PROOF_REFERENCE_RUNTIME"); v != "" {
		c.ReferenceRuntime = v
	}
	// NO_COLOR is the cross-tool convention; the prefixed variant wins
	// either way.
	if os.Getenv("NO_COLOR") != "" || os.Getenv("INK_PROOF_NO_COLOR") != "" {
		c.NoColor = true
	}
}
