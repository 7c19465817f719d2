// ink-proof runs conformance tests against Ink compilers and runtimes.
//
// Usage:
//
//	ink-proof [--root DIR] [--examples REGEX] [-j N] [--timeout SECONDS]
//	ink-proof --list-drivers
//	ink-proof serve [--addr HOST:PORT]
//	ink-proof install-deps [--check-only]
//	ink-proof internal-diff EXPECTED ACTUAL
//
// Every candidate compiler and runtime is exercised against the fixture
// corpus; captured output, a summary.json, per-program SVG badges and a
// static HTML report land in the output directory.
//
// Exit codes: 0 when every result is SUCCESS, 1 when any fixture
// produced wrong output, 2 when the only problems were crashes,
// timeouts or harness errors.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/chromy/ink-proof/internal/config"
	"github.com/chromy/ink-proof/internal/deps"
	"github.com/chromy/ink-proof/internal/diff"
	"github.com/chromy/ink-proof/internal/harness"
	"github.com/chromy/ink-proof/internal/report"
	"github.com/chromy/ink-proof/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	// Subcommands are dispatched before flag parsing.
	if len(args) > 0 {
		switch args[0] {
		case "internal-diff":
			return diff.Main(args[1:], stdout, stderr)
		case "serve":
			return runServe(args[1:], stderr)
		case "install-deps":
			return runInstallDeps(args[1:], stdout, stderr)
		case "version":
			fmt.Fprintf(stdout, "ink-proof %s (%s, %s)\n",
				version.Version, version.CommitHash, version.BuildDate)
			return 0
		}
	}

	fs := flag.NewFlagSet("ink-proof", flag.ContinueOnError)
	fs.SetOutput(stderr)
	rootFlag := fs.String("root", ".", "corpus root holding ink/, bytecode/ and drivers/")
	outFlag := fs.String("out", "", "output directory (default \"out\")")
	timeoutFlag := fs.Int("timeout", 0, "per-job timeout in seconds (default 2)")
	parallelismFlag := fs.Int("j", 0, "maximum concurrent subprocesses (default 30)")
	examplesFlag := fs.String("examples", "", "only run examples matching this regex")
	listDriversFlag := fs.Bool("list-drivers", false, "list discovered drivers and exit")
	compilerFlag := fs.String("reference-compiler", "", "reference compiler (default \"inklecate\")")
	runtimeFlag := fs.String("reference-runtime", "", "reference runtime (default \"inklecore\")")
	noColorFlag := fs.Bool("no-color", false, "disable colored output")
	quietFlag := fs.Bool("quiet", false, "suppress per-job progress output")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*rootFlag)
	if err != nil {
		fmt.Fprintf(stderr, "ink-proof: %v\n", err)
		return 2
	}
	if *outFlag != "" {
		cfg.OutDir = *outFlag
	}
	if *timeoutFlag > 0 {
		cfg.Timeout = time.Duration(*timeoutFlag) * time.Second
	}
	if *parallelismFlag > 0 {
		cfg.Parallelism = *parallelismFlag
	}
	if *compilerFlag != "" {
		cfg.ReferenceCompiler = *compilerFlag
	}
	if *runtimeFlag != "" {
		cfg.ReferenceRuntime = *runtimeFlag
	}
	if *noColorFlag {
		cfg.NoColor = true
	}

	var filter *regexp.Regexp
	if *examplesFlag != "" {
		filter, err = regexp.Compile(*examplesFlag)
		if err != nil {
			fmt.Fprintf(stderr, "ink-proof: bad --examples regex: %v\n", err)
			return 2
		}
	}

	var log io.Writer = stderr
	if *quietFlag {
		log = nil
	}

	h, err := harness.New(harness.Options{
		Root:                 *rootFlag,
		OutDir:               cfg.OutDir,
		Timeout:              cfg.Timeout,
		Parallelism:          cfg.Parallelism,
		ExampleFilter:        filter,
		ReferenceCompiler:    cfg.ReferenceCompiler,
		ReferenceRuntime:     cfg.ReferenceRuntime,
		StderrCrashThreshold: cfg.StderrCrashThreshold,
		Log:                  log,
	})
	if err != nil {
		fmt.Fprintf(stderr, "ink-proof: %v\n", err)
		return 2
	}

	if *listDriversFlag {
		listDrivers(h, stdout)
		return 0
	}

	results, err := h.Run()
	if err != nil {
		fmt.Fprintf(stderr, "ink-proof: %v\n", err)
		return 2
	}

	summary := report.Build(h.Drivers(), h.SelectedFixtures(), results, cfg.OutDir)
	if err := summary.WriteFile(filepath.Join(cfg.OutDir, "summary.json")); err != nil {
		fmt.Fprintf(stderr, "ink-proof: %v\n", err)
		return 2
	}
	if err := report.WriteBadges(results, cfg.OutDir); err != nil {
		fmt.Fprintf(stderr, "ink-proof: %v\n", err)
		return 2
	}
	if err := report.CopyAssets(*rootFlag, cfg.OutDir); err != nil {
		fmt.Fprintf(stderr, "ink-proof: %v\n", err)
		return 2
	}

	report.NewConsole(stdout, cfg.NoColor).Render(results)
	return report.ExitCode(results)
}

func listDrivers(h *harness.Harness, stdout io.Writer) {
	fmt.Fprintln(stdout, "Available runtimes:")
	for _, d := range h.Runtimes() {
		suffix := ""
		if d == h.ReferenceRuntime() {
			suffix = " (reference runtime)"
		}
		fmt.Fprintf(stdout, "\t%s%s\n", d.Name, suffix)
	}
	fmt.Fprintln(stdout, "Available compilers:")
	for _, d := range h.Compilers() {
		suffix := ""
		if d == h.ReferenceCompiler() {
			suffix = " (reference compiler)"
		}
		fmt.Fprintf(stdout, "\t%s%s\n", d.Name, suffix)
	}
}

func runServe(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("ink-proof serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	addrFlag := fs.String("addr", "", "listen address (default \"localhost:8080\")")
	dirFlag := fs.String("dir", "", "report directory to serve (default the configured out dir)")
	rootFlag := fs.String("root", ".", "corpus root")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*rootFlag)
	if err != nil {
		fmt.Fprintf(stderr, "ink-proof: %v\n", err)
		return 2
	}
	addr := cfg.ServeAddr
	if *addrFlag != "" {
		addr = *addrFlag
	}
	dir := cfg.OutDir
	if *dirFlag != "" {
		dir = *dirFlag
	}

	fmt.Fprintf(stderr, "serving %s on http://%s\n", dir, addr)
	if err := report.Serve(addr, dir); err != nil {
		fmt.Fprintf(stderr, "ink-proof: %v\n", err)
		return 2
	}
	return 0
}

func runInstallDeps(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ink-proof install-deps", flag.ContinueOnError)
	fs.SetOutput(stderr)
	rootFlag := fs.String("root", ".", "corpus root to install under")
	manifestFlag := fs.String("manifest", "", "yaml dependency manifest (default built-in)")
	checkOnlyFlag := fs.Bool("check-only", false, "report stale deps without downloading")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	manifest := deps.DefaultManifest
	if *manifestFlag != "" {
		var err error
		manifest, err = deps.LoadManifest(*manifestFlag)
		if err != nil {
			fmt.Fprintf(stderr, "ink-proof: %v\n", err)
			return 2
		}
	}

	installer := &deps.Installer{Root: *rootFlag, Log: stderr}
	stale, err := installer.Install(manifest, *checkOnlyFlag)
	if err != nil {
		fmt.Fprintf(stderr, "ink-proof: %v\n", err)
		return 2
	}
	if *checkOnlyFlag {
		if stale {
			fmt.Fprintln(stderr, "deps are stale; run ink-proof install-deps")
			return 1
		}
		fmt.Fprintln(stdout, "deps are up to date")
	}
	return 0
}
