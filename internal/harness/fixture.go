package harness

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// FixtureKind distinguishes fixtures that start from Ink source from
// fixtures that ship precompiled bytecode.
type FixtureKind int

const (
	// SourceFixture holds Ink source that must be compiled before it
	// can run.
	SourceFixture FixtureKind = iota
	// BytecodeFixture holds serialized bytecode a runtime can run
	// directly.
	BytecodeFixture
)

func (k FixtureKind) String() string {
	if k == BytecodeFixture {
		return "bytecode"
	}
	return "ink"
}

// FixtureMetadata is the per-fixture metadata record. Hidden fixtures
// stay in the corpus but are excluded from selection.
type FixtureMetadata struct {
	Hidden      bool     `json:"hidden,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Description string   `json:"description,omitempty"`
}

// Fixture is one named test case: a source or bytecode program, an
// input script, the expected output transcript and a metadata record.
// Fixtures are read-only after discovery.
type Fixture struct {
	Name           string
	Kind           FixtureKind
	SourcePath     string
	InputPath      string
	TranscriptPath string
	MetadataPath   string
	Metadata       FixtureMetadata
}

// check verifies the files every job chain will consume. A fixture
// missing one of them aborts the run before any job is constructed.
func (f *Fixture) check() error {
	for _, path := range []string{f.SourcePath, f.InputPath, f.TranscriptPath} {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("fixture %s invalid: missing file %s", f.Name, path)
		}
	}
	return nil
}

// ExampleRecord is the fixture's entry in the JSON summary.
type ExampleRecord struct {
	Name         string          `json:"name"`
	SourcePath   string          `json:"sourcePath"`
	InputPath    string          `json:"inputPath"`
	ExpectedPath string          `json:"expectedPath"`
	Metadata     FixtureMetadata `json:"metadata"`
}

// Describe returns the fixture's summary record with paths relative to
// base where possible.
func (f *Fixture) Describe(base string) ExampleRecord {
	return ExampleRecord{
		Name:         f.Name,
		SourcePath:   relPath(base, f.SourcePath),
		InputPath:    relPath(base, f.InputPath),
		ExpectedPath: relPath(base, f.TranscriptPath),
		Metadata:     f.Metadata,
	}
}

// DiscoverFixtures enumerates the fixture corpus under root. Source
// fixtures live at <root>/ink/<name>/story.ink and bytecode fixtures at
// <root>/bytecode/<name>/bytecode.json, each alongside input.txt,
// transcript.txt and an optional metadata.json. The returned slice is
// sorted by kind directory then name.
func DiscoverFixtures(root string) ([]*Fixture, error) {
	var fixtures []*Fixture
	for _, kind := range []FixtureKind{SourceFixture, BytecodeFixture} {
		found, err := discoverKind(root, kind)
		if err != nil {
			return nil, err
		}
		fixtures = append(fixtures, found...)
	}
	return fixtures, nil
}

func discoverKind(root string, kind FixtureKind) ([]*Fixture, error) {
	folder := filepath.Join(root, kind.String())
	entries, err := os.ReadDir(folder)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("discovering %s fixtures: %w", kind, err)
	}

	source := "story.ink"
	if kind == BytecodeFixture {
		source = "bytecode.json"
	}

	var fixtures []*Fixture
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(folder, entry.Name())
		f := &Fixture{
			Name:           entry.Name(),
			Kind:           kind,
			SourcePath:     filepath.Join(dir, source),
			InputPath:      filepath.Join(dir, "input.txt"),
			TranscriptPath: filepath.Join(dir, "transcript.txt"),
			MetadataPath:   filepath.Join(dir, "metadata.json"),
		}
		if err := f.check(); err != nil {
			return nil, err
		}
		if err := loadMetadata(f); err != nil {
			return nil, err
		}
		fixtures = append(fixtures, f)
	}
	sort.Slice(fixtures, func(i, j int) bool { return fixtures[i].Name < fixtures[j].Name })
	return fixtures, nil
}

// loadMetadata reads metadata.json if present. Absence is fine; a
// present but unparseable record is a corpus error.
func loadMetadata(f *Fixture) error {
	raw, err := os.ReadFile(f.MetadataPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("fixture %s: reading metadata: %w", f.Name, err)
	}
	if err := json.Unmarshal(raw, &f.Metadata); err != nil {
		return fmt.Errorf("fixture %s: parsing %s: %w", f.Name, f.MetadataPath, err)
	}
	return nil
}

func relPath(base, path string) string {
	if base == "" {
		return path
	}
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return path
	}
	return rel
}
