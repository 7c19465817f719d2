package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"text/template"

	"github.com/chromy/ink-proof/internal/harness"
	"github.com/chromy/ink-proof/internal/status"
)

// badgeTemplate is a flat shields-style badge: the program name on the
// left, the passed/total fraction on the right.
var badgeTemplate = template.Must(template.New("badge").Parse(
	`<svg xmlns="http://www.w3.org/2000/svg" width="{{.Width}}" height="20" role="img" aria-label="{{.Label}}: {{.Value}}">
  <linearGradient id="s" x2="0" y2="100%">
    <stop offset="0" stop-color="#bbb" stop-opacity=".1"/>
    <stop offset="1" stop-opacity=".1"/>
  </linearGradient>
  <rect rx="3" width="{{.Width}}" height="20" fill="#555"/>
  <rect rx="3" x="{{.LabelWidth}}" width="{{.ValueWidth}}" height="20" fill="{{.Color}}"/>
  <rect rx="3" width="{{.Width}}" height="20" fill="url(#s)"/>
  <g fill="#fff" text-anchor="middle" font-family="Verdana,Geneva,DejaVu Sans,sans-serif" font-size="11">
    <text x="{{.LabelCenter}}" y="14">{{.Label}}</text>
    <text x="{{.ValueCenter}}" y="14">{{.Value}}</text>
  </g>
</svg>
`))

type badgeData struct {
	Label       string
	Value       string
	Color       string
	Width       int
	LabelWidth  int
	ValueWidth  int
	LabelCenter int
	ValueCenter int
}

const (
	badgePassColor = "#4c1"
	badgeFailColor = "#e05d44"
	// Rough per-character advance for the badge font; exact text
	// metrics would need a font renderer for no visible gain.
	badgeCharWidth = 7
	badgePadding   = 10
)

// Badge renders one program's badge. The badge is green only on a full
// pass.
func Badge(program string, passed, total int) []byte {
	value := fmt.Sprintf("%d/%d", passed, total)
	color := badgeFailColor
	if total > 0 && passed == total {
		color = badgePassColor
	}
	labelWidth := len(program)*badgeCharWidth + badgePadding
	valueWidth := len(value)*badgeCharWidth + badgePadding

	var buf bytes.Buffer
	// The template cannot fail on this data shape.
	_ = badgeTemplate.Execute(&buf, badgeData{
		Label:       program,
		Value:       value,
		Color:       color,
		Width:       labelWidth + valueWidth,
		LabelWidth:  labelWidth,
		ValueWidth:  valueWidth,
		LabelCenter: labelWidth / 2,
		ValueCenter: labelWidth + valueWidth/2,
	})
	return buf.Bytes()
}

// ProgramTally counts one program's passed and total results.
type ProgramTally struct {
	Program string
	Passed  int
	Total   int
}

// Tally aggregates results per program, sorted by program name.
func Tally(results []harness.Result) []ProgramTally {
	byProgram := map[string]*ProgramTally{}
	for _, r := range results {
		t := byProgram[r.Program()]
		if t == nil {
			t = &ProgramTally{Program: r.Program()}
			byProgram[r.Program()] = t
		}
		t.Total++
		if r.Status() == status.Success {
			t.Passed++
		}
	}

	tallies := make([]ProgramTally, 0, len(byProgram))
	for _, t := range byProgram {
		tallies = append(tallies, *t)
	}
	sort.Slice(tallies, func(i, j int) bool { return tallies[i].Program < tallies[j].Program })
	return tallies
}

// WriteBadges writes <program>.svg into outDir for every program that
// has at least one result.
func WriteBadges(results []harness.Result, outDir string) error {
	for _, t := range Tally(results) {
		path := filepath.Join(outDir, t.Program+".svg")
		if err := os.WriteFile(path, Badge(t.Program, t.Passed, t.Total), 0o644); err != nil {
			return fmt.Errorf("writing badge for %s: %w", t.Program, err)
		}
	}
	return nil
}
