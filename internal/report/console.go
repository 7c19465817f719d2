package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/chromy/ink-proof/internal/harness"
	"github.com/chromy/ink-proof/internal/status"
)

var (
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	headerStyle = lipgloss.NewStyle().Bold(true)
)

// Console renders the end-of-run summary to a terminal or log.
type Console struct {
	out   io.Writer
	color bool
}

// NewConsole creates a console writer. Styling is applied only when
// the writer is a terminal and noColor is false.
func NewConsole(out io.Writer, noColor bool) *Console {
	return &Console{out: out, color: !noColor && isTTYWriter(out)}
}

// isTTYWriter reports whether w is a terminal.
func isTTYWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Render prints one line per program with its pass fraction, then one
// line per non-success result.
func (c *Console) Render(results []harness.Result) {
	tallies := Tally(results)
	if len(tallies) == 0 {
		fmt.Fprintln(c.out, "no results")
		return
	}

	nameWidth := 0
	for _, t := range tallies {
		if w := runewidth.StringWidth(t.Program); w > nameWidth {
			nameWidth = w
		}
	}

	fmt.Fprintln(c.out, c.style(headerStyle, "Results"))
	for _, t := range tallies {
		line := fmt.Sprintf("  %s  %d/%d",
			runewidth.FillRight(t.Program, nameWidth), t.Passed, t.Total)
		if t.Passed == t.Total {
			line = c.style(passStyle, line)
		} else {
			line = c.style(failStyle, line)
		}
		fmt.Fprintln(c.out, line)
	}

	var failures []string
	for _, r := range results {
		if r.Status() == status.Success {
			continue
		}
		failures = append(failures, fmt.Sprintf("  %s %s %s/%s",
			r.Status().Symbol(), r.Status(), r.Program(), r.Example()))
	}
	if len(failures) > 0 {
		fmt.Fprintln(c.out, c.style(headerStyle, "Failures"))
		fmt.Fprintln(c.out, c.style(mutedStyle, strings.Join(failures, "\n")))
	}
}

func (c *Console) style(s lipgloss.Style, text string) string {
	if !c.color {
		return text
	}
	return s.Render(text)
}
