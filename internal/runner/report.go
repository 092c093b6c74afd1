package runner

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Totals counts tests across suites. Subtests are counted individually.
type Totals struct {
	Tests   int `json:"tests"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
	Flaky   int `json:"flaky"`
}

// Report is the outcome of one run
type Report struct {
	Started  time.Time      `json:"started"`
	Finished time.Time      `json:"finished"`
	Mode     string         `json:"mode,omitempty"`
	Grep     []string       `json:"grep,omitempty"`
	Suites   []*SuiteResult `json:"suites"`
	Totals   Totals         `json:"totals"`
}

// Success reports whether every suite passed
func (r *Report) Success() bool {
	for _, s := range r.Suites {
		if !s.Success() {
			return false
		}
	}
	return true
}

func totals(suites []*SuiteResult) Totals {
	var t Totals
	for _, s := range suites {
		for _, res := range s.Tests {
			t.Tests++
			switch res.Outcome {
			case OutcomePass:
				t.Passed++
			case OutcomeFail:
				t.Failed++
			case OutcomeSkip:
				t.Skipped++
			}
			if res.Flaky {
				t.Flaky++
			}
		}
	}
	return t
}

// WriteJSON writes the report as report-<timestamp>.json into dir and
// returns its path
func (r *Report) WriteJSON(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create reports directory: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("report-%s.json", r.Started.Format("20060102-150405")))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

var (
	styleOK     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))  // green
	styleWarn   = lipgloss.NewStyle().Foreground(lipgloss.Color("214")) // orange
	styleError  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")) // red
	styleMuted  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")) // gray
	styleHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
)

// Symbols for status indicators
const (
	SymbolOK    = "✓"
	SymbolWarn  = "⚠"
	SymbolError = "✗"
)

// WriteSummary prints a per-suite summary with failed and flaky tests
func (r *Report) WriteSummary(w io.Writer) {
	fmt.Fprintln(w, styleHeader.Render("TEST SUMMARY"))
	fmt.Fprintln(w, styleMuted.Render(strings.Repeat("=", 60)))

	for _, s := range r.Suites {
		status := styleOK.Render(SymbolOK + " PASSED")
		if !s.Success() {
			status = styleError.Render(SymbolError + " FAILED")
		}
		fmt.Fprintf(w, "%-10s %s %s\n", s.Name, status, styleMuted.Render(fmt.Sprintf("(%.2fs)", s.Duration.Seconds())))

		if s.BuildFailed {
			for _, line := range tail(s.Output, 10) {
				fmt.Fprintf(w, "    %s\n", styleMuted.Render(line))
			}
			continue
		}
		for _, t := range s.Tests {
			switch {
			case t.Outcome == OutcomeFail:
				fmt.Fprintf(w, "  %s %s %s\n", styleError.Render(SymbolError), t.Name,
					styleMuted.Render(fmt.Sprintf("(%d attempts)", t.Attempts)))
				for _, line := range tail(t.Output, 5) {
					fmt.Fprintf(w, "      %s\n", styleMuted.Render(strings.TrimSpace(line)))
				}
			case t.Flaky:
				fmt.Fprintf(w, "  %s %s %s\n", styleWarn.Render(SymbolWarn), t.Name,
					styleWarn.Render(fmt.Sprintf("flaky, passed on attempt %d", t.Attempts)))
			}
		}
	}

	fmt.Fprintln(w, styleMuted.Render(strings.Repeat("-", 60)))
	t := r.Totals
	fmt.Fprintf(w, "%d tests: %s, %s, %s, %s\n", t.Tests,
		styleOK.Render(fmt.Sprintf("%d passed", t.Passed)),
		styleError.Render(fmt.Sprintf("%d failed", t.Failed)),
		styleMuted.Render(fmt.Sprintf("%d skipped", t.Skipped)),
		styleWarn.Render(fmt.Sprintf("%d flaky", t.Flaky)))

	if r.Success() {
		fmt.Fprintln(w, styleOK.Render(SymbolOK+" ALL TESTS PASSED"))
	} else {
		fmt.Fprintln(w, styleError.Render(SymbolError+" SOME TESTS FAILED"))
	}
}

func tail(lines []string, n int) []string {
	if len(lines) <= n {
		return lines
	}
	return lines[len(lines)-n:]
}
