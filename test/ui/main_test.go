// -----------------------------------------------------------------------
// UI Test Suite Main Entry Point
// -----------------------------------------------------------------------

package ui

import (
	"fmt"
	"os"
	"testing"

	"github.com/ternarybob/conduit-e2e/internal/common"
	"github.com/ternarybob/conduit-e2e/internal/harness"
)

// TestMain checks the app under test is reachable before any browser starts.
// When it is not, every UI test skips instead of waiting out its timeouts.
func TestMain(m *testing.M) {
	w := os.Stderr

	cfg, _, err := harness.LoadConfig()
	if err != nil {
		fmt.Fprintf(w, "✗ %v\n", err)
		os.Exit(1)
	}

	if harness.Reachable(cfg.App.BaseURL) {
		fmt.Fprintf(w, "✓ App reachable at %s - proceeding with UI tests\n", cfg.App.BaseURL)
	} else {
		fmt.Fprintf(w, "\n⚠ App not reachable at %s - UI tests will be skipped\n\n", cfg.App.BaseURL)
	}

	var exitCode int
	func() {
		defer func() {
			if r := recover(); r != nil {
				fmt.Fprintf(w, "\n⚠ PANIC during test execution: %v\n", r)
				if path, err := common.WriteCrashReport(cfg.Output.ResultsDir, "ui", r, common.StackTrace()); err == nil {
					fmt.Fprintf(w, "Crash report: %s\n", path)
				}
				exitCode = 1
			}
		}()
		exitCode = m.Run()
	}()

	os.Exit(exitCode)
}
