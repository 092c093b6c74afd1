// -----------------------------------------------------------------------
// API Test Suite Main Entry Point
// -----------------------------------------------------------------------

package api

import (
	"fmt"
	"os"
	"testing"

	"github.com/ternarybob/conduit-e2e/internal/common"
	"github.com/ternarybob/conduit-e2e/internal/harness"
)

// TestMain reports which backend the API suite runs against before any test
// starts. In live mode an unreachable api_url is reported here once, each
// test then skips on its own.
func TestMain(m *testing.M) {
	w := os.Stderr

	cfg, _, err := harness.LoadConfig()
	if err != nil {
		fmt.Fprintf(w, "✗ %v\n", err)
		os.Exit(1)
	}

	switch {
	case cfg.IsMockMode():
		fmt.Fprintln(w, "✓ Mock mode - each test starts its own in-memory Conduit API")
	case harness.Reachable(cfg.App.APIURL):
		fmt.Fprintf(w, "✓ Live API reachable at %s - proceeding with API tests\n", cfg.App.APIURL)
	default:
		fmt.Fprintf(w, "\n⚠ Live API not reachable at %s - API tests will be skipped\n\n", cfg.App.APIURL)
	}

	var exitCode int
	func() {
		defer func() {
			if r := recover(); r != nil {
				fmt.Fprintf(w, "\n⚠ PANIC during test execution: %v\n", r)
				if path, err := common.WriteCrashReport(cfg.Output.ResultsDir, "api", r, common.StackTrace()); err == nil {
					fmt.Fprintf(w, "Crash report: %s\n", path)
				}
				exitCode = 1
			}
		}()
		exitCode = m.Run()
	}()

	os.Exit(exitCode)
}
