// -----------------------------------------------------------------------
// Crash Reports - panic capture for suite binaries
// -----------------------------------------------------------------------

package common

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// WriteCrashReport writes a report for a panic that escaped a test suite into
// dir and returns its path. The report is also echoed to stderr when the file
// cannot be written.
func WriteCrashReport(dir, suite string, panicVal interface{}, stack string) (string, error) {
	now := time.Now()

	var report bytes.Buffer
	fmt.Fprintf(&report, "=== CONDUIT E2E CRASH REPORT ===\n")
	fmt.Fprintf(&report, "Suite: %s\n", suite)
	fmt.Fprintf(&report, "Time: %s\n", now.Format(time.RFC3339))
	fmt.Fprintf(&report, "Version: %s\n\n", GetFullVersion())

	fmt.Fprintf(&report, "=== PANIC VALUE ===\n%v\n\n", panicVal)
	fmt.Fprintf(&report, "=== STACK TRACE ===\n%s\n\n", stack)
	fmt.Fprintf(&report, "=== ALL GOROUTINES ===\n%s\n\n", AllGoroutineStacks())

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	fmt.Fprintf(&report, "=== SYSTEM INFO ===\n")
	fmt.Fprintf(&report, "NumGoroutine: %d\n", runtime.NumGoroutine())
	fmt.Fprintf(&report, "GOOS/GOARCH: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(&report, "Alloc: %d MB\n", mem.Alloc/1024/1024)
	fmt.Fprintf(&report, "=== END CRASH REPORT ===\n")

	if err := os.MkdirAll(dir, 0755); err != nil {
		os.Stderr.Write(report.Bytes())
		return "", fmt.Errorf("failed to create crash directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("crash-%s-%s.log", suite, now.Format("2006-01-02T15-04-05")))
	if err := os.WriteFile(path, report.Bytes(), 0644); err != nil {
		os.Stderr.Write(report.Bytes())
		return "", fmt.Errorf("failed to write crash report: %w", err)
	}
	return path, nil
}

// AllGoroutineStacks returns stack traces for all goroutines
func AllGoroutineStacks() string {
	buf := make([]byte, 64*1024)
	for {
		n := runtime.Stack(buf, true)
		if n < len(buf) {
			return string(buf[:n])
		}
		if len(buf) >= 64*1024*1024 {
			return string(buf[:n])
		}
		buf = make([]byte, len(buf)*2)
	}
}
