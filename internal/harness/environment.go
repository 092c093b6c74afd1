// Package harness prepares the per-test context the suites run in: results
// directory and test log, configuration, the browser session with network
// interception, page objects and commands, and the REST client.
package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// suiteDirectories maps a suite name (e.g. "login") to its timestamped
// results directory so every test of one run shares a parent
var suiteDirectories = make(map[string]string)
var suiteDirectoriesMutex sync.Mutex

// TB is the part of *testing.T the environment logs through
type TB interface {
	Helper()
	Name() string
	Log(args ...interface{})
}

// Environment is the on-disk side of one test: its results directory,
// test.log, screenshots and video frames
type Environment struct {
	Suite      string
	TestName   string
	ResultsDir string
	TestLog    *os.File

	mu            sync.Mutex
	screenshotNum int
}

// extractSuiteName derives the lowercase suite name from a test name
// Example: "TestLoginWithValidCredentials" -> "login"
//
//	"TestArticleCrud/create" -> "article"
func extractSuiteName(testName string) string {
	if i := strings.Index(testName, "/"); i >= 0 {
		testName = testName[:i]
	}
	remainder := strings.TrimPrefix(testName, "Test")

	var capitals []int
	for i := 0; i < len(remainder); i++ {
		if remainder[i] >= 'A' && remainder[i] <= 'Z' {
			capitals = append(capitals, i)
		}
	}

	// Everything up to the second capital, e.g. "LoginWithValid" -> "login"
	if len(capitals) >= 2 {
		return strings.ToLower(remainder[:capitals[1]])
	}
	return strings.ToLower(remainder)
}

// getOrCreateSuiteDirectory returns the suite's parent directory, creating
// <base>/<suite>-<timestamp> the first time the suite is seen
func getOrCreateSuiteDirectory(suiteName string, baseDir string) (string, error) {
	suiteDirectoriesMutex.Lock()
	defer suiteDirectoriesMutex.Unlock()

	key := filepath.Join(baseDir, suiteName)
	if existingDir, ok := suiteDirectories[key]; ok {
		return existingDir, nil
	}

	timestamp := time.Now().Format("20060102-150405")
	suiteDir := filepath.Join(baseDir, fmt.Sprintf("%s-%s", suiteName, timestamp))
	if err := os.MkdirAll(suiteDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create suite directory: %w", err)
	}

	suiteDirectories[key] = suiteDir
	return suiteDir, nil
}

// NewEnvironment creates <baseDir>/<suite>-<timestamp>/<test> and opens its
// test.log. Subtest separators become path separators.
func NewEnvironment(testName string, baseDir string) (*Environment, error) {
	suiteName := extractSuiteName(testName)
	suiteDir, err := getOrCreateSuiteDirectory(suiteName, baseDir)
	if err != nil {
		return nil, err
	}

	resultsDir := filepath.Join(suiteDir, filepath.FromSlash(sanitizePath(testName)))
	if err := os.MkdirAll(resultsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create test directory: %w", err)
	}

	testLog, err := os.Create(filepath.Join(resultsDir, "test.log"))
	if err != nil {
		return nil, fmt.Errorf("failed to create test log file: %w", err)
	}

	return &Environment{
		Suite:      suiteName,
		TestName:   testName,
		ResultsDir: resultsDir,
		TestLog:    testLog,
	}, nil
}

// sanitizePath keeps subtest names usable as directory names
func sanitizePath(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', ':', '*', '?', '"', '<', '>', '|', '\\':
			return '_'
		}
		return r
	}, name)
}

// LogTest writes a message to both the test log file and the test output
func (env *Environment) LogTest(t TB, format string, args ...interface{}) {
	t.Helper()
	msg := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format("15:04:05")

	env.mu.Lock()
	if env.TestLog != nil {
		fmt.Fprintf(env.TestLog, "[%s] %s\n", timestamp, msg)
	}
	env.mu.Unlock()

	t.Log(msg)
}

// SaveScreenshot writes a PNG into the results directory with a sequential
// number prefix and returns its path
func (env *Environment) SaveScreenshot(name string, png []byte) (string, error) {
	env.mu.Lock()
	env.screenshotNum++
	path := env.ScreenshotPath(fmt.Sprintf("%02d_%s", env.screenshotNum, name))
	env.mu.Unlock()

	if err := os.WriteFile(path, png, 0644); err != nil {
		return "", fmt.Errorf("failed to save screenshot %s: %w", name, err)
	}
	return path, nil
}

// ScreenshotPath returns the path for saving a screenshot
func (env *Environment) ScreenshotPath(name string) string {
	return filepath.Join(env.ResultsDir, fmt.Sprintf("%s.png", name))
}

// VideoDir is where recorded screencast frames go
func (env *Environment) VideoDir() string {
	return filepath.Join(env.ResultsDir, "video")
}

// Cleanup writes the completion marker and closes the test log
func (env *Environment) Cleanup() {
	env.mu.Lock()
	defer env.mu.Unlock()
	if env.TestLog == nil {
		return
	}
	fmt.Fprintf(env.TestLog, "\n=== TEST COMPLETED ===\n")
	env.TestLog.Close()
	env.TestLog = nil
}
