package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
)

// Suite is a package of e2e tests
type Suite struct {
	Name string // e.g. "ui"
	Path string // package directory relative to the module root, e.g. "test/ui"
}

// DefaultSuites are the suites run when none are named
var DefaultSuites = []Suite{
	{Name: "api", Path: "test/api"},
	{Name: "ui", Path: "test/ui"},
}

// SuiteByName looks up a default suite
func SuiteByName(name string) (Suite, bool) {
	for _, s := range DefaultSuites {
		if s.Name == name {
			return s, true
		}
	}
	return Suite{}, false
}

// ExecFunc runs the go tool with args and returns its combined stdout. A
// non-nil error with output means the tests ran and some failed.
type ExecFunc func(ctx context.Context, dir string, env []string, args ...string) ([]byte, error)

// GoExec runs the real go tool
func GoExec(ctx context.Context, dir string, env []string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "go", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if stderr.Len() > 0 {
		// Build failures are printed on stderr, keep them as package output
		stdout.Write(stderr.Bytes())
	}
	return stdout.Bytes(), err
}

// Options configures a Runner
type Options struct {
	Dir     string   // module root
	Env     []string // KEY=VALUE pairs passed to the tests
	Retries int      // re-runs of failed tests
	Timeout time.Duration
	Exec    ExecFunc
	Logger  arbor.ILogger
}

// Runner runs suites through go test
type Runner struct {
	opts Options
}

// New creates a runner
func New(opts Options) *Runner {
	if opts.Exec == nil {
		opts.Exec = GoExec
	}
	if opts.Logger == nil {
		opts.Logger = arbor.NewLogger()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Minute
	}
	return &Runner{opts: opts}
}

// SuiteResult is the outcome of one suite
type SuiteResult struct {
	Name     string        `json:"name"`
	Path     string        `json:"path"`
	Tests    []*TestResult `json:"tests"`
	Duration time.Duration `json:"duration"`

	// BuildFailed is set when the package failed without running any test
	BuildFailed bool     `json:"buildFailed,omitempty"`
	Output      []string `json:"output,omitempty"`
}

// Success reports whether the suite built and no test failed
func (s *SuiteResult) Success() bool {
	if s.BuildFailed {
		return false
	}
	for _, t := range s.Tests {
		if t.Outcome == OutcomeFail {
			return false
		}
	}
	return true
}

func (r *Runner) goTest(ctx context.Context, suite Suite, extra ...string) (*parsed, error) {
	args := []string{"test", "-json", "-count=1", fmt.Sprintf("-timeout=%s", r.opts.Timeout)}
	args = append(args, extra...)
	args = append(args, "./"+strings.TrimPrefix(suite.Path, "./"))

	out, runErr := r.opts.Exec(ctx, r.opts.Dir, r.opts.Env, args...)
	p, err := parseEvents(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("failed to read test output of %s: %w", suite.Name, err)
	}
	if runErr != nil && len(p.order) == 0 {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) && len(p.packageOutput) == 0 {
			return nil, fmt.Errorf("failed to run go test for %s: %w", suite.Name, runErr)
		}
		p.packageFailed = true
	}
	return p, nil
}

// RunPattern anchors each top-level test name for go test -run
func RunPattern(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = regexp.QuoteMeta(n)
	}
	return "^(" + strings.Join(quoted, "|") + ")$"
}

// failedRoots returns the sorted top-level tests with a failure
func failedRoots(results []*TestResult) []string {
	seen := make(map[string]bool)
	var roots []string
	for _, t := range results {
		if t.Outcome != OutcomeFail || seen[t.Root()] {
			continue
		}
		seen[t.Root()] = true
		roots = append(roots, t.Root())
	}
	sort.Strings(roots)
	return roots
}

// RunSuite runs a suite, then re-runs its failed tests by name until they
// pass or the retries are spent. A test that passes on a re-run is flaky.
func (r *Runner) RunSuite(ctx context.Context, suite Suite) (*SuiteResult, error) {
	start := time.Now()
	r.opts.Logger.Info().Str("suite", suite.Name).Str("path", suite.Path).Msg("Running suite")

	first, err := r.goTest(ctx, suite)
	if err != nil {
		return nil, err
	}

	result := &SuiteResult{Name: suite.Name, Path: suite.Path}
	byName := make(map[string]*TestResult)
	for _, t := range first.list() {
		t.Attempts = 1
		byName[t.Name] = t
		result.Tests = append(result.Tests, t)
	}
	if first.packageFailed && len(result.Tests) == 0 {
		result.BuildFailed = true
		result.Output = first.packageOutput
		result.Duration = time.Since(start)
		r.opts.Logger.Error().Str("suite", suite.Name).Msg("Suite failed before any test ran")
		return result, nil
	}

	for attempt := 1; attempt <= r.opts.Retries; attempt++ {
		roots := failedRoots(result.Tests)
		if len(roots) == 0 {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		r.opts.Logger.Warn().
			Str("suite", suite.Name).
			Int("attempt", attempt).
			Strs("tests", roots).
			Msg("Retrying failed tests")

		retry, err := r.goTest(ctx, suite, "-run", RunPattern(roots))
		if err != nil {
			return nil, err
		}
		for _, t := range retry.list() {
			prev, ok := byName[t.Name]
			if !ok {
				t.Attempts = attempt + 1
				byName[t.Name] = t
				result.Tests = append(result.Tests, t)
				continue
			}
			if prev.Outcome != OutcomeFail {
				continue
			}
			prev.Attempts = attempt + 1
			prev.Duration = t.Duration
			if t.Outcome == OutcomePass {
				prev.Outcome = OutcomePass
				prev.Flaky = true
				prev.Output = nil
			} else {
				prev.Output = t.Output
			}
		}
	}

	result.Duration = time.Since(start)
	r.opts.Logger.Info().
		Str("suite", suite.Name).
		Bool("success", result.Success()).
		Dur("duration", result.Duration).
		Msg("Suite finished")
	return result, nil
}

// Run runs each suite in order and builds the report
func (r *Runner) Run(ctx context.Context, suites []Suite) (*Report, error) {
	report := &Report{Started: time.Now()}
	for _, suite := range suites {
		res, err := r.RunSuite(ctx, suite)
		if err != nil {
			return nil, err
		}
		report.Suites = append(report.Suites, res)
	}
	report.Finished = time.Now()
	report.Totals = totals(report.Suites)
	return report, nil
}
