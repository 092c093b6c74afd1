// Package runner drives `go test -json` over the e2e suites, re-runs failed
// tests to tell flaky ones from real failures, and reports the outcome.
package runner

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"time"
)

// Event is one line of `go test -json` output
type Event struct {
	Time    time.Time `json:"Time"`
	Action  string    `json:"Action"`
	Package string    `json:"Package"`
	Test    string    `json:"Test"`
	Elapsed float64   `json:"Elapsed"`
	Output  string    `json:"Output"`
}

// Outcome is the final state of a test
type Outcome string

const (
	OutcomePass Outcome = "pass"
	OutcomeFail Outcome = "fail"
	OutcomeSkip Outcome = "skip"
)

// TestResult is the outcome of one test or subtest across all attempts
type TestResult struct {
	Package  string        `json:"package"`
	Name     string        `json:"name"`
	Outcome  Outcome       `json:"outcome"`
	Attempts int           `json:"attempts"`
	Flaky    bool          `json:"flaky,omitempty"`
	Duration time.Duration `json:"duration"`
	Output   []string      `json:"output,omitempty"`
}

// TopLevel reports whether the result is a top-level test, not a subtest
func (r *TestResult) TopLevel() bool {
	return !strings.Contains(r.Name, "/")
}

// Root is the name of the top-level test the result belongs to
func (r *TestResult) Root() string {
	root, _, _ := strings.Cut(r.Name, "/")
	return root
}

// parsed is one `go test -json` run
type parsed struct {
	results map[string]*TestResult
	order   []string

	// output not attributed to any test, e.g. build errors
	packageOutput []string
	packageFailed bool
}

// parseEvents reads test2json events. Lines that are not JSON, such as build
// output printed before the events start, are kept as package output.
func parseEvents(r io.Reader) (*parsed, error) {
	p := &parsed{results: make(map[string]*TestResult)}
	output := make(map[string][]string)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		var ev Event
		if line[0] != '{' || json.Unmarshal(line, &ev) != nil {
			p.packageOutput = append(p.packageOutput, string(line))
			continue
		}

		if ev.Test == "" {
			switch ev.Action {
			case "output":
				p.packageOutput = append(p.packageOutput, strings.TrimRight(ev.Output, "\n"))
			case "fail":
				p.packageFailed = true
			}
			continue
		}

		key := ev.Package + "\x00" + ev.Test
		switch ev.Action {
		case "run":
			if _, ok := p.results[key]; !ok {
				p.order = append(p.order, key)
			}
			p.results[key] = &TestResult{Package: ev.Package, Name: ev.Test}
		case "output":
			output[key] = append(output[key], strings.TrimRight(ev.Output, "\n"))
		case "pass", "fail", "skip":
			res, ok := p.results[key]
			if !ok {
				res = &TestResult{Package: ev.Package, Name: ev.Test}
				p.results[key] = res
				p.order = append(p.order, key)
			}
			res.Outcome = Outcome(ev.Action)
			res.Duration = time.Duration(ev.Elapsed * float64(time.Second))
			if res.Outcome == OutcomeFail {
				res.Output = output[key]
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	// A test still running when the binary died never reported an outcome
	for _, key := range p.order {
		if res := p.results[key]; res.Outcome == "" {
			res.Outcome = OutcomeFail
			res.Output = output[key]
		}
	}
	return p, nil
}

// list returns the results in the order the tests started
func (p *parsed) list() []*TestResult {
	out := make([]*TestResult, 0, len(p.order))
	for _, key := range p.order {
		out = append(out, p.results[key])
	}
	return out
}
