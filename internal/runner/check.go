package runner

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrMissingTooling is returned when a required tool cannot be found
var ErrMissingTooling = errors.New("required tooling missing")

// chromeCandidates are the executable names chromedp itself searches
var chromeCandidates = []string{
	"google-chrome",
	"google-chrome-stable",
	"chromium",
	"chromium-browser",
	"chrome",
	"headless-shell",
}

// Tool is the outcome of looking up one required tool
type Tool struct {
	Name  string
	Path  string
	Found bool
}

// LookPathFunc resolves an executable name, like exec.LookPath
type LookPathFunc func(file string) (string, error)

// CheckTooling looks for the go toolchain and, when needUI is set, a Chrome
// binary. chromePath, when set, must exist. Any missing tool is an error.
func CheckTooling(lookPath LookPathFunc, chromePath string, needUI bool) ([]Tool, error) {
	var tools []Tool
	var missing []string

	goTool := Tool{Name: "go"}
	if p, err := lookPath("go"); err == nil {
		goTool.Path, goTool.Found = p, true
	} else {
		missing = append(missing, "go toolchain")
	}
	tools = append(tools, goTool)

	if needUI {
		chrome := Tool{Name: "chrome"}
		if chromePath != "" {
			if _, err := os.Stat(chromePath); err == nil {
				chrome.Path, chrome.Found = chromePath, true
			} else {
				missing = append(missing, fmt.Sprintf("chrome at %s", chromePath))
			}
		} else {
			for _, name := range chromeCandidates {
				if p, err := lookPath(name); err == nil {
					chrome.Path, chrome.Found = p, true
					break
				}
			}
			if !chrome.Found {
				missing = append(missing, "chrome ("+strings.Join(chromeCandidates, ", ")+")")
			}
		}
		tools = append(tools, chrome)
	}

	if len(missing) > 0 {
		return tools, fmt.Errorf("%w: %s", ErrMissingTooling, strings.Join(missing, "; "))
	}
	return tools, nil
}
