// Package browser drives a real browser for page objects and commands.
//
// Page objects talk to a Driver, never to chromedp directly. Session is the
// chromedp implementation; browsertest provides an in-memory one for unit
// tests.
package browser

import (
	"context"
	"strings"

	"github.com/ternarybob/conduit-e2e/internal/selector"
)

// Key is a special key that can be pressed on a focused element
type Key string

const (
	KeyEnter     Key = "Enter"
	KeyTab       Key = "Tab"
	KeyCtrlEnter Key = "Ctrl+Enter"
	KeyCtrlA     Key = "Ctrl+A"
)

// Node is a snapshot of one resolved DOM node
type Node struct {
	Text     string            `json:"text"`
	Value    string            `json:"value"`
	Visible  bool              `json:"visible"`
	Disabled bool              `json:"disabled"`
	Focused  bool              `json:"focused"`
	TagName  string            `json:"tagName"`
	Attrs    map[string]string `json:"attrs"`
	Classes  []string          `json:"classes"`
	HTML     string            `json:"html"`
}

// Attr returns the value of an attribute and whether it is present
func (n Node) Attr(name string) (string, bool) {
	v, ok := n.Attrs[name]
	return v, ok
}

// HasClass reports whether the node carries class
func (n Node) HasClass(class string) bool {
	for _, c := range n.Classes {
		if c == class {
			return true
		}
	}
	return false
}

// Driver is everything a page object needs from a browser. Element actions
// act on the first node the locator resolves to.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	Reload(ctx context.Context) error
	Location(ctx context.Context) (string, error)

	Query(ctx context.Context, loc selector.Locator) ([]Node, error)
	Click(ctx context.Context, loc selector.Locator) error
	Clear(ctx context.Context, loc selector.Locator) error
	Type(ctx context.Context, loc selector.Locator, text string) error
	Press(ctx context.Context, loc selector.Locator, key Key) error
	Focus(ctx context.Context, loc selector.Locator) error

	LocalStorage(ctx context.Context, key string) (string, bool, error)
	SetLocalStorage(ctx context.Context, key, value string) error
	ClearStorage(ctx context.Context) error
	ClearCookies(ctx context.Context) error

	SetViewport(ctx context.Context, vp Viewport) error
	Screenshot(ctx context.Context) ([]byte, error)
	Evaluate(ctx context.Context, expression string, result interface{}) error
}

// NormalizeText collapses runs of whitespace the way rendered text does
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
