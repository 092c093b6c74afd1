// Package selector maps symbolic element names to DOM lookup strategies.
//
// Selectors are registered once per page object and are never resolved at
// registration time. A Locator is a lazy description of zero or more nodes
// that a Driver resolves against the live DOM on every read, so elements
// rendered asynchronously are found by later assertions.
package selector

import (
	"errors"
	"fmt"
	"strings"
)

// TestIDAttribute is the stable test-only attribute used to address elements
const TestIDAttribute = "data-cy"

var (
	// ErrNotFound is returned when a locator resolves to no nodes before timeout
	ErrNotFound = errors.New("element not found")

	// ErrDuplicateSelector is returned when a registry is built with a repeated name
	ErrDuplicateSelector = errors.New("duplicate selector name")
)

// Selector binds a symbolic name to a CSS query
type Selector struct {
	Name  string
	Query string
}

// TestID returns a selector addressing [data-cy="name"]
func TestID(name string) Selector {
	return Selector{Name: name, Query: TestIDQuery(name)}
}

// TestIDQuery returns the CSS query for a test-id attribute value
func TestIDQuery(name string) string {
	return fmt.Sprintf(`[%s="%s"]`, TestIDAttribute, name)
}

// TestIDPrefixQuery returns the CSS query for test-id values starting with prefix
func TestIDPrefixQuery(prefix string) string {
	return fmt.Sprintf(`[%s^="%s"]`, TestIDAttribute, prefix)
}

// CSS returns a selector for an arbitrary CSS query
func CSS(name, query string) Selector {
	return Selector{Name: name, Query: query}
}

// Locate returns a lazy locator for the selector
func (s Selector) Locate() Locator {
	return Locator{Name: s.Name, Query: s.Query, index: -1}
}

// Locator describes how to find nodes at assertion time.
// The zero value is not usable; build locators from a Selector or Registry.
type Locator struct {
	Name  string
	Query string

	scope *Locator
	text  string
	index int
}

// Within restricts the lookup to descendants of nodes matched by scope
func (l Locator) Within(scope Locator) Locator {
	l.scope = &scope
	return l
}

// HasText keeps only nodes whose text content contains text
func (l Locator) HasText(text string) Locator {
	l.text = text
	return l
}

// Nth keeps only the i-th match (zero based)
func (l Locator) Nth(i int) Locator {
	l.index = i
	return l
}

// Scope returns the enclosing locator, if any
func (l Locator) Scope() (Locator, bool) {
	if l.scope == nil {
		return Locator{}, false
	}
	return *l.scope, true
}

// Text returns the text filter, empty when unset
func (l Locator) Text() string {
	return l.text
}

// Index returns the index filter; ok is false when every match is kept
func (l Locator) Index() (int, bool) {
	return l.index, l.index >= 0
}

// String describes the locator by symbolic name for failure messages
func (l Locator) String() string {
	var b strings.Builder
	if l.scope != nil {
		b.WriteString(l.scope.String())
		b.WriteString(" > ")
	}
	b.WriteString(l.Name)
	if l.text != "" {
		fmt.Fprintf(&b, " containing %q", l.text)
	}
	if l.index >= 0 {
		fmt.Fprintf(&b, "[%d]", l.index)
	}
	return b.String()
}

// Spec is the wire form of a locator evaluated inside the page
type Spec struct {
	Query string `json:"query"`
	Text  string `json:"text,omitempty"`
	Index int    `json:"index"`
	Scope *Spec  `json:"scope,omitempty"`
}

// Spec converts the locator into its in-page evaluation form
func (l Locator) Spec() Spec {
	s := Spec{Query: l.Query, Text: l.text, Index: l.index}
	if l.scope != nil {
		scope := l.scope.Spec()
		s.Scope = &scope
	}
	return s
}

// NotFoundError reports a locator that never matched
type NotFoundError struct {
	Locator Locator
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %q (%s)", ErrNotFound, e.Locator.String(), e.Locator.Query)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}
