package selector

import "fmt"

// unmatchable never matches a node, used for names missing from a registry
const unmatchable = `[data-cy-unregistered]`

// Registry is an immutable name -> selector mapping loaded at page construction
type Registry struct {
	selectors map[string]Selector
}

// NewRegistry builds a registry, rejecting duplicate or empty names
func NewRegistry(selectors ...Selector) (*Registry, error) {
	r := &Registry{selectors: make(map[string]Selector, len(selectors))}
	for _, s := range selectors {
		if s.Name == "" {
			return nil, fmt.Errorf("selector with query %q has no name", s.Query)
		}
		if _, exists := r.selectors[s.Name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSelector, s.Name)
		}
		r.selectors[s.Name] = s
	}
	return r, nil
}

// MustRegistry is NewRegistry for statically declared selector tables
func MustRegistry(selectors ...Selector) *Registry {
	r, err := NewRegistry(selectors...)
	if err != nil {
		panic(err)
	}
	return r
}

// TestIDs builds test-id selectors whose name equals the attribute value
func TestIDs(names ...string) []Selector {
	out := make([]Selector, 0, len(names))
	for _, name := range names {
		out = append(out, TestID(name))
	}
	return out
}

// Get returns the selector registered under name
func (r *Registry) Get(name string) (Selector, bool) {
	s, ok := r.selectors[name]
	return s, ok
}

// Locate returns a lazy locator for name. Unknown names yield a locator
// that never matches, so the calling assertion fails as "not found" for name.
func (r *Registry) Locate(name string) Locator {
	if s, ok := r.selectors[name]; ok {
		return s.Locate()
	}
	return Selector{Name: name, Query: unmatchable}.Locate()
}

// Len returns the number of registered selectors
func (r *Registry) Len() int {
	return len(r.selectors)
}

// Names returns the registered names in no particular order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.selectors))
	for name := range r.selectors {
		names = append(names, name)
	}
	return names
}
