package browser

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Viewport is a browser window size
type Viewport struct {
	Name   string
	Width  int64
	Height int64
}

func (v Viewport) String() string {
	if v.Name != "" {
		return fmt.Sprintf("%s (%dx%d)", v.Name, v.Width, v.Height)
	}
	return fmt.Sprintf("%dx%d", v.Width, v.Height)
}

// Device presets used by the responsive suites
var presets = map[string]Viewport{
	"iphone-x":   {Name: "iphone-x", Width: 375, Height: 812},
	"ipad-2":     {Name: "ipad-2", Width: 768, Height: 1024},
	"mobile":     {Name: "mobile", Width: 375, Height: 667},
	"tablet":     {Name: "tablet", Width: 768, Height: 1024},
	"laptop":     {Name: "laptop", Width: 1366, Height: 768},
	"desktop":    {Name: "desktop", Width: 1920, Height: 1080},
	"macbook-15": {Name: "macbook-15", Width: 1440, Height: 900},
}

// Preset returns a named device viewport
func Preset(name string) (Viewport, bool) {
	vp, ok := presets[strings.ToLower(name)]
	return vp, ok
}

// PresetNames returns the preset names sorted alphabetically
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseViewport accepts a preset name or WIDTHxHEIGHT
func ParseViewport(s string) (Viewport, error) {
	if vp, ok := Preset(s); ok {
		return vp, nil
	}

	w, h, found := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !found {
		return Viewport{}, fmt.Errorf("invalid viewport %q: expected preset or WIDTHxHEIGHT", s)
	}
	width, err := strconv.ParseInt(w, 10, 64)
	if err != nil || width <= 0 {
		return Viewport{}, fmt.Errorf("invalid viewport width in %q", s)
	}
	height, err := strconv.ParseInt(h, 10, 64)
	if err != nil || height <= 0 {
		return Viewport{}, fmt.Errorf("invalid viewport height in %q", s)
	}
	return Viewport{Width: width, Height: height}, nil
}

// WithWidth returns a viewport of the given width keeping height
func (v Viewport) WithWidth(width int64) Viewport {
	return Viewport{Width: width, Height: v.Height}
}
