package commands

// navigationTimingScript reads the first navigation entry, null when the
// browser has none
const navigationTimingScript = `(() => {
  const e = performance.getEntriesByType('navigation')[0];
  if (!e) return null;
  return {
    domContentLoaded: e.domContentLoadedEventEnd - e.domContentLoadedEventStart,
    loadComplete: e.loadEventEnd - e.loadEventStart,
    totalTime: e.loadEventEnd - e.startTime
  };
})()`

// PerformanceMetrics are navigation timings in milliseconds
type PerformanceMetrics struct {
	Name             string  `json:"testName"`
	DOMContentLoaded float64 `json:"domContentLoaded"`
	LoadComplete     float64 `json:"loadComplete"`
	TotalTime        float64 `json:"totalTime"`

	// Available is false when the page exposed no navigation entry
	Available bool `json:"-"`
}

// MeasurePerformance reads the page's navigation timing and logs it
func (c *Commands) MeasurePerformance(name string) PerformanceMetrics {
	c.t().Helper()
	var entry *PerformanceMetrics
	c.Shell.Evaluate(navigationTimingScript, &entry)
	if entry == nil {
		c.logger.Warn().Str("test", name).Msg("No navigation timing available")
		return PerformanceMetrics{Name: name}
	}

	m := *entry
	m.Name = name
	m.Available = true
	c.logger.Info().
		Str("test", name).
		Float64("dom_content_loaded_ms", m.DOMContentLoaded).
		Float64("load_complete_ms", m.LoadComplete).
		Float64("total_ms", m.TotalTime).
		Msg("Page performance")
	return m
}
