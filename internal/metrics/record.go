package metrics

// Record is one observation of a single page load.
type Record struct {
	Protocol      string           `json:"protocol"`
	TTFB          float64          `json:"ttfb"`
	DOMLoad       float64          `json:"domLoad"`
	FullLoad      float64          `json:"fullLoad"`
	ResourceCount int              `json:"resourceCount"`
	TotalSize     int64            `json:"totalSize"`
	Resources     []ResourceSample `json:"resources"`
	Timestamp     string           `json:"timestamp"`
	Error         string           `json:"error,omitempty"`
}

// ResourceSample is the timing of one sub-resource.
type ResourceSample struct {
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	Duration  float64 `json:"duration"`
	Size      int64   `json:"size"`
	Protocol  string  `json:"protocol"`
	StartTime float64 `json:"startTime"`
	TTFB      float64 `json:"ttfb"`
}

// Failed reports whether the record was produced from a collection failure.
func (r Record) Failed() bool { return r.Error != "" }
