package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/torosent/protobench/internal/scenario"
)

type StorageBackend string

const (
	StorageMemory StorageBackend = "memory"
	StorageFile   StorageBackend = "file"
	StorageSQLite StorageBackend = "sqlite"
)

// ProbeMode selects which HTTP versions the live probe may negotiate.
type ProbeMode string

const (
	ProbeHTTP1 ProbeMode = "http1"
	ProbeHTTP2 ProbeMode = "http2"
	ProbeAuto  ProbeMode = "auto"
)

type Config struct {
	Storage       StorageConfig `mapstructure:"storage"`
	LogDir        string        `mapstructure:"log_dir"`
	SummaryPath   string        `mapstructure:"summary_path"`
	SummaryFormat string        `mapstructure:"summary_format"`
	ExportDir     string        `mapstructure:"export_dir"`
	Probe         ProbeConfig   `mapstructure:"probe"`
	Capture       CaptureConfig `mapstructure:"capture"`
	Thresholds    []string      `mapstructure:"thresholds"`
	JSONOutput    bool          `mapstructure:"json_output"`
	HTMLOutput    string        `mapstructure:"html_output"`
	Tracing       TracingConfig `mapstructure:"tracing"`
	Verbose       bool          `mapstructure:"verbose"`
	ConfigFile    string        `mapstructure:"-"`
}

type StorageConfig struct {
	Backend StorageBackend `mapstructure:"backend"`
	Path    string         `mapstructure:"path"` // directory for file, database file for sqlite
	Key     string         `mapstructure:"key"`
}

type ProbeConfig struct {
	Target      string        `mapstructure:"target"`   // origin serving the scenario pages
	Mode        ProbeMode     `mapstructure:"mode"`     // http1, http2 or auto
	Timeout     time.Duration `mapstructure:"timeout"`  // per page load
	Settle      time.Duration `mapstructure:"settle"`   // delay after load before sampling
	Insecure    bool          `mapstructure:"insecure"` // skip TLS verification
	Concurrency int           `mapstructure:"concurrency"`
}

type CaptureConfig struct {
	Trials    int      `mapstructure:"trials"`
	Rate      float64  `mapstructure:"rate"` // trials per second, 0 = unpaced
	Retries   int      `mapstructure:"retries"`
	Arrival   string   `mapstructure:"arrival"` // uniform or poisson
	Scenarios []string `mapstructure:"scenarios"`
	Modes     []string `mapstructure:"modes"`
}

// TracingConfig configures OpenTelemetry span export for probe page loads.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"` // grpc or http
	Insecure    bool    `mapstructure:"insecure"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	ServiceName string  `mapstructure:"service_name"`
	Propagate   *bool   `mapstructure:"propagate"`
}

// Enabled reports whether spans should be exported.
func (t TracingConfig) Enabled() bool {
	return strings.TrimSpace(t.Endpoint) != ""
}

// ShouldPropagate reports whether W3C trace headers should be injected into
// probe requests. Defaults to true when tracing is enabled.
func (t TracingConfig) ShouldPropagate() bool {
	if t.Propagate != nil {
		return *t.Propagate
	}
	return t.Enabled()
}

// Default returns the configuration used when neither a file nor flags set a value.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend: StorageFile,
			Path:    ".protobench",
			Key:     "http-protocol-test-results",
		},
		LogDir:      filepath.Join("results", "raw"),
		SummaryPath: filepath.Join("results", "summary.json"),
		ExportDir:   ".",
		Probe: ProbeConfig{
			Target:      "https://localhost:3000",
			Mode:        ProbeAuto,
			Timeout:     30 * time.Second,
			Settle:      100 * time.Millisecond,
			Concurrency: 6,
		},
		Capture: CaptureConfig{
			Trials:    10,
			Arrival:   "uniform",
			Scenarios: []string{"light", "heavy", "many"},
			Modes:     []string{string(ProbeHTTP1), string(ProbeHTTP2)},
		},
		Tracing: TracingConfig{SampleRate: 1.0},
	}
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string

	issues = append(issues, validateStorage(c.Storage)...)

	switch strings.ToLower(c.SummaryFormat) {
	case "", "json", "yaml", "yml":
	default:
		issues = append(issues, fmt.Sprintf("summary_format must be 'json' or 'yaml', got %q", c.SummaryFormat))
	}

	issues = append(issues, validateProbe(c.Probe)...)
	issues = append(issues, validateCapture(c.Capture)...)

	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		issues = append(issues, "tracing: sample_rate must be between 0.0 and 1.0")
	}
	switch strings.ToLower(c.Tracing.Protocol) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing: protocol must be 'grpc' or 'http', got %q", c.Tracing.Protocol))
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

func validateStorage(s StorageConfig) []string {
	var issues []string
	switch s.Backend {
	case StorageMemory:
	case StorageFile, StorageSQLite:
		if strings.TrimSpace(s.Path) == "" {
			issues = append(issues, fmt.Sprintf("storage: path is required for the %s backend", s.Backend))
		}
	default:
		issues = append(issues, fmt.Sprintf("storage: backend must be 'memory', 'file', or 'sqlite', got %q", s.Backend))
	}
	if strings.TrimSpace(s.Key) == "" {
		issues = append(issues, "storage: key is required")
	}
	return issues
}

func validateProbe(p ProbeConfig) []string {
	var issues []string
	if strings.TrimSpace(p.Target) == "" {
		issues = append(issues, "probe: target is required")
	}
	if !ValidMode(string(p.Mode)) {
		issues = append(issues, fmt.Sprintf("probe: mode must be 'http1', 'http2', or 'auto', got %q", p.Mode))
	}
	if p.Timeout < 0 {
		issues = append(issues, "probe: timeout must be >= 0")
	}
	if p.Settle < 0 {
		issues = append(issues, "probe: settle must be >= 0")
	}
	if p.Concurrency < 1 {
		issues = append(issues, "probe: concurrency must be >= 1")
	}
	return issues
}

func validateCapture(c CaptureConfig) []string {
	var issues []string
	if c.Trials < 1 {
		issues = append(issues, "capture: trials must be >= 1")
	}
	if c.Rate < 0 {
		issues = append(issues, "capture: rate must be >= 0")
	}
	if c.Retries < 0 {
		issues = append(issues, "capture: retries must be >= 0")
	}
	if c.Arrival != "uniform" && c.Arrival != "poisson" {
		issues = append(issues, fmt.Sprintf("capture: arrival must be 'uniform' or 'poisson', got %q", c.Arrival))
	}
	for idx, name := range c.Scenarios {
		if !scenario.Valid(name) {
			issues = append(issues, fmt.Sprintf("capture: scenarios[%d] %q is not a known scenario (%s)", idx, name, strings.Join(scenario.Names, ", ")))
		}
	}
	for idx, mode := range c.Modes {
		if mode == string(ProbeAuto) || !ValidMode(mode) {
			issues = append(issues, fmt.Sprintf("capture: modes[%d] must be 'http1' or 'http2', got %q", idx, mode))
		}
	}
	return issues
}

// ValidMode reports whether s names a probe mode.
func ValidMode(s string) bool {
	switch ProbeMode(s) {
	case ProbeHTTP1, ProbeHTTP2, ProbeAuto:
		return true
	default:
		return false
	}
}
