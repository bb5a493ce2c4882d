package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/torosent/protobench/internal/config"
)

func TestParseFlagsDefaults(t *testing.T) {
	loader := config.NewLoader()

	cfg, err := loader.Load([]string{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Storage.Backend != config.StorageFile {
		t.Errorf("Storage.Backend = %q, want file", cfg.Storage.Backend)
	}
	if cfg.Storage.Key != "http-protocol-test-results" {
		t.Errorf("Storage.Key = %q", cfg.Storage.Key)
	}
	if cfg.Probe.Mode != config.ProbeAuto {
		t.Errorf("Probe.Mode = %q, want auto", cfg.Probe.Mode)
	}
	if cfg.Probe.Timeout != 30*time.Second {
		t.Errorf("Probe.Timeout = %s, want 30s", cfg.Probe.Timeout)
	}
	if cfg.Capture.Trials != 10 {
		t.Errorf("Capture.Trials = %d, want 10", cfg.Capture.Trials)
	}
	if cfg.SummaryPath != filepath.Join("results", "summary.json") {
		t.Errorf("SummaryPath = %q", cfg.SummaryPath)
	}
	if cfg.Tracing.Enabled() {
		t.Error("tracing should be disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestLoadConfigFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "protobench.yaml")
	content := `
storage:
  backend: memory
probe:
  target: http://localhost:8080
  mode: http1
capture:
  trials: 3
  arrival: Poisson
  modes: [http1]
summary_format: yaml
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.NewLoader().Load([]string{"--config", path})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ConfigFile != path {
		t.Errorf("ConfigFile = %q, want %q", cfg.ConfigFile, path)
	}
	if cfg.Storage.Backend != config.StorageMemory {
		t.Errorf("Storage.Backend = %q, want memory", cfg.Storage.Backend)
	}
	if cfg.Probe.Target != "http://localhost:8080" || cfg.Probe.Mode != config.ProbeHTTP1 {
		t.Errorf("Probe = %+v", cfg.Probe)
	}
	if cfg.Capture.Trials != 3 || len(cfg.Capture.Modes) != 1 {
		t.Errorf("Capture = %+v", cfg.Capture)
	}
	if cfg.Capture.Arrival != "poisson" {
		t.Errorf("Capture.Arrival = %q, want poisson", cfg.Capture.Arrival)
	}
	if cfg.SummaryFormat != "yaml" {
		t.Errorf("SummaryFormat = %q, want yaml", cfg.SummaryFormat)
	}
}

func TestLoadConfigFileJSONWithFlagOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "protobench.json")
	content := `{"capture": {"trials": 7, "rate": 1.5}, "probe": {"settle": "50ms"}}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.NewLoader().Load([]string{"--config", path, "--trials", "12"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Capture.Trials != 12 {
		t.Errorf("Trials = %d, want flag override 12", cfg.Capture.Trials)
	}
	if cfg.Capture.Rate != 1.5 {
		t.Errorf("Rate = %v, want 1.5 from file", cfg.Capture.Rate)
	}
	if cfg.Probe.Settle != 50*time.Millisecond {
		t.Errorf("Settle = %v, want 50ms", cfg.Probe.Settle)
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := config.NewLoader().Load([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")})
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidateCollectsIssues(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Backend = "redis"
	cfg.Probe.Mode = "http3"
	cfg.Capture.Trials = 0
	cfg.Capture.Scenarios = []string{"light", "medium"}
	cfg.Capture.Modes = []string{"auto"}
	cfg.Capture.Arrival = "burst"
	cfg.Tracing.SampleRate = 2

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}

	var verr config.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}

	wantFragments := []string{"storage: backend", "probe: mode", "trials", "medium", "modes[0]", "arrival", "sample_rate"}
	issues := strings.Join(verr.Issues(), "\n")
	for _, frag := range wantFragments {
		if !strings.Contains(issues, frag) {
			t.Errorf("expected an issue mentioning %q, got:\n%s", frag, issues)
		}
	}
	if len(verr.Issues()) != len(wantFragments) {
		t.Errorf("got %d issues, want %d: %v", len(verr.Issues()), len(wantFragments), verr.Issues())
	}
}

func TestValidateStoragePathRequired(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Backend = config.StorageSQLite
	cfg.Storage.Path = " "

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for sqlite backend without a path")
	}

	cfg.Storage.Backend = config.StorageMemory
	if err := cfg.Validate(); err != nil {
		t.Fatalf("memory backend needs no path, got %v", err)
	}
}

func TestTracingConfig(t *testing.T) {
	var tc config.TracingConfig
	if tc.Enabled() || tc.ShouldPropagate() {
		t.Fatal("zero TracingConfig should be disabled")
	}
	tc.Endpoint = "localhost:4317"
	if !tc.Enabled() || !tc.ShouldPropagate() {
		t.Fatal("endpoint should enable tracing and propagation")
	}
	off := false
	tc.Propagate = &off
	if tc.ShouldPropagate() {
		t.Fatal("explicit propagate=false should win")
	}
}
