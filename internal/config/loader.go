package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader handles loading configuration from files and command-line flags.
type Loader struct{}

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses args against the full flag set and returns the resulting Config.
func (l Loader) Load(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("protobench", pflag.ContinueOnError)
	configureFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return l.LoadFlags(fs)
}

// LoadFlags builds a Config from defaults, the optional config file named by
// --config, and finally every flag the user set explicitly.
func (Loader) LoadFlags(fs *pflag.FlagSet) (*Config, error) {
	if fs == nil {
		return nil, errors.New("flag set cannot be nil")
	}

	configPath := ""
	if f := fs.Lookup("config"); f != nil {
		configPath = strings.TrimSpace(f.Value.String())
	}

	cfg := Default()
	cfg.ConfigFile = configPath

	if configPath != "" {
		cfgViper := viper.New()
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, err
		}
		if err := applyConfigSettings(cfg, cfgViper.AllSettings()); err != nil {
			return nil, err
		}
	}

	if err := applyFlagOverrides(cfg, fs); err != nil {
		return nil, err
	}

	cfg.Probe.Target = strings.TrimRight(strings.TrimSpace(cfg.Probe.Target), "/")
	cfg.Probe.Mode = ProbeMode(strings.ToLower(strings.TrimSpace(string(cfg.Probe.Mode))))
	cfg.Storage.Backend = StorageBackend(strings.ToLower(strings.TrimSpace(string(cfg.Storage.Backend))))
	cfg.Capture.Arrival = strings.ToLower(strings.TrimSpace(cfg.Capture.Arrival))
	for i, m := range cfg.Capture.Modes {
		cfg.Capture.Modes[i] = strings.ToLower(strings.TrimSpace(m))
	}

	return cfg, nil
}

// applyConfigSettings applies settings from a config file to the Config struct.
func applyConfigSettings(cfg *Config, settings map[string]interface{}) error {
	if len(settings) == 0 {
		return nil
	}

	if raw, ok := lookupSetting(settings, "storage"); ok {
		if err := applyStorageSettings(&cfg.Storage, raw); err != nil {
			return fmt.Errorf("storage: %w", err)
		}
	}

	if raw, ok := lookupSetting(settings, "log_dir", "logdir", "log-dir"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("log_dir: %w", err)
		}
		cfg.LogDir = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "summary_path", "summarypath", "summary-path"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("summary_path: %w", err)
		}
		cfg.SummaryPath = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "summary_format", "summaryformat", "summary-format"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("summary_format: %w", err)
		}
		cfg.SummaryFormat = strings.ToLower(strings.TrimSpace(val))
	}

	if raw, ok := lookupSetting(settings, "export_dir", "exportdir", "export-dir"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("export_dir: %w", err)
		}
		cfg.ExportDir = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "probe"); ok {
		if err := applyProbeSettings(&cfg.Probe, raw); err != nil {
			return fmt.Errorf("probe: %w", err)
		}
	}

	if raw, ok := lookupSetting(settings, "capture"); ok {
		if err := applyCaptureSettings(&cfg.Capture, raw); err != nil {
			return fmt.Errorf("capture: %w", err)
		}
	}

	if raw, ok := lookupSetting(settings, "thresholds"); ok {
		val, err := asStringSlice(raw)
		if err != nil {
			return fmt.Errorf("thresholds: %w", err)
		}
		cfg.Thresholds = val
	}

	if raw, ok := lookupSetting(settings, "json_output", "jsonoutput", "json-output"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("json_output: %w", err)
		}
		cfg.JSONOutput = val
	}

	if raw, ok := lookupSetting(settings, "html_output", "htmloutput", "html-output"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("html_output: %w", err)
		}
		cfg.HTMLOutput = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "tracing"); ok {
		if err := applyTracingSettings(&cfg.Tracing, raw); err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
	}

	if raw, ok := lookupSetting(settings, "verbose"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("verbose: %w", err)
		}
		cfg.Verbose = val
	}

	return nil
}

func applyStorageSettings(s *StorageConfig, value interface{}) error {
	settings, err := toStringKeyMap(value)
	if err != nil {
		return err
	}
	if raw, ok := lookupSetting(settings, "backend"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("backend: %w", err)
		}
		s.Backend = StorageBackend(val)
	}
	if raw, ok := lookupSetting(settings, "path"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("path: %w", err)
		}
		s.Path = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "key"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("key: %w", err)
		}
		s.Key = strings.TrimSpace(val)
	}
	return nil
}

func applyProbeSettings(p *ProbeConfig, value interface{}) error {
	settings, err := toStringKeyMap(value)
	if err != nil {
		return err
	}
	if raw, ok := lookupSetting(settings, "target"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("target: %w", err)
		}
		p.Target = val
	}
	if raw, ok := lookupSetting(settings, "mode"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("mode: %w", err)
		}
		p.Mode = ProbeMode(val)
	}
	if raw, ok := lookupSetting(settings, "timeout"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		p.Timeout = dur
	}
	if raw, ok := lookupSetting(settings, "settle"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("settle: %w", err)
		}
		p.Settle = dur
	}
	if raw, ok := lookupSetting(settings, "insecure"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("insecure: %w", err)
		}
		p.Insecure = val
	}
	if raw, ok := lookupSetting(settings, "concurrency"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("concurrency: %w", err)
		}
		p.Concurrency = val
	}
	return nil
}

func applyCaptureSettings(c *CaptureConfig, value interface{}) error {
	settings, err := toStringKeyMap(value)
	if err != nil {
		return err
	}
	if raw, ok := lookupSetting(settings, "trials"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("trials: %w", err)
		}
		c.Trials = val
	}
	if raw, ok := lookupSetting(settings, "rate"); ok {
		val, err := asFloat64(raw)
		if err != nil {
			return fmt.Errorf("rate: %w", err)
		}
		c.Rate = val
	}
	if raw, ok := lookupSetting(settings, "retries"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("retries: %w", err)
		}
		c.Retries = val
	}
	if raw, ok := lookupSetting(settings, "arrival"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("arrival: %w", err)
		}
		c.Arrival = val
	}
	if raw, ok := lookupSetting(settings, "scenarios"); ok {
		val, err := asStringSlice(raw)
		if err != nil {
			return fmt.Errorf("scenarios: %w", err)
		}
		c.Scenarios = val
	}
	if raw, ok := lookupSetting(settings, "modes"); ok {
		val, err := asStringSlice(raw)
		if err != nil {
			return fmt.Errorf("modes: %w", err)
		}
		c.Modes = val
	}
	return nil
}

func applyTracingSettings(t *TracingConfig, value interface{}) error {
	settings, err := toStringKeyMap(value)
	if err != nil {
		return err
	}
	if raw, ok := lookupSetting(settings, "endpoint"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("endpoint: %w", err)
		}
		t.Endpoint = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "protocol"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("protocol: %w", err)
		}
		t.Protocol = strings.ToLower(strings.TrimSpace(val))
	}
	if raw, ok := lookupSetting(settings, "insecure"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("insecure: %w", err)
		}
		t.Insecure = val
	}
	if raw, ok := lookupSetting(settings, "sample_rate", "samplerate", "sample-rate"); ok {
		val, err := asFloat64(raw)
		if err != nil {
			return fmt.Errorf("sample_rate: %w", err)
		}
		t.SampleRate = val
	}
	if raw, ok := lookupSetting(settings, "service_name", "servicename", "service-name"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("service_name: %w", err)
		}
		t.ServiceName = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "propagate"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("propagate: %w", err)
		}
		t.Propagate = &val
	}
	return nil
}
