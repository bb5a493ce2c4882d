package config

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// RegisterFlags registers all CLI flags as persistent flags on the root
// command so every subcommand shares them.
func RegisterFlags(cmd *cobra.Command) {
	configureFlags(cmd.PersistentFlags())
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	def := Default()

	flags.String("config", "", "Path to configuration file (JSON or YAML)")
	flags.BoolP("verbose", "v", false, "Enable debug logging")

	// Storage flags
	flags.String("store", string(def.Storage.Backend), "Result storage backend: 'memory', 'file', or 'sqlite'")
	flags.String("store-path", def.Storage.Path, "Directory (file backend) or database file (sqlite backend)")
	flags.String("store-key", def.Storage.Key, "Storage key holding the saved results")

	// Probe flags
	flags.String("target", def.Probe.Target, "Origin serving the scenario pages")
	flags.String("mode", string(def.Probe.Mode), "Transport for the live probe: 'http1', 'http2', or 'auto'")
	flags.Duration("timeout", def.Probe.Timeout, "Per page load timeout")
	flags.Duration("settle", def.Probe.Settle, "Delay after load before timing data is sampled")
	flags.Bool("insecure", false, "Skip TLS certificate verification")
	flags.Int("fetch-concurrency", def.Probe.Concurrency, "Parallel asset fetches per page load")

	// Capture flags
	flags.IntP("trials", "n", def.Capture.Trials, "Trials per scenario and mode")
	flags.Float64P("rate", "r", 0, "Trials per second limit (0 means unlimited)")
	flags.Int("retries", 0, "Number of retries per failed trial")
	flags.String("arrival", def.Capture.Arrival, "Trial arrival model: 'uniform' or 'poisson'")
	flags.StringSlice("scenarios", def.Capture.Scenarios, "Scenarios to capture")
	flags.StringSlice("modes", def.Capture.Modes, "Transports to capture ('http1', 'http2')")

	// Output flags
	flags.String("log-dir", def.LogDir, "Directory of per-protocol trial logs")
	flags.String("summary", def.SummaryPath, "Path of the offline summary file")
	flags.String("summary-format", "", "Summary format: 'json' or 'yaml' (default from file extension)")
	flags.String("export-dir", def.ExportDir, "Directory that receives exported files")
	flags.Bool("json-output", false, "Emit JSON formatted output")
	flags.String("html-output", "", "Generate HTML report to the specified file path")

	// Threshold flags
	flags.StringSlice("threshold", nil, "Summary thresholds (repeatable, e.g., 'http2.timeTotal:mean < 0.5')")

	// Tracing flags
	flags.String("otlp-endpoint", "", "OTLP collector endpoint for page load spans")
	flags.String("otlp-protocol", "grpc", "OTLP transport: 'grpc' or 'http'")
	flags.Bool("otlp-insecure", false, "Disable TLS for the OTLP exporter")
	flags.Float64("trace-sample-rate", 1.0, "Fraction of page loads to trace")
}

func changed(fs *pflag.FlagSet, name string) bool {
	f := fs.Lookup(name)
	return f != nil && f.Changed
}

// applyFlagOverrides applies command-line flag values to the config, overriding
// values from the config file.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	if changed(fs, "verbose") {
		val, err := fs.GetBool("verbose")
		if err != nil {
			return err
		}
		cfg.Verbose = val
	}
	if changed(fs, "store") {
		val, err := fs.GetString("store")
		if err != nil {
			return err
		}
		cfg.Storage.Backend = StorageBackend(val)
	}
	if changed(fs, "store-path") {
		val, err := fs.GetString("store-path")
		if err != nil {
			return err
		}
		cfg.Storage.Path = strings.TrimSpace(val)
	}
	if changed(fs, "store-key") {
		val, err := fs.GetString("store-key")
		if err != nil {
			return err
		}
		cfg.Storage.Key = strings.TrimSpace(val)
	}
	if changed(fs, "target") {
		val, err := fs.GetString("target")
		if err != nil {
			return err
		}
		cfg.Probe.Target = val
	}
	if changed(fs, "mode") {
		val, err := fs.GetString("mode")
		if err != nil {
			return err
		}
		cfg.Probe.Mode = ProbeMode(val)
	}
	if changed(fs, "timeout") {
		val, err := fs.GetDuration("timeout")
		if err != nil {
			return err
		}
		cfg.Probe.Timeout = val
	}
	if changed(fs, "settle") {
		val, err := fs.GetDuration("settle")
		if err != nil {
			return err
		}
		cfg.Probe.Settle = val
	}
	if changed(fs, "insecure") {
		val, err := fs.GetBool("insecure")
		if err != nil {
			return err
		}
		cfg.Probe.Insecure = val
	}
	if changed(fs, "fetch-concurrency") {
		val, err := fs.GetInt("fetch-concurrency")
		if err != nil {
			return err
		}
		cfg.Probe.Concurrency = val
	}
	if changed(fs, "trials") {
		val, err := fs.GetInt("trials")
		if err != nil {
			return err
		}
		cfg.Capture.Trials = val
	}
	if changed(fs, "rate") {
		val, err := fs.GetFloat64("rate")
		if err != nil {
			return err
		}
		cfg.Capture.Rate = val
	}
	if changed(fs, "retries") {
		val, err := fs.GetInt("retries")
		if err != nil {
			return err
		}
		cfg.Capture.Retries = val
	}
	if changed(fs, "arrival") {
		val, err := fs.GetString("arrival")
		if err != nil {
			return err
		}
		cfg.Capture.Arrival = val
	}
	if changed(fs, "scenarios") {
		val, err := fs.GetStringSlice("scenarios")
		if err != nil {
			return err
		}
		cfg.Capture.Scenarios = val
	}
	if changed(fs, "modes") {
		val, err := fs.GetStringSlice("modes")
		if err != nil {
			return err
		}
		cfg.Capture.Modes = val
	}
	if changed(fs, "log-dir") {
		val, err := fs.GetString("log-dir")
		if err != nil {
			return err
		}
		cfg.LogDir = strings.TrimSpace(val)
	}
	if changed(fs, "summary") {
		val, err := fs.GetString("summary")
		if err != nil {
			return err
		}
		cfg.SummaryPath = strings.TrimSpace(val)
	}
	if changed(fs, "summary-format") {
		val, err := fs.GetString("summary-format")
		if err != nil {
			return err
		}
		cfg.SummaryFormat = strings.ToLower(strings.TrimSpace(val))
	}
	if changed(fs, "export-dir") {
		val, err := fs.GetString("export-dir")
		if err != nil {
			return err
		}
		cfg.ExportDir = strings.TrimSpace(val)
	}
	if changed(fs, "json-output") {
		val, err := fs.GetBool("json-output")
		if err != nil {
			return err
		}
		cfg.JSONOutput = val
	}
	if changed(fs, "html-output") {
		val, err := fs.GetString("html-output")
		if err != nil {
			return err
		}
		cfg.HTMLOutput = strings.TrimSpace(val)
	}
	if changed(fs, "threshold") {
		val, err := fs.GetStringSlice("threshold")
		if err != nil {
			return err
		}
		cfg.Thresholds = append(cfg.Thresholds, val...)
	}
	if changed(fs, "otlp-endpoint") {
		val, err := fs.GetString("otlp-endpoint")
		if err != nil {
			return err
		}
		cfg.Tracing.Endpoint = strings.TrimSpace(val)
	}
	if changed(fs, "otlp-protocol") {
		val, err := fs.GetString("otlp-protocol")
		if err != nil {
			return err
		}
		cfg.Tracing.Protocol = strings.ToLower(strings.TrimSpace(val))
	}
	if changed(fs, "otlp-insecure") {
		val, err := fs.GetBool("otlp-insecure")
		if err != nil {
			return err
		}
		cfg.Tracing.Insecure = val
	}
	if changed(fs, "trace-sample-rate") {
		val, err := fs.GetFloat64("trace-sample-rate")
		if err != nil {
			return err
		}
		cfg.Tracing.SampleRate = val
	}
	return nil
}
