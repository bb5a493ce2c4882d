package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/torosent/protobench/internal/config"
	"github.com/torosent/protobench/internal/httpclient"
	"github.com/torosent/protobench/internal/logging"
	"github.com/torosent/protobench/internal/store"
	"github.com/torosent/protobench/internal/tracing"
)

const (
	sqliteFilename  = "results.db"
	shutdownTimeout = 5 * time.Second
)

// app carries the state shared by every subcommand once flags are parsed.
type app struct {
	out    io.Writer
	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	a := &app{out: stdout}

	root := &cobra.Command{
		Use:   "protobench",
		Short: "Compare page-load performance across HTTP/1.1, HTTP/2 and HTTP/3",
		Long: `protobench loads test pages of known shape over a chosen HTTP transport,
records navigation and resource timings, and keeps the results for
comparison. It also captures and aggregates curl-style trial logs per
protocol.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}
	root.SetOut(stdout)
	config.RegisterFlags(root)

	root.AddCommand(
		newCollectCmd(a),
		newProbeCmd(a),
		newResultsCmd(a),
		newStatsCmd(a),
		newExportCmd(a),
		newClearCmd(a),
		newCaptureCmd(a),
		newAnalyzeCmd(a),
		newScenariosCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.NewLoader().LoadFlags(cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logging.Setup(cfg.Verbose)
	if cfg.ConfigFile != "" {
		a.logger.Debug("config file loaded", "path", cfg.ConfigFile)
	}
	return nil
}

// openStore builds the result store for the configured backend. The returned
// func releases the backend.
func (a *app) openStore(ctx context.Context) (*store.Store, func(), error) {
	var backend store.Backend
	release := func() {}

	switch a.cfg.Storage.Backend {
	case config.StorageMemory:
		backend = store.NewMemoryBackend()
	case config.StorageFile:
		fb, err := store.NewFileBackend(a.cfg.Storage.Path)
		if err != nil {
			return nil, nil, err
		}
		backend = fb
	case config.StorageSQLite:
		path := a.cfg.Storage.Path
		if filepath.Ext(path) == "" {
			path = filepath.Join(path, sqliteFilename)
		}
		db, err := store.OpenSQLite(ctx, path)
		if err != nil {
			return nil, nil, err
		}
		backend = db
		release = func() {
			if err := db.Close(); err != nil {
				a.logger.Warn("closing result database", "error", err)
			}
		}
	default:
		return nil, nil, fmt.Errorf("unsupported storage backend %q", a.cfg.Storage.Backend)
	}

	a.logger.Debug("result store opened", "backend", a.cfg.Storage.Backend, "key", a.cfg.Storage.Key)
	return store.New(backend, store.Options{Key: a.cfg.Storage.Key, Logger: a.logger}), release, nil
}

// startTracing initializes span export for live page loads. The returned func
// flushes and shuts the exporter down.
func (a *app) startTracing(ctx context.Context) (*tracing.Provider, func(), error) {
	provider, err := tracing.Init(ctx, a.cfg.Tracing)
	if err != nil {
		return nil, nil, err
	}
	shutdown := func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(sctx); err != nil {
			a.logger.Warn("tracing shutdown", "error", err)
		}
	}
	return provider, shutdown, nil
}

func (a *app) probeMode() httpclient.Mode {
	return httpclient.Mode(a.cfg.Probe.Mode)
}
