package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/c360studio/fwexpert/analyzer"
	"github.com/c360studio/fwexpert/config"
	"github.com/c360studio/fwexpert/expert"
	"github.com/c360studio/fwexpert/framework"
	"github.com/c360studio/fwexpert/generator"
	"github.com/c360studio/fwexpert/knowledge"
	"github.com/c360studio/fwexpert/llm"
	"github.com/c360studio/fwexpert/retriever"
)

// app wires the whole pipeline for one process: NATS-backed knowledge
// store, collaborator client, the three pipeline phases, and the
// service facade.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	ns       *server.Server
	nc       *nats.Conn
	store    *knowledge.Store
	service  *expert.Service
	registry *prometheus.Registry
	watcher  *expert.Watcher
}

// newApp builds the process wiring from config. All components are
// constructed once here and injected; nothing is a package singleton.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	if err := a.connectStore(ctx); err != nil {
		a.Close()
		return nil, err
	}

	modelRegistry := cfg.Registry()
	if err := modelRegistry.Validate(); err != nil {
		a.Close()
		return nil, fmt.Errorf("model registry: %w", err)
	}

	retryConfig := llm.DefaultRetryConfig()
	if cfg.LLM.MaxRetries > 0 {
		retryConfig.MaxAttempts = cfg.LLM.MaxRetries
	}
	client := llm.NewClient(modelRegistry,
		llm.WithLogger(logger),
		llm.WithRetryConfig(retryConfig),
		llm.WithHTTPClient(&http.Client{Timeout: cfg.LLM.Timeout}),
	)

	anlz := analyzer.New(a.store, client, cfg.Analyzer, analyzer.WithLogger(logger))
	retr := retriever.New(a.store, cfg.Retriever, retriever.WithLogger(logger))
	gen := generator.New(client,
		generator.WithLogger(logger),
		generator.WithTemperature(cfg.LLM.Temperature),
	)

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := expert.NewMetrics(a.registry)

	a.service = expert.NewService(a.store, anlz, retr, gen,
		expert.WithLogger(logger),
		expert.WithMetrics(metrics),
	)

	if cfg.Watch.Enabled {
		roots := make(map[string]framework.Type)
		for name, src := range cfg.Analyzer.Sources {
			ft, err := framework.ParseType(name)
			if err != nil || src.Root == "" {
				continue
			}
			abs, err := filepath.Abs(src.Root)
			if err != nil {
				continue
			}
			roots[abs] = ft
		}
		if len(roots) > 0 {
			a.watcher = expert.NewWatcher(a.store, roots, cfg.Watch.Debounce, logger)
		}
	}

	return a, nil
}

// connectStore brings up the knowledge store: embedded or external
// NATS JetStream KV per config.
func (a *app) connectStore(ctx context.Context) error {
	url := a.cfg.NATS.URL

	if a.cfg.NATS.Embedded && url == "" {
		storeDir := a.cfg.NATS.StoreDir
		if storeDir == "" {
			dir, err := os.MkdirTemp("", "fwexpert-js-")
			if err != nil {
				return fmt.Errorf("create jetstream store dir: %w", err)
			}
			storeDir = dir
		}

		opts := &server.Options{
			Port:      -1,
			JetStream: true,
			StoreDir:  storeDir,
		}
		ns, err := server.NewServer(opts)
		if err != nil {
			return fmt.Errorf("create embedded NATS server: %w", err)
		}
		go ns.Start()
		if !ns.ReadyForConnections(10 * time.Second) {
			ns.Shutdown()
			return errors.New("embedded NATS server did not become ready")
		}
		a.ns = ns
		url = ns.ClientURL()
		a.logger.Info("Embedded NATS server started", "url", url, "store_dir", storeDir)
	}

	nc, err := nats.Connect(url, nats.Name("fwexpert"), nats.MaxReconnects(-1))
	if err != nil {
		return fmt.Errorf("connect to NATS at %s: %w", url, err)
	}
	a.nc = nc

	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("create JetStream context: %w", err)
	}

	kv, err := knowledge.NewNATSKV(ctx, js, a.cfg.NATS.Bucket)
	if err != nil {
		return fmt.Errorf("open knowledge bucket %q: %w", a.cfg.NATS.Bucket, err)
	}

	a.store = knowledge.NewStore(kv, knowledge.WithLogger(a.logger))
	return nil
}

// Serve runs the HTTP API (and the staleness watcher, when enabled)
// until ctx is cancelled.
func (a *app) Serve(ctx context.Context) error {
	mux := http.NewServeMux()
	a.service.RegisterHTTPHandlers(mux)
	expert.RegisterMetricsHandler(mux, a.registry)

	srv := &http.Server{
		Addr:         a.cfg.HTTP.Listen,
		Handler:      mux,
		ReadTimeout:  a.cfg.HTTP.ReadTimeout,
		WriteTimeout: a.cfg.HTTP.WriteTimeout,
	}

	if a.watcher != nil {
		go func() {
			if err := a.watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("Staleness watcher stopped", "error", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Expert service listening", "addr", a.cfg.HTTP.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Close tears down NATS resources.
func (a *app) Close() {
	if a.nc != nil {
		a.nc.Close()
	}
	if a.ns != nil {
		a.ns.Shutdown()
		a.ns.WaitForShutdown()
	}
}
