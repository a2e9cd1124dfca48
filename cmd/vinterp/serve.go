package main

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vango-dev/vinterp/internal/config"
	"github.com/vango-dev/vinterp/internal/errors"
	"github.com/vango-dev/vinterp/pkg/host"
	"github.com/vango-dev/vinterp/pkg/interp"
	"github.com/vango-dev/vinterp/pkg/protocol"
	"github.com/vango-dev/vinterp/pkg/telemetry"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var (
		configPath string
		port       int
		bind       string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Host a document over HTTP and WebSocket",
		Long: `Host one document and serve its edit channel.

Configuration is read from --config, or from vinterp.json / vinterp.yaml
in the working directory, or defaults.

Routes:
  GET  /ws                          edit channel (binary frames)
  POST /edits                       apply a batch (JSON or binary)
  POST /hydrate                     bind pre-rendered markup
  POST /nodes/{id}/events/{name}    fire a simulated event
  GET  /snapshot                    current markup
  GET  /metrics                     Prometheus metrics

Examples:
  vinterp serve
  vinterp serve --port=9000
  vinterp serve --config=deploy/vinterp.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}
			if bind != "" {
				cfg.Server.Host = bind
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file (default: vinterp.json or vinterp.yaml in the working directory)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from config)")
	cmd.Flags().StringVarP(&bind, "host", "H", "", "Host to bind to (default from config)")

	return cmd
}

// loadConfig reads path, or the working directory config, or defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	if config.Exists(".") {
		return config.Load(".")
	}
	return config.New(), nil
}

// newHostConfig translates file configuration into a host.Config.
func newHostConfig(cfg *config.Config, reg *prometheus.Registry) host.Config {
	logger := cfg.NewLogger(os.Stderr)
	hc := host.Config{
		QueueSize:         cfg.Server.QueueSize,
		ReadTimeout:       cfg.ReadTimeout(),
		WriteTimeout:      cfg.WriteTimeout(),
		HeartbeatInterval: cfg.HeartbeatInterval(),
		MaxMessageSize:    cfg.Server.MaxMessageSize,
		AllowedOrigins:    cfg.Server.AllowedOrigins,
		RootID:            protocol.NodeID(cfg.Interp.RootID),
		Sanitizer:         cfg.SanitizerPolicy(),
		Logger:            logger,
	}

	var observers []interp.Observer
	if cfg.Metrics.Enabled && reg != nil {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		opts := []telemetry.MetricsOption{telemetry.WithRegistry(reg)}
		if cfg.Metrics.Namespace != "" {
			opts = append(opts, telemetry.WithNamespace(cfg.Metrics.Namespace))
		}
		m := telemetry.NewMetrics(opts...)
		observers = append(observers, m)
		hc.Metrics = m
		hc.Gatherer = reg
		hc.MetricsPath = cfg.Metrics.Path
	}
	if cfg.Tracing.Enabled {
		observers = append(observers, telemetry.NewTracer(telemetry.WithTracerName(cfg.Tracing.TracerName)))
	}
	if len(observers) > 0 {
		hc.Observer = telemetry.Multi(observers...)
	}
	return hc
}

func runServe(ctx context.Context, cmd *cobra.Command, cfg *config.Config) error {
	hc := newHostConfig(cfg, prometheus.NewRegistry())
	h := host.New(hc)
	h.Start()
	defer h.Close()

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h.Routes(),
		ReadHeaderTimeout: cfg.ReadTimeout(),
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	printBanner(cmd)
	if path := cfg.Path(); path != "" {
		info(cmd, "config   %s", path)
	}
	success(cmd, "Listening on http://%s", cfg.Addr())
	hc.Logger.Info("server starting", "addr", cfg.Addr(), "metrics", cfg.Metrics.Enabled, "tracing", cfg.Tracing.Enabled)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !stderrors.Is(err, http.ErrServerClosed) {
			return errors.New(errors.CodeServeFailed).WithDetail("Could not listen on " + cfg.Addr()).Wrap(err)
		}
		return nil
	case <-ctx.Done():
	}

	info(cmd, "Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	h.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.New(errors.CodeServeFailed).Wrap(err)
	}
	hc.Logger.Info("server stopped")
	return nil
}
