package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/sync/errgroup"

	"github.com/MrEthical07/authflow"
	"github.com/MrEthical07/authflow/idp/identitytoolkit"
	"github.com/MrEthical07/authflow/internal/httpapi"
	"github.com/MrEthical07/authflow/internal/logging"
	"github.com/MrEthical07/authflow/jwt"
	promexport "github.com/MrEthical07/authflow/metrics/export/prometheus"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the auth flow API",
		Long: `Serve the auth flow API over HTTP. Each browser form mounts a flow,
drives it with JSON posts and polls it for notifications and navigations.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			if err := cfg.validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return runServe(cmd.Context(), cfg)
		},
	}
	bindServeFlags(cmd.Flags())
	return cmd
}

// server is a fully wired host. Closing it releases the engine and its
// backing resources.
type server struct {
	logger  *slog.Logger
	engine  *authflow.Engine
	handler *httpapi.Handler
	metrics http.Handler
	closers []func()
}

func (s *server) Close() {
	s.handler.Close()
	s.engine.Close()
	s.release()
}

func (s *server) release() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

func newServer(cfg hostConfig) (*server, error) {
	logger := logging.Setup("authflow", version, logging.Options{
		Format: cfg.Log.Format,
		Level:  cfg.Log.Level,
	})
	s := &server{logger: logger}

	tokens, err := jwt.NewReader(jwt.Config{ProjectID: cfg.IdentityToolkit.ProjectID})
	if err != nil {
		return nil, err
	}
	gw, err := identitytoolkit.New(identitytoolkit.Config{
		APIKey:     cfg.IdentityToolkit.APIKey,
		BaseURL:    cfg.IdentityToolkit.BaseURL,
		RequestURI: cfg.IdentityToolkit.RequestURI,
		Tokens:     tokens,
		MaxRetries: cfg.IdentityToolkit.MaxRetries,
		RetryBase:  cfg.IdentityToolkit.RetryBase,
	})
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.Tracing.SampleRatio))),
	)
	s.closers = append(s.closers, func() { _ = tp.Shutdown(context.Background()) })

	b := authflow.New().
		WithConfig(cfg.Flows).
		WithGateway(gw).
		WithLogger(logger).
		WithAuditSink(authflow.SlogSink{Logger: logger.With("component", "audit")}).
		WithTracerProvider(tp)

	client, closeRedis, err := openRedis(cfg, logger)
	if err != nil {
		s.release()
		return nil, err
	}
	if client != nil {
		b = b.WithRedis(client)
		s.closers = append(s.closers, closeRedis)
	}

	s.engine, err = b.Build()
	if err != nil {
		s.release()
		return nil, err
	}
	for _, w := range cfg.Flows.Lint() {
		logger.Warn("config lint", "code", w.Code, "message", w.Message)
	}

	s.handler = httpapi.New(s.engine, logger, cfg.httpConfig())

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		promexport.NewCollector(s.engine),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	s.metrics = mux
	return s, nil
}

// openRedis connects the verification throttle store. "memory" starts an
// in-process server for local runs.
func openRedis(cfg hostConfig, logger *slog.Logger) (redis.UniversalClient, func(), error) {
	addr := cfg.Redis.Addr
	switch addr {
	case "":
		return nil, nil, nil
	case "memory":
		mr, err := miniredis.Run()
		if err != nil {
			return nil, nil, fmt.Errorf("start in-memory redis: %w", err)
		}
		logger.Info("using in-memory redis", "addr", mr.Addr())
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		return client, func() {
			_ = client.Close()
			mr.Close()
		}, nil
	default:
		client := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    []string{addr},
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return client, func() { _ = client.Close() }, nil
	}
}

func runServe(ctx context.Context, cfg hostConfig) error {
	s, err := newServer(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	g, ctx := errgroup.WithContext(ctx)
	servers := []*http.Server{{
		Addr:              cfg.Listen,
		Handler:           s.handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}}
	if cfg.MetricsListen != "" {
		servers = append(servers, &http.Server{
			Addr:              cfg.MetricsListen,
			Handler:           s.metrics,
			ReadHeaderTimeout: 5 * time.Second,
		})
	}

	for _, srv := range servers {
		srv := srv
		g.Go(func() error {
			s.logger.Info("listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve %s: %w", srv.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		return s.handler.Sweep(ctx, cfg.HTTP.SweepInterval)
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
		}
		s.logger.Info("shutdown complete")
		return errors.Join(errs...)
	})
	return g.Wait()
}
