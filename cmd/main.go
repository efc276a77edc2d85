package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	service "github.com/okian/mapperator/internal/app"
	"github.com/okian/mapperator/internal/adapters/codec"
	"github.com/okian/mapperator/internal/adapters/http/api"
	"github.com/okian/mapperator/internal/config"
	"github.com/okian/mapperator/pkg/logger"
	"github.com/okian/mapperator/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

// stdio names standard input or output in path settings.
const stdio = "-"

var errNoPattern = errors.New("pattern_path is not set")

func main() {
	// Generated events go to stdout by default, so logs go to stderr.
	if err := logger.InitWithWriter(os.Stderr); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if cfg.Addr != "" {
		err = serve(ctx, cfg)
	} else {
		err = run(ctx, cfg, os.Stdin, os.Stdout)
	}
	if err != nil {
		logger.Get().Error(ctx, "generation failed", logger.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

// run loads the corpus, generates from the pattern and writes the result.
func run(ctx context.Context, cfg *config.Config, stdin io.Reader, stdout io.Writer) error {
	l := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		l.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if cfg.MetricsAddr != "" {
		srv := serveMetrics(ctx, cfg.MetricsAddr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				l.Error(ctx, "metrics server shutdown failed", logger.Error(err))
			}
		}()
	}

	svc := service.New(service.WithConfig(cfg), service.WithLogger(l))
	if cfg.CorpusPath != "" {
		if err := svc.LoadCorpusFile(ctx, cfg.CorpusPath); err != nil {
			return err
		}
	} else {
		l.Warn(ctx, "corpus_path is not set; every position will fall back to the pattern")
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop(context.Background())

	in, closeIn, err := openInput(cfg.PatternPath, stdin)
	if err != nil {
		return err
	}
	out, genErr := svc.GenerateFrom(ctx, in)
	closeIn()
	if genErr != nil && len(out.Events) == 0 {
		return genErr
	}

	// A cancelled run still writes what it generated.
	dst, closeOut, err := openOutput(cfg.OutputPath, stdout)
	if err != nil {
		return err
	}
	w := codec.NewWriter(dst)
	if err := w.WriteHeader(); err != nil {
		return errors.Join(fmt.Errorf("write output: %w", err), closeOut())
	}
	if err := w.WriteEvents(out.Events); err != nil {
		return errors.Join(fmt.Errorf("write output: %w", err), closeOut())
	}
	if err := w.Flush(); err != nil {
		return errors.Join(fmt.Errorf("write output: %w", err), closeOut())
	}
	if err := closeOut(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	return genErr
}

// serve runs the HTTP API until ctx is cancelled.
func serve(ctx context.Context, cfg *config.Config) error {
	l := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		l.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc := service.New(service.WithConfig(cfg), service.WithLogger(l))
	if cfg.CorpusPath != "" {
		if err := svc.LoadCorpusFile(ctx, cfg.CorpusPath); err != nil {
			return err
		}
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop(context.Background())

	srv := newServer(cfg.Addr, newMux(svc))
	errCh := make(chan error, 1)
	go func() {
		l.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	l.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	l.Info(ctx, "server stopped")
	return nil
}

// newMux routes the API and the metrics endpoint.
func newMux(deps api.Dependencies) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, nil).Register(mux)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	return mux
}

func newServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

func openInput(path string, stdin io.Reader) (io.Reader, func(), error) {
	switch path {
	case "":
		return nil, nil, errNoPattern
	case stdio:
		return stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open pattern: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == stdio {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	return f, f.Close, nil
}

// serveMetrics exposes the metrics registry on addr until shutdown.
func serveMetrics(ctx context.Context, addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	srv := newServer(addr, mux)
	go func() {
		logger.Get().Info(ctx, "starting metrics server", logger.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Get().Error(ctx, "metrics server failed", logger.Error(err))
		}
	}()
	return srv
}
