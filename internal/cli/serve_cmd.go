package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/streamsplit/internal/backend"
	"github.com/mmynk/streamsplit/internal/config"
	"github.com/mmynk/streamsplit/internal/metrics"
	"github.com/mmynk/streamsplit/internal/middleware"
	"github.com/mmynk/streamsplit/internal/service"
	"github.com/mmynk/streamsplit/internal/tracker"
	"github.com/mmynk/streamsplit/pkg/api"
	"github.com/mmynk/streamsplit/pkg/logging"
)

func newServeCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the household API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, envFile)
		},
	}
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file read before the environment")
	return cmd
}

// loadConfig reads the dotenv file and the environment and validates the result.
func loadConfig(envFile string) (*config.Config, error) {
	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, err
	}
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServe(ctx context.Context, envFile string) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	logger := logging.SetupWith(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	store, err := backend.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	publisher := backend.OpenPublisher(cfg, logger)
	defer publisher.Close()

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		_, m = metrics.NewRegistry()
	}

	tr := tracker.New(store,
		tracker.WithPublisher(publisher),
		tracker.WithMetrics(m),
		tracker.WithLogger(logger),
	)
	if err := tr.Load(ctx); err != nil {
		return fmt.Errorf("failed to load household data: %w", err)
	}

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		// h2c serves HTTP/2 without TLS for Connect and gRPC clients.
		Handler:           h2c.NewHandler(newServerHandler(tr, m, logger, cfg.CORSAllowedOrigin), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Connect server starting",
			"address", srv.Addr,
			"backend", cfg.StoreBackend,
			"metrics", cfg.MetricsEnabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}

// newServerHandler mounts the household service and, when m is non-nil, the
// metrics endpoint.
func newServerHandler(tr *tracker.Tracker, m *metrics.Metrics, logger *slog.Logger, allowedOrigin string) http.Handler {
	mux := http.NewServeMux()

	path, handler := api.NewHouseholdServiceHandler(service.NewHouseholdService(tr),
		connect.WithInterceptors(middleware.LoggingInterceptor(logger)),
	)
	mux.Handle(path, handler)

	if m != nil {
		mux.Handle("/metrics", m.Handler())
	}

	return middleware.CORS(allowedOrigin)(mux)
}
