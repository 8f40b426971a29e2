package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/cartridge/replay/internal/config"
	"github.com/cartridge/replay/internal/events"
	httpServer "github.com/cartridge/replay/internal/http"
	"github.com/cartridge/replay/internal/metrics"
	"github.com/cartridge/replay/internal/service"
	"github.com/cartridge/replay/internal/storage"
	replayv1 "github.com/cartridge/replay/pkg/api/replay/v1"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "replay",
	Short: "Cartridge prioritized replay service",
	Long: `Replay service that stores experience transitions in a fixed-capacity
prioritized buffer and serves importance-weighted batches for training.

Transitions are sampled in proportion to their priority; learners report
errors back to re-prioritize what they sampled.`,
	SilenceUsage: true,
	RunE:         runServer,
}

func init() {
	cfg = config.Default()
	flags := rootCmd.Flags()

	// Listeners
	flags.IntVar(&cfg.GRPCPort, "grpc-port", cfg.GRPCPort, "gRPC server port")
	flags.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")

	// Buffer settings
	flags.IntVar(&cfg.Capacity, "capacity", cfg.Capacity, "Buffer capacity in transitions (power of two)")
	flags.Float64Var(&cfg.Alpha, "alpha", cfg.Alpha, "Prioritization exponent (0 = uniform)")
	flags.Float64Var(&cfg.Beta, "beta", cfg.Beta, "Initial importance-sampling exponent")
	flags.Float64Var(&cfg.BetaIncrement, "beta-increment", cfg.BetaIncrement, "Beta increase per sampled batch")
	flags.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Sampling seed (0 for time-based)")

	// Events
	flags.StringVar(&cfg.NATSURL, "nats-url", cfg.NATSURL, "NATS server URL (empty disables stats events)")
	flags.StringVar(&cfg.NATSSubject, "nats-subject", cfg.NATSSubject, "NATS subject for stats events")
	flags.DurationVar(&cfg.StatsInterval, "stats-interval", cfg.StatsInterval, "Interval between stats snapshots")

	// HTTP
	flags.Float64Var(&cfg.RateLimit, "rate-limit", cfg.RateLimit, "HTTP requests per second")
	flags.IntVar(&cfg.RateBurst, "rate-burst", cfg.RateBurst, "HTTP burst size")

	flags.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", cfg.ShutdownTimeout, "Graceful shutdown timeout")

	// Logging
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
}

func runServer(cmd *cobra.Command, args []string) error {
	v := viper.New()
	if err := config.BindFlags(v, cmd.Flags()); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}
	loaded, err := config.Load(v)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	cfg = loaded

	logger := cfg.Logger(os.Stdout)
	collector := metrics.NewCollector(logger)

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	// Create storage backend
	backend, err := storage.NewPrioritizedBackend(cfg.PER(), rand.New(rand.NewSource(seed)))
	if err != nil {
		return fmt.Errorf("create backend: %w", err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Error().Err(err).Msg("Error closing backend")
		}
	}()

	publisher, closePublisher, err := newPublisher(logger)
	if err != nil {
		return err
	}
	defer closePublisher()

	replayService := service.NewReplayService(backend, collector)

	grpcServer := grpc.NewServer(
		grpc.ForceServerCodec(replayv1.Codec{}),
		grpc.UnaryInterceptor(loggingInterceptor(logger)),
	)
	replayv1.RegisterReplayServer(grpcServer, replayService)

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	h := httpServer.NewServer(replayService, collector, logger, httpServer.Options{
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	reporter := events.NewReporter(backend, publisher, collector, cfg.StatsInterval, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	logger.Info().
		Int("capacity", cfg.Capacity).
		Float64("alpha", cfg.Alpha).
		Float64("beta", cfg.Beta).
		Int64("seed", seed).
		Msg("Starting replay service")

	g.Go(func() error {
		logger.Info().Str("addr", lis.Addr().String()).Msg("Replay gRPC server listening")
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("Replay HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return reporter.Start(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("Shutting down gracefully...")
		shutdown(logger, grpcServer, srv, cfg.ShutdownTimeout)
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info().Msg("Replay service stopped")
	return nil
}

func newPublisher(logger zerolog.Logger) (events.Publisher, func(), error) {
	if cfg.NATSURL == "" {
		return events.NoopPublisher{}, func() {}, nil
	}
	publisher, err := events.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubject, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return publisher, publisher.Close, nil
}

func shutdown(logger zerolog.Logger, grpcServer *grpc.Server, srv *http.Server, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("HTTP graceful shutdown failed")
	}

	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-ctx.Done():
		logger.Warn().Msg("Shutdown timeout exceeded, forcing stop")
		grpcServer.Stop()
	case <-stopped:
		logger.Info().Msg("gRPC server stopped gracefully")
	}
}

// loggingInterceptor logs gRPC requests
func loggingInterceptor(logger zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()

		resp, err := handler(ctx, req)

		event := logger.Debug()
		if err != nil {
			event = logger.Warn().Err(err)
		}
		event.
			Str("method", info.FullMethod).
			Dur("duration", time.Since(start)).
			Msg("gRPC request")

		return resp, err
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
