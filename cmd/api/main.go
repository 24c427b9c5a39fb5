package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reservas/internal/api"
	"reservas/internal/config"
	"reservas/internal/domain"
	"reservas/internal/events"
	"reservas/internal/logging"
	"reservas/internal/metrics"
	"reservas/internal/models"
	"reservas/internal/repository"
	"reservas/internal/service"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	seed, err := loadSeed(cfg, &logger)
	if err != nil {
		return err
	}

	repo := repository.NewMemoryReservationRepository(cfg.Reservations.IDStrategy)
	repo.Seed(seed)
	logger.Info().Int("reservations", len(seed)).Str("id_strategy", cfg.Reservations.IDStrategy).Msg("reservations seeded")

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer (func() { _ = repository.Close(redisClient) })()
	}

	eventBus := events.NewEventBus()
	eventBus.SubscribeAll(auditHandler(logging.Component(&logger, "audit")))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := service.NewReservationService(repo, eventBus, logging.Component(&logger, "reservations"))
	limiter := api.NewRateLimiter(cfg.API.RateLimit, initRateLimitRepo(ctx, redisClient, &logger), logging.Component(&logger, "rate-limit"))
	httpServer := api.NewHTTPServer(cfg, svc, limiter, &logger)

	startMetrics(ctx, cfg, &logger)

	return startServer(ctx, httpServer, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

// loadSeed reads the initial reservations. A missing seed file starts the
// service with an empty collection.
func loadSeed(cfg *config.Config, logger *zerolog.Logger) ([]models.Reservation, error) {
	seedPath := os.Getenv("SEED_PATH")
	if seedPath == "" {
		seedPath = cfg.Reservations.SeedPath
	}
	if seedPath == "" {
		return nil, nil
	}

	data, err := os.ReadFile(seedPath)
	if errors.Is(err, os.ErrNotExist) {
		logger.Warn().Str("seed_path", seedPath).Msg("seed file not found, starting empty")
		return nil, nil
	}
	if err != nil {
		logger.Error().Err(err).Str("seed_path", seedPath).Msg("read seed")
		return nil, err
	}

	var seedFile struct {
		Reservas []models.Reservation `yaml:"reservas"`
	}
	if err := yaml.Unmarshal(data, &seedFile); err != nil {
		logger.Error().Err(err).Str("seed_path", seedPath).Msg("parse seed")
		return nil, err
	}

	return seedFile.Reservas, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(context.Background(), client); err != nil {
		// the failover repository keeps retrying, so the client is kept
		logger.Warn().Err(err).Msg("redis connection failed, rate limits use memory until it recovers")
		return client
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return client
}

func initRateLimitRepo(ctx context.Context, client *redis.Client, logger *zerolog.Logger) domain.RateLimitRepository {
	memory := repository.NewMemoryRateLimitRepository()
	go memory.RunPruner(ctx, time.Minute)
	if client == nil {
		return memory
	}
	return repository.NewFailoverRateLimitRepository(
		repository.NewRedisRateLimitRepository(client),
		memory,
		logging.Component(logger, "rate-limit-store"),
	)
}

func auditHandler(logger *zerolog.Logger) events.EventHandler {
	return func(event *events.Event) error {
		var payload events.ReservationEventPayload
		if err := event.Decode(&payload); err != nil {
			return fmt.Errorf("decode %s payload: %w", event.Type, err)
		}
		logger.Info().
			Str("event", event.Type).
			Int64("reservation_id", payload.ReservationID).
			Str("hotel", payload.Hotel).
			Str("estado", payload.Estado).
			Str("request_id", payload.RequestID).
			Time("at", event.CreatedAt).
			Msg("reservation event")
		return nil
	}
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	metrics.Register()
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func startServer(ctx context.Context, httpServer *api.HTTPServer, logger *zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	logger.Info().Str("http_addr", httpServer.Addr()).Msg("API server started")

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("http server stopped")
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
