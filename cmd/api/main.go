package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/health"

	"github.com/nutricoach/nutricoach/internal/cache"
	"github.com/nutricoach/nutricoach/internal/catalog"
	"github.com/nutricoach/nutricoach/internal/chat"
	"github.com/nutricoach/nutricoach/internal/config"
	grpcHealth "github.com/nutricoach/nutricoach/internal/grpc"
	h "github.com/nutricoach/nutricoach/internal/http"
	"github.com/nutricoach/nutricoach/internal/ledger"
	"github.com/nutricoach/nutricoach/internal/logger"
	"github.com/nutricoach/nutricoach/internal/orders"
	"github.com/nutricoach/nutricoach/internal/publisher"
	"github.com/nutricoach/nutricoach/internal/repository"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "nutricoach-api",
		Short:         "Nutrition clinic API server",
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(envFile)
			if err != nil {
				return err
			}
			if err := run(cfg, log); err != nil {
				log.Error().Err(err).Msg("server stopped with error")
				return err
			}
			log.Info().Msg("server exited")
			return nil
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", os.Getenv("ENV_FILE"), "path to a .env file")
	root.AddCommand(newRepriceCmd(&envFile))
	return root
}

func setup(envFile string) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		l := logger.New("info", "json")
		l.Error().Err(err).Msg("failed to load config")
		return nil, zerolog.Nop(), err
	}
	return cfg, logger.New(cfg.LogLevel, cfg.LogFormat), nil
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := repository.NewRepository(cfg.DBPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := repo.RunMigrations(); err != nil {
		return err
	}
	log.Info().Str("db_path", cfg.DBPath).Msg("migrations completed successfully")

	catalogCache := newCatalogCache(ctx, cfg, log)
	assistant := newAssistant(ctx, cfg, log)

	builder := orders.NewBuilder(repo, ledger.New(), log)
	router := h.NewRouter(h.RouterConfig{
		RequestTimeout: cfg.RequestTimeout,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		CORSOrigins:    cfg.Origins(),
	}, h.Handlers{
		Products: h.NewProductHandler(catalog.New(repo, catalogCache, log), cfg.RequestTimeout),
		Orders:   h.NewOrderHandler(builder, repo, cfg.RequestTimeout),
		Patient:  h.NewPatientHandler(repo, cfg.RequestTimeout),
		Chat:     h.NewChatHandler(assistant),
	}, log)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      otelhttp.NewHandler(router, "nutricoach-api"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.ChatTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	hs := health.NewServer()
	grpcServer := grpcHealth.NewServer(hs)
	monitor := grpcHealth.NewHealthMonitor(hs, repo, 5*time.Second, log)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
		if err != nil {
			return err
		}
		log.Info().Str("port", cfg.GRPCPort).Msg("gRPC health server starting")
		return grpcServer.Serve(lis)
	})

	g.Go(func() error {
		return monitor.Run(gctx)
	})

	if brokers := cfg.Brokers(); len(brokers) > 0 {
		poller := publisher.NewOutboxPoller(repo, publisher.NewKafkaWriter(cfg.OrdersTopic, brokers...), cfg.OutboxInterval, log)
		g.Go(func() error {
			return poller.Run(gctx)
		})
		log.Info().Strs("brokers", brokers).Str("topic", cfg.OrdersTopic).Msg("outbox publisher enabled")
	}

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		grpcServer.GracefulStop()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newCatalogCache(ctx context.Context, cfg *config.Config, log zerolog.Logger) cache.CatalogCache {
	if cfg.RedisAddr == "" {
		return cache.Noop{}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, catalog will be read from the store")
	}
	return cache.NewRedisCache(client, cfg.CatalogTTL)
}

func newAssistant(ctx context.Context, cfg *config.Config, log zerolog.Logger) *chat.Assistant {
	if cfg.GeminiAPIKey == "" {
		log.Warn().Msg("GEMINI_API_KEY not set, /chat will answer 500")
		return chat.NewAssistant(nil, cfg.ChatTimeout, log)
	}

	gen, err := chat.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		log.Error().Err(err).Msg("failed to create chat provider")
		return chat.NewAssistant(nil, cfg.ChatTimeout, log)
	}
	return chat.NewAssistant(gen, cfg.ChatTimeout, log)
}
