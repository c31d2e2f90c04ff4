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

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/vasapolrittideah/task-wand-api/services/todo-service/internal/config"
	"github.com/vasapolrittideah/task-wand-api/services/todo-service/internal/handler"
	"github.com/vasapolrittideah/task-wand-api/services/todo-service/internal/middleware"
	"github.com/vasapolrittideah/task-wand-api/services/todo-service/internal/repository"
	"github.com/vasapolrittideah/task-wand-api/services/todo-service/internal/repository/inmemory"
	"github.com/vasapolrittideah/task-wand-api/services/todo-service/internal/usecase"
	"github.com/vasapolrittideah/task-wand-api/services/todo-service/internal/validation"
	"github.com/vasapolrittideah/task-wand-api/shared/auth"
	"github.com/vasapolrittideah/task-wand-api/shared/discovery"
	"github.com/vasapolrittideah/task-wand-api/shared/logger"
	"github.com/vasapolrittideah/task-wand-api/shared/mailer"
	"github.com/vasapolrittideah/task-wand-api/shared/utilities"
)

const rateLimitJanitorInterval = time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", false).Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}

	v, err := validation.New()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create validator")
	}

	tokens := auth.NewJWTAuthenticator(cfg.Token.Secret, cfg.Token.Issuer)

	var welcomeMailer usecase.WelcomeMailer
	if cfg.SMTP.Enabled() {
		m, err := mailer.NewMailer(cfg.SMTP)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create mailer")
		}
		welcomeMailer = m
	}

	authUsecase, err := usecase.NewAuthUsecase(store.users, tokens, v, welcomeMailer, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create auth usecase")
	}
	todoUsecase := usecase.NewTodoUsecase(store.todos, v)

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	limiter.StartJanitor(ctx, rateLimitJanitorInterval)

	h := handler.NewHandler(authUsecase, todoUsecase, log)
	httpServer := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: h.NewRouter(handler.RouterConfig{
			Verifier:     tokens,
			LoginLimiter: limiter,
			HealthCheck:  store.ping,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	healthServer := utilities.NewHealthServer(cfg.Consul.ServiceName)
	healthListener, err := net.Listen("tcp", cfg.GRPCHealthAddr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.GRPCHealthAddr).Msg("failed to listen for gRPC health checks")
	}

	go func() {
		log.Info().Str("addr", cfg.GRPCHealthAddr).Msg("gRPC health server started")
		if err := healthServer.Serve(healthListener); err != nil {
			log.Error().Err(err).Msg("gRPC health server stopped")
		}
	}()

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP server started")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server stopped")
			stop()
		}
	}()

	deregister := registerService(cfg, log)

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	deregister()
	healthServer.SetServing(false)

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to shut down HTTP server")
	}
	healthServer.Stop()

	if err := store.close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to close store")
	}

	log.Info().Msg("server stopped")
}

type store struct {
	users repository.UserRepository
	todos repository.TodoRepository
	ping  handler.HealthCheck
	close func(ctx context.Context) error
}

func openStore(ctx context.Context, cfg *config.TodoServiceConfig, log *zerolog.Logger) (*store, error) {
	if cfg.StorageDriver == config.StorageMemory {
		log.Warn().Msg("using in-memory storage, data will not survive a restart")
		return &store{
			users: inmemory.NewUserRepository(),
			todos: inmemory.NewTodoRepository(),
			ping:  func(context.Context) error { return nil },
			close: func(context.Context) error { return nil },
		}, nil
	}

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		return nil, err
	}
	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to MongoDB")

	db := client.Database(cfg.Mongo.Database)

	return &store{
		users: repository.NewUserMongoRepository(ctx, log, db),
		todos: repository.NewTodoMongoRepository(ctx, log, db),
		ping: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
		close: client.Disconnect,
	}, nil
}

// registerService announces the instance to Consul when configured and returns the
// matching cleanup.
func registerService(cfg *config.TodoServiceConfig, log *zerolog.Logger) func() {
	noop := func() {}
	if cfg.Consul.Addr == "" {
		return noop
	}

	httpPort, err := discovery.PortFromAddr(cfg.HTTPAddr)
	if err != nil {
		log.Error().Err(err).Msg("failed to parse HTTP port, skipping consul registration")
		return noop
	}
	grpcPort, err := discovery.PortFromAddr(cfg.GRPCHealthAddr)
	if err != nil {
		log.Error().Err(err).Msg("failed to parse gRPC health port, skipping consul registration")
		return noop
	}

	registry, err := discovery.NewConsulRegistry(cfg.Consul.Addr)
	if err != nil {
		log.Error().Err(err).Msg("failed to create consul registry")
		return noop
	}

	id, err := registry.Register(discovery.Registration{
		Name:     cfg.Consul.ServiceName,
		Host:     cfg.Consul.ServiceHost,
		HTTPPort: httpPort,
		GRPCPort: grpcPort,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to register with consul")
		return noop
	}
	log.Info().Str("service_id", id).Msg("registered with consul")

	return func() {
		if err := registry.Deregister(id); err != nil {
			log.Error().Err(err).Msg("failed to deregister from consul")
		}
	}
}
