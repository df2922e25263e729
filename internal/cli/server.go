package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/config"
	infraamqp "live-quiz-service/internal/infra/amqp"
	"live-quiz-service/internal/infra/memory"
	"live-quiz-service/internal/infra/postgres"
	redisstore "live-quiz-service/internal/infra/redis"
	"live-quiz-service/internal/logging"
	"live-quiz-service/internal/metrics"
	transport "live-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the live session API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// backend groups the repositories chosen from configuration.
type backend struct {
	sessions  app.SessionRepository
	responses app.ResponseRepository
	loader    app.QuestionLoader
	questions app.QuestionRepository
	name      string
	closers   []func()
}

func (b *backend) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Auth.Secret == "" {
		return fmt.Errorf("auth secret not configured")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.close()

	m := metrics.New()
	opts := []app.Option{
		app.WithLogger(logger),
		app.WithMetrics(m),
		app.WithGenerator(memory.NewStaticGenerator(memory.SampleQuestionBank())),
		app.WithRoster(memory.NewStaticRoster(cfg.Roster)),
	}
	if cfg.AMQP.URL != "" {
		queue := cfg.AMQP.Queue
		if queue == "" {
			queue = "live_session_ended"
		}
		publisher, err := infraamqp.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, queue)
		if err != nil {
			return err
		}
		defer publisher.Close()
		opts = append(opts, app.WithEventPublisher(publisher))
	}
	ctrl := app.NewController(b.sessions, b.responses, b.questions, opts...)

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	gin.SetMode(gin.ReleaseMode)
	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(ctrl, cfg.Auth.Secret, logger, m),
		ReadTimeout:  config.TTLDuration(cfg.Server.ReadTimeout, 15*time.Second),
		WriteTimeout: config.TTLDuration(cfg.Server.WriteTimeout, 15*time.Second),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting live session service", zap.String("addr", server.Addr), zap.String("backend", b.name))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openBackend picks Postgres, then Redis, then memory. Redis also fronts question lookups when configured.
func openBackend(ctx context.Context, cfg config.Config, logger *zap.Logger) (*backend, error) {
	b := &backend{}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			redisClient.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		b.closers = append(b.closers, func() { _ = redisClient.Close() })
	}

	switch {
	case cfg.Postgres.URL != "":
		if err := runMigrations(ctx, cfg.Postgres.URL, logger); err != nil {
			b.close()
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.closers = append(b.closers, pool.Close)
		store := postgres.NewSessionStore(pool)
		b.sessions, b.loader, b.name = store, store, "postgres"
		b.responses = postgres.NewResponseStore(pool)
	case redisClient != nil:
		store := redisstore.NewSessionStore(redisClient)
		b.sessions, b.loader, b.name = store, store, "redis"
		b.responses = redisstore.NewResponseStore(redisClient)
	default:
		store := memory.NewSessionStore()
		b.sessions, b.loader, b.name = store, store, "memory"
		b.responses = memory.NewResponseStore()
	}

	ttl := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)
	if redisClient != nil && b.name != "redis" {
		b.questions = redisstore.NewQuestionCache(redisClient, b.loader, config.TTLDuration(cfg.Redis.TTL, ttl))
	} else {
		b.questions = memory.NewQuestionCache(b.loader, ttl)
	}
	return b, nil
}
