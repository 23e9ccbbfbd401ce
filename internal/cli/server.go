package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/auth"
	"live-quiz-service/internal/config"
	"live-quiz-service/internal/infra/memory"
	"live-quiz-service/internal/infra/postgres"
	infraredis "live-quiz-service/internal/infra/redis"
	"live-quiz-service/internal/infra/trivia"
	transport "live-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), opts)
		},
	}
}

func runServer(ctx context.Context, opts *options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	configureLogging(opts.level(cfg.Log.Level), cfg.Log.Pretty)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, false); err != nil {
			return err
		}
	}

	port := opts.port
	if port == "" {
		port = cfg.Server.Port
	}
	if port == "" {
		port = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	var questions app.QuestionRepository = memory.NewQuestionStore()
	var recorder app.ResultRecorder
	var history transport.GameHistory
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		questions = postgres.NewQuestionStore(pool)

		db := postgres.Open(cfg.Postgres.URL)
		defer db.Close()
		results := postgres.NewResultStore(db)
		recorder, history = results, results
	} else {
		log.Warn().Msg("postgres not configured, questions and results are kept in memory")
		results := memory.NewResultRecorder()
		recorder, history = results, results
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var store app.RoomStore
	if redisClient != nil {
		questions = infraredis.NewQuestionCache(redisClient, questions, quizTTL)
		store = infraredis.NewRoomStore(redisClient, config.TTLDuration(cfg.Redis.TTL, 2*time.Hour))
	} else {
		questions = memory.NewQuestionCache(questions, quizTTL)
		store = memory.NewRoomStore()
	}

	authn := auth.NewAuthenticator(cfg.Auth.JWTSecret)
	if !authn.Enabled() {
		log.Warn().Msg("auth.jwt_secret not set, trusting X-Host-ID headers")
	}
	provider := trivia.NewClient(cfg.Trivia.BaseURL, config.TTLDuration(cfg.Trivia.Timeout, 10*time.Second))

	registry := app.NewRegistry(store, app.RegistryOptions{
		StaleAfter:    config.TTLDuration(cfg.Room.StaleAfter, 30*time.Second),
		SweepInterval: config.TTLDuration(cfg.Room.SweepInterval, 5*time.Second),
		IdleTTL:       config.TTLDuration(cfg.Room.IdleTTL, 2*time.Hour),
		Room: app.RoomOptions{
			PrepareDelay: config.TTLDuration(cfg.Room.PrepareDelay, 2*time.Second),
			Recorder:     recorder,
		},
	})
	service := app.NewQuizService(registry, questions, provider)

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           transport.NewRouter(service, authn, history),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Msg("starting quiz service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return registry.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		registry.Close(shutdownCtx)
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
