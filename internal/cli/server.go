package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"livequiz/internal/app"
	"livequiz/internal/config"
	"livequiz/internal/infra/memory"
	pgstore "livequiz/internal/infra/postgres"
	redisinfra "livequiz/internal/infra/redis"
	transport "livequiz/internal/transport/http"
)

// newStartCmd builds the CLI subcommand to start the server.
func newStartCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server and leaderboard push channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), flags.configPath, flags.port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg.Postgres.URL); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = config.DefaultPort
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.Duration(cfg.Redis.TTL, config.DefaultCacheTTL)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.QuizLoader = memory.NewQuizStore(nil)
	if pool != nil {
		loader = pgstore.NewQuizStore(pool)
	}

	quizTTL := config.Duration(cfg.Quiz.TTL, config.DefaultCacheTTL)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = redisinfra.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	var store app.SessionRepository
	var mirror app.LeaderboardMirror
	if redisClient != nil {
		store = redisinfra.NewSessionStore(redisClient, redisTTL)
		mirror = redisinfra.NewLeaderboardMirror(redisClient, redisTTL)
	} else {
		store = memory.NewSessionStore()
	}

	service := app.NewQuizService(store, quizRepo, mirror)
	router := transport.NewRouter(service)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  config.Duration(cfg.Server.ReadTimeout, config.DefaultReadTimeout),
		WriteTimeout: config.Duration(cfg.Server.WriteTimeout, config.DefaultWriteTimeout),
	}

	go func() {
		log.Printf("starting livequiz on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		config.Duration(cfg.Server.ShutdownTimeout, config.DefaultShutdownTimeout))
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
