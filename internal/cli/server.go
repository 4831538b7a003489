package cli

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"elearn-platform/internal/app"
	"elearn-platform/internal/checkpoint"
	"elearn-platform/internal/config"
	"elearn-platform/internal/engine"
	"elearn-platform/internal/forum"
	"elearn-platform/internal/infra/memory"
	pgstore "elearn-platform/internal/infra/postgres"
	redisinfra "elearn-platform/internal/infra/redis"
	transport "elearn-platform/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the e-learning server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func newLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	log := newLogger()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 30*24*time.Hour)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.SetLoader = memory.NewStaticSetLoader(sampleCheckpoints())
	if pool != nil {
		loader = pgstore.NewCheckpointStore(pool)
	}

	checkpointTTL := config.TTLDuration(cfg.Checkpoints.TTL, 10*time.Minute)
	var checkpoints app.CheckpointRepository
	if redisClient != nil {
		checkpoints = redisinfra.NewCheckpointRepository(redisClient, loader, checkpointTTL)
	} else {
		checkpoints = memory.NewCheckpointRepository(loader, checkpointTTL)
	}

	var answers app.AnswerStores
	var positions app.PositionCache
	if redisClient != nil {
		answers = redisinfra.NewAnswerStoreFactory(redisClient, redisTTL)
		positions = redisinfra.NewPositionCache(redisClient, redisTTL)
	} else {
		answers = memory.NewAnswerStoreFactory()
		positions = memory.NewPositionCache()
	}

	engineCfg := engine.Config{
		ProximityThreshold: cfg.Player.ProximityThreshold,
		TriggerCooldown:    config.TTLDuration(cfg.Player.TriggerCooldown, 2*time.Second),
	}
	tickInterval := config.TTLDuration(cfg.Player.TickInterval, 200*time.Millisecond)

	service := app.NewPlayerService(checkpoints, answers, positions, engineCfg, log)
	wsHandler := transport.NewWSHandler(service, tickInterval, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	var bundb *bun.DB
	if cfg.Postgres.URL != "" {
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
		bundb = bun.NewDB(sqldb, pgdialect.New())
		defer bundb.Close()
		transport.NewForumHandler(forum.NewRepository(bundb), log).Register(mux)
	}

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("port", finalPort).Msg("starting e-learning server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info().Msg("shutting down server...")
	case <-ctx.Done():
		log.Info().Msg("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleCheckpoints provides a demo checkpoint set; configure Postgres and
// run `import` to serve authored question tables instead.
func sampleCheckpoints() map[string][]checkpoint.RawEntry {
	return map[string][]checkpoint.RawEntry{
		"demo": {
			{ID: "q1", At: "0:10", Prompt: "What topic is being discussed?", Choices: []string{"A. AI Applications", "B. Cloud Computing Trends", "C. Cybersecurity Basics"}, Answer: "A. AI Applications"},
			{ID: "q2", At: "0:25", Prompt: "What is the keyword?", Choices: []string{"Alpha", "Beta", "Gamma"}, Answer: "Beta"},
			{ID: "q3", At: "0:45", Prompt: "Which statement is correct?", Choices: []string{"Yes", "No"}, Answer: "Yes"},
			{ID: "q4", At: "0:55", Prompt: "Is this feature useful?", Choices: []string{"Very Useful", "Slightly Useful", "Not Useful"}, Answer: "Very Useful"},
		},
	}
}
