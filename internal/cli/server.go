package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"sail-quiz-service/internal/app"
	"sail-quiz-service/internal/config"
	"sail-quiz-service/internal/domain"
	"sail-quiz-service/internal/infra/file"
	"sail-quiz-service/internal/infra/memory"
	pgstore "sail-quiz-service/internal/infra/postgres"
	redisstore "sail-quiz-service/internal/infra/redis"
	transport "sail-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	log := config.WithContext(ctx)

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
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
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	loader := bankLoader(cfg, pool)

	bankTTL := config.TTLDuration(cfg.Bank.TTL, 10*time.Minute)
	var banks app.BankRepository
	if redisClient != nil {
		banks = redisstore.NewBankRepository(redisClient, loader, bankTTL)
	} else {
		banks = memory.NewBankRepository(loader, bankTTL)
	}

	var store app.SessionRepository
	if redisClient != nil {
		store = redisstore.NewSessionStore(redisClient, redisTTL)
	} else {
		store = memory.NewSessionStore()
	}
	service := app.NewQuizService(store, banks, app.Options{
		QuestionCount:  cfg.Quiz.QuestionCount,
		WarningSeconds: cfg.Quiz.WarningSeconds,
		TickInterval:   config.TTLDuration(cfg.Quiz.TickInterval, time.Second),
	})
	wsHandler := transport.NewWSHandler(service, cfg.Bank.DefaultID)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", transport.Health)
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.WithField("port", finalPort).Info("starting quiz service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server...")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// bankLoader prefers Postgres, then the configured bank file, then the built-in sample.
func bankLoader(cfg config.Config, pool *pgxpool.Pool) memory.BankLoader {
	if pool != nil {
		return pgstore.NewBankStore(pool)
	}
	if cfg.Bank.File != "" {
		return file.NewBankLoader(map[string]string{cfg.Bank.DefaultID: cfg.Bank.File})
	}
	return memory.NewStaticBankLoader(map[string]domain.QuestionBank{cfg.Bank.DefaultID: sampleBank()})
}

// sampleBank provides a minimal bank so the server runs without any storage configured.
func sampleBank() domain.QuestionBank {
	return domain.QuestionBank{
		Title:            "Sailing basics",
		TotalQuestions:   3,
		PassingScore:     2,
		TimeLimitSeconds: 600,
		Questions: []domain.Question{
			{Prompt: "Which side of a vessel is port?", Options: []string{"Left, facing forward", "Right, facing forward", "The stern", "The bow"}, CorrectIndex: 0},
			{Prompt: "What is the stern?", Options: []string{"The front", "The rear", "The mast", "The keel"}, CorrectIndex: 1},
			{Prompt: "A sheet is used to…", Options: []string{"Control a sail", "Anchor the boat", "Cover the deck", "Steer"}, CorrectIndex: 0},
			{Prompt: "Which light shows on the starboard side at night?", Options: []string{"Green", "Red", "White", "Yellow"}, CorrectIndex: 0},
		},
	}
}
