package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"sail-quiz-service/internal/config"
	"sail-quiz-service/internal/domain"
	"sail-quiz-service/internal/importer"
	"sail-quiz-service/internal/infra/file"
	pgstore "sail-quiz-service/internal/infra/postgres"
	redisstore "sail-quiz-service/internal/infra/redis"
)

type importOptions struct {
	id           string
	title        string
	timeLimit    int
	passingScore int
	store        bool
}

// NewImportCmd converts a plain-text question sheet into a bank document.
func NewImportCmd(configPath *string) *cobra.Command {
	opts := importOptions{}
	cmd := &cobra.Command{
		Use:   "import <questions.txt> [output.json]",
		Short: "Convert a text question sheet into a question bank",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			output := ""
			if len(args) == 2 {
				output = args[1]
			}
			if output == "" && !opts.store {
				return fmt.Errorf("nothing to do: give an output path or --store")
			}
			if opts.id == "" {
				opts.id = cfg.Bank.DefaultID
			}
			bank, err := importBank(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			if output != "" {
				if err := file.WriteBank(output, bank); err != nil {
					return err
				}
				config.WithContext(cmd.Context()).WithField("path", output).Info("question bank written")
			}
			if opts.store {
				return storeBank(cmd.Context(), cfg, bank)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.id, "id", "", "bank id (defaults to bank.default_id)")
	cmd.Flags().StringVar(&opts.title, "title", importer.DefaultTitle, "quiz title")
	cmd.Flags().IntVar(&opts.timeLimit, "time-limit", importer.DefaultTimeLimitSeconds, "time limit in seconds")
	cmd.Flags().IntVar(&opts.passingScore, "passing-score", importer.DefaultPassingScore, "correct answers needed to pass")
	cmd.Flags().BoolVar(&opts.store, "store", false, "upsert the bank into Postgres (postgres.url)")
	return cmd
}

func importBank(ctx context.Context, path string, opts importOptions) (domain.QuestionBank, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.QuestionBank{}, fmt.Errorf("open questions: %w", err)
	}
	defer f.Close()

	questions, warnings, err := importer.Parse(f)
	if err != nil {
		return domain.QuestionBank{}, err
	}
	log := config.WithContext(ctx)
	for _, w := range warnings {
		log.Warn(w.String())
	}
	if len(questions) == 0 {
		return domain.QuestionBank{}, fmt.Errorf("%w: no questions parsed from %s", domain.ErrConfiguration, path)
	}

	bank := importer.BuildBank(questions, importer.Options{
		ID:               opts.id,
		Title:            opts.title,
		TimeLimitSeconds: opts.timeLimit,
		PassingScore:     opts.passingScore,
	})
	log.WithField("questions", bank.TotalQuestions).
		WithField("time_limit_seconds", bank.TimeLimitSeconds).
		WithField("passing_score", bank.PassingScore).
		Info("questions parsed")
	return bank, nil
}

func storeBank(ctx context.Context, cfg config.Config, bank domain.QuestionBank) error {
	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}
	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := pgstore.NewBankStore(pool).SaveBank(ctx, bank); err != nil {
		return err
	}
	config.WithContext(ctx).WithField("bank_id", bank.ID).Info("question bank stored")
	return invalidateCachedBank(ctx, cfg, bank.ID)
}

// invalidateCachedBank drops a running server's Redis copy of bankID so the
// next session reads the stored version. Without redis.addr it does nothing.
func invalidateCachedBank(ctx context.Context, cfg config.Config, bankID string) error {
	if cfg.Redis.Addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer client.Close()
	if err := redisstore.NewBankRepository(client, nil, 0).Invalidate(ctx, bankID); err != nil {
		return fmt.Errorf("invalidate cached bank %s: %w", bankID, err)
	}
	config.WithContext(ctx).WithField("bank_id", bankID).Info("cached question bank invalidated")
	return nil
}
