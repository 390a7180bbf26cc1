package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/stemsi/quizdesk-backend/internal/config"
	"github.com/stemsi/quizdesk-backend/internal/database"
	"github.com/stemsi/quizdesk-backend/internal/logger"
	"github.com/stemsi/quizdesk-backend/internal/model"
	"github.com/stemsi/quizdesk-backend/internal/repository"
	"github.com/stemsi/quizdesk-backend/internal/service"
	"github.com/stemsi/quizdesk-backend/internal/validator"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		file   string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "seed-questions",
		Short: "Load questions into the question bank",
		Long: "Loads questions from a YAML or JSON file into the question bank. " +
			"Without --file a small sample bank is used.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			bank := sampleBank
			if file != "" {
				raw, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				if bank, err = parseBank(raw); err != nil {
					return fmt.Errorf("%s: %w", file, err)
				}
			}
			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "%d question(s) are valid\n", len(bank))
				return nil
			}
			return seed(cmd.Context(), bank)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML or JSON file with a list of questions")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate the file without writing")
	return cmd
}

func seed(parent context.Context, bank []model.QuestionRequest) error {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(parent, 5*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("connect to PostgreSQL: %w", err)
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("connect to Redis: %w", err)
	}
	defer rdb.Close()

	questionRepo := repository.NewQuestionRepository(pool)
	cache := repository.NewQuestionCache(rdb, questionRepo, cfg.QuestionCacheTTL, log)
	settingService := service.NewSettingService(repository.NewSettingRepository(pool), log)
	questionService := service.NewQuestionService(questionRepo, cache, settingService, log)

	fmt.Printf("=== Seeding %d Questions ===\n", len(bank))

	created := 0
	for i := range bank {
		q, err := questionService.Create(ctx, &bank[i])
		if err != nil {
			var ruleErr *service.RuleError
			if errors.As(err, &ruleErr) {
				fmt.Printf("Skipped #%d (%s): %v\n", i+1, bank[i].Category, ruleErr.Fields())
				continue
			}
			return fmt.Errorf("create question #%d: %w", i+1, err)
		}
		created++
		log.Debug().Str("id", q.ID.String()).Str("category", q.Category).Msg("Question created")
	}

	fmt.Printf("\nSeed completed! Successfully added %d/%d questions.\n", created, len(bank))
	return nil
}

func init() {
	validator.Setup()
}
