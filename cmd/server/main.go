// Package main provides the entry point for the namematch API server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm/logger"

	"github.com/noahshaw/namematch/internal/budget"
	"github.com/noahshaw/namematch/internal/chat"
	"github.com/noahshaw/namematch/internal/config"
	gormdb "github.com/noahshaw/namematch/internal/db/gorm"
	"github.com/noahshaw/namematch/internal/profile"
	"github.com/noahshaw/namematch/internal/ranker"
	"github.com/noahshaw/namematch/internal/ratings"
	"github.com/noahshaw/namematch/internal/server"
)

var Version = "dev"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	log.Info().
		Str("version", Version).
		Msg("Starting namematch server")

	store, err := gormdb.NewStore(gormdb.Config{
		DSN:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		LogLevel: logger.Silent,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer store.Close()

	profiles, err := profile.NewStore(cfg.ProfilePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.ProfilePath).Msg("Failed to load profile")
	}
	defer profiles.Close()

	// Redis is optional. Without it the spend ledger lives in memory and
	// conversation logging is off.
	var ledger budget.Ledger
	var convLogger *chat.ConversationLogger
	if cfg.RedisAddr != "" {
		redisLedger, err := budget.NewRedisLedger(cfg.RedisAddr)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		ledger = redisLedger
		convLogger = chat.NewConversationLogger(redisLedger.Pool(), cfg.IPSalt)
	} else {
		log.Warn().Msg("REDIS_ADDR not set; using in-memory spend ledger, conversation logging disabled")
		ledger = budget.NewMemoryLedger()
	}

	// The LLM is optional too; without a key the chat endpoint serves only
	// canned intents.
	var llm chat.LLMClient
	if cfg.GeminiAPIKey != "" {
		gemini, err := chat.NewGeminiClient(context.Background(), cfg.GeminiAPIKey)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Gemini client")
		}
		defer gemini.Close()
		llm = gemini
	} else {
		log.Warn().Msg("GEMINI_API_KEY not set; chat runs in degraded mode")
	}

	users := gormdb.NewUserStore(store)
	couples := gormdb.NewCoupleStore(store)
	names := gormdb.NewNameStore(store)
	ratingStore := gormdb.NewRatingStore(store)
	shortList := gormdb.NewShortListStore(store)

	guard := budget.NewGuard(budget.DefaultConfig(), ledger)

	svc := server.NewService(cfg, server.Deps{
		Store:    store,
		Users:    users,
		Couples:  couples,
		Ratings:  ratings.NewService(ratingStore, couples, names, shortList),
		Selector: ranker.NewSelector(names, ratingStore, couples, nil),
		Chat:     chat.NewService(llm, profiles, guard, budget.NewEstimator(), convLogger),
		Guard:    guard,
		Profiles: profiles,
	}, Version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := svc.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server error")
	}

	log.Info().Msg("Server shutdown complete")
}
