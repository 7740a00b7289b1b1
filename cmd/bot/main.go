// Package main is the entry point for the FinQuest bot.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Foy7er/FinQuest/internal/bot"
	"github.com/Foy7er/FinQuest/internal/config"
	"github.com/Foy7er/FinQuest/internal/market"
	"github.com/Foy7er/FinQuest/internal/pkg/db"
	"github.com/Foy7er/FinQuest/internal/pkg/lock"
	"github.com/Foy7er/FinQuest/internal/quiz"
	"github.com/Foy7er/FinQuest/internal/service"
	"github.com/Foy7er/FinQuest/internal/session"
)

func main() {
	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogger(cfg.Log)
	log.Info().Msg("Configuration loaded successfully")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Open, migrate and seed the ledger
	store, closeStore, err := db.OpenStore(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("Failed to open store")
	}
	defer closeStore()

	sessions, closeSessions, err := openSessions(ctx, cfg.Session)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Session.Backend).Msg("Failed to open session store")
	}
	defer closeSessions()

	catalog := quiz.DefaultCatalog()
	oracle := quiz.NewAdapter(remoteOracle(cfg.Oracle, catalog), nil, cfg.Oracle.Timeout)

	userLock := lock.NewUserLock()
	pricing := market.NewEngine(store, market.Config{
		Fluctuation: cfg.Market.Fluctuation,
		SellRatio:   cfg.Market.SellRatio,
		PriceBand:   cfg.Market.PriceBand,
	}, nil)

	accountService := service.NewAccountService(store, userLock, cfg.Economy.ResetCascadesPurchases)
	economyService := service.NewEconomyService(store, pricing, catalog, userLock)

	engine := session.NewEngine(sessions, accountService, economyService, oracle, cfg.Economy.SavingsRateDisplay)

	telegramBot, err := bot.New(&bot.Dependencies{
		Config:         cfg,
		Engine:         engine,
		AccountService: accountService,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start bot in a goroutine
	go func() {
		log.Info().Msg("Bot is starting...")
		telegramBot.Start()
	}()

	// Wait for shutdown signal
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	telegramBot.Stop()
	log.Info().Msg("Bot stopped gracefully")
}

// setupLogger configures the global zerolog logger.
func setupLogger(cfg config.LogConfig) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		log.Warn().Str("level", cfg.Level).Msg("Unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

// openSessions opens the configured session store.
func openSessions(ctx context.Context, cfg config.SessionConfig) (session.Store, func(), error) {
	if cfg.Backend == config.SessionRedis {
		store, err := session.NewRedisStore(ctx, session.RedisConfig{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
			TTL:       cfg.TTL,
		})
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("Sessions stored in Redis")
		return store, func() { _ = store.Close() }, nil
	}

	store, err := session.NewMemoryStore(cfg.Capacity, cfg.TTL)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Int("capacity", cfg.Capacity).Msg("Sessions stored in memory")
	return store, func() {}, nil
}

// remoteOracle returns the LLM oracle, or nil to play from the local pools.
func remoteOracle(cfg config.OracleConfig, catalog *quiz.Catalog) quiz.Oracle {
	if !cfg.Enabled || cfg.APIKey == "" {
		log.Warn().Msg("Question oracle disabled, using local question pools")
		return nil
	}
	log.Info().Str("model", cfg.Model).Str("base_url", cfg.BaseURL).Msg("Question oracle enabled")
	return quiz.NewLLMOracle(cfg.APIKey, cfg.BaseURL, cfg.Model, catalog)
}
