package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/playpoints/xo-backend/internal/bot"
	"github.com/playpoints/xo-backend/internal/config"
	"github.com/playpoints/xo-backend/internal/ledger"
	"github.com/playpoints/xo-backend/internal/registry"
	"github.com/playpoints/xo-backend/internal/repository"
	"github.com/playpoints/xo-backend/internal/repository/storage"
	"github.com/playpoints/xo-backend/internal/usecase"
	"github.com/playpoints/xo-backend/transport/rest"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.NewRedis(ctx, redisAddrString)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	sqliteStorage, err := storage.NewSQLite(conf.SQLiteStoragePath)
	if err != nil {
		return fmt.Errorf("could not open sqlite storage: %w", err)
	}

	defer func() {
		if err = sqliteStorage.Close(); err != nil {
			log.Error("could not close sqlite storage", "error", err)
		}
	}()

	journalRepo := repository.NewJournalRepository(sqliteStorage)
	if err = journalRepo.Init(ctx); err != nil {
		return fmt.Errorf("could not init transaction journal: %w", err)
	}

	balanceRepo := repository.NewBalanceRepository(redisStorage)
	matchRepo := repository.NewMatchRepository(redisStorage)

	pointsLedger := ledger.New(logger, conf.Engine.StartingBalance, journalRepo, balanceRepo)

	balances, err := balanceRepo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("could not restore balances: %w", err)
	}

	pointsLedger.Restore(balances)
	log.Info("restored account balances", "accounts", len(balances))

	matchRegistry := registry.New()
	agent := bot.New(rand.New(rand.NewSource(time.Now().UnixNano()))) //nolint:gosec // game moves, not secrets

	matchUseCase := usecase.NewMatchUseCase(logger, usecase.Config{
		MinWager:         conf.Engine.MinWager,
		MaxWager:         conf.Engine.MaxWager,
		AllowAgentWagers: conf.Engine.AllowAgentWagers,
		ChallengeTTL:     conf.Engine.ChallengeTTL(),
		MoveTimeout:      conf.Engine.MoveTimeout(),
		FinishedGrace:    conf.Engine.FinishedGrace(),
		SweepInterval:    conf.Engine.SweepInterval(),
	}, pointsLedger, matchRegistry, agent, matchRepo)

	go matchUseCase.Run(ctx)

	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		server := rest.New(logger, matchUseCase)
		if httpErr := server.Start(ctx, conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
