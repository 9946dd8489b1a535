package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	appcfg "github.com/park285/void-chess/internal/config"
	"github.com/park285/void-chess/internal/chessbuilder"
	"github.com/park285/void-chess/internal/obslog"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer obslog.Sync()

	deps, err := chessbuilder.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("chess init error", zap.Error(err))
	}

	errCh := make(chan error, 1)
	go func() { errCh <- deps.Server.Listen(cfg.HTTPAddr) }()

	logger.Info("voidchess_started",
		zap.String("addr", cfg.HTTPAddr),
		zap.Bool("redis", deps.Cache != nil),
		zap.Bool("postgres", deps.DB != nil),
		zap.String("difficulty", string(cfg.ChessDefaultDifficulty)),
		zap.String("castling", cfg.ChessCastlingMode.String()),
	)

	// Wait for termination signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("shutdown requested", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			logger.Error("http server stopped", zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := deps.Shutdown(ctx); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
}
