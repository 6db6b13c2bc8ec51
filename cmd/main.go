package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"vitiligo-tracker/config"
	"vitiligo-tracker/internal/api/rest"
	"vitiligo-tracker/internal/api/telegram"
	"vitiligo-tracker/internal/container"
	"vitiligo-tracker/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Собираем сервисы приложения
	appContainer, err := container.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to build container", zap.Error(err))
	}
	defer appContainer.Close()

	g, ctx := errgroup.WithContext(ctx)

	if cfg.TelegramToken != "" {
		bot, err := telegram.NewBot(cfg.TelegramToken, appContainer.UserService, appContainer.SessionService, logger)
		if err != nil {
			logger.Fatal("failed to create bot", zap.Error(err))
		}
		g.Go(func() error {
			logger.Info("bot is running")
			return bot.Run(ctx)
		})
	} else {
		logger.Warn("TELEGRAM_TOKEN is empty, bot disabled")
	}

	gin.SetMode(gin.ReleaseMode)
	handler := rest.NewHandler(appContainer.TrackingService, appContainer.HistoryService, logger)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           rest.NewRouter(handler, cfg.JWTSecret),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		logger.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("service stopped with error", zap.Error(err))
	}

	for stage, s := range appContainer.Stats.Snapshot() {
		logger.Info("stage stats",
			zap.String("stage", string(stage)),
			zap.Int64("completed", s.Completed),
			zap.Int64("failed", s.Failed),
			zap.Duration("avg", s.AverageDuration()),
		)
	}
}
