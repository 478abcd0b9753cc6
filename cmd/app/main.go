package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/serverless-todo/internal/app"
	"github.com/BuzzLyutic/serverless-todo/internal/config"
	"github.com/BuzzLyutic/serverless-todo/internal/handler"
	"github.com/BuzzLyutic/serverless-todo/internal/metrics"
	"github.com/BuzzLyutic/serverless-todo/internal/service"
)

func main() {
	// Загрузка конфигурации
	cfg := config.Load()

	// Подключаем логгер
	logger, err := app.NewLogger(cfg)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	// Подключаем хранилище
	store, closeStore, err := app.OpenStore(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open store", zap.Error(err))
	}
	defer closeStore()

	collector := metrics.NewCollector("todo")
	taskService := service.NewTaskService(collector.InstrumentStore(store), logger)
	taskHandler := handler.NewTaskHandler(taskService, logger)

	owner := handler.APIGatewayOwner
	if cfg.JWTSecret != "" {
		owner = handler.BearerOwner([]byte(cfg.JWTSecret))
	} else {
		logger.Warn("JWT_SECRET is empty; only API Gateway authorizer identities are accepted")
	}

	r := handler.NewRouter(taskHandler, handler.RouterOptions{
		Owner:          owner,
		AllowedOrigins: cfg.AllowedOrigins,
		Metrics:        collector,
		Logger:         logger,
	})
	r.Handle("/metrics", collector.Handler())

	srv := http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server started", zap.String("addr", srv.Addr), zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Shutdown error", zap.Error(err))
	}
	logger.Info("Server stopped successfully")
}
