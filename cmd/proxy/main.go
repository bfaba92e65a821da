// Package main запускает сервер analysis proxy.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"pulsedj/internal/config"
	"pulsedj/internal/proxy"
	"pulsedj/internal/storage"
	"pulsedj/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	// Инициализация логгера
	log := logger.New()

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	if err := cfg.ValidateProxy(); err != nil {
		log.Fatal("Proxy configuration invalid", zap.Error(err))
	}

	// Подключение к базе данных
	db, err := storage.NewPostgres(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn("Failed to close database", zap.Error(err))
		}
	}()

	// Создание сервера
	upstream := proxy.NewUpstreamClient(cfg.Proxy, log)
	server := proxy.NewServer(cfg.Proxy, db.GetAnalysisRepository(), upstream, log)

	// Обработка сигналов
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("Shutdown signal received")
		cancel()
	}()

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Proxy server stopped with error", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()

	if err := server.Stop(); err != nil {
		log.Error("Failed to stop proxy server", zap.Error(err))
		os.Exit(1)
	}

	log.Info("Proxy server stopped successfully")
}
