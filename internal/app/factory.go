// Package app содержит фабрику компонентов приложения.
package app

import (
	"fmt"

	"pulsedj/internal/config"
	"pulsedj/internal/external/analysis"
	"pulsedj/internal/external/spotify"
	"pulsedj/internal/health"
	"pulsedj/internal/heartrate"
	"pulsedj/internal/service"
	"pulsedj/internal/storage"

	"go.uber.org/zap"
)

// ComponentFactory создает компоненты приложения
type ComponentFactory struct {
	config *config.Config
	logger *zap.Logger
}

// NewComponentFactory создает новую фабрику компонентов
func NewComponentFactory(config *config.Config, logger *zap.Logger) *ComponentFactory {
	if config == nil {
		logger.Fatal("Config cannot be nil")
	}

	return &ComponentFactory{
		config: config,
		logger: logger,
	}
}

// CreateApp создает приложение со всеми зависимостями
func (f *ComponentFactory) CreateApp() (*App, error) {
	if err := f.config.ValidateSpotify(); err != nil {
		return nil, fmt.Errorf("spotify config invalid: %w", err)
	}

	db, err := storage.NewPostgres(f.config.DatabaseURL, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	tokenProvider := spotify.NewRefreshTokenProvider(f.config.Spotify)

	catalog, err := spotify.NewClient(f.config.Spotify, tokenProvider, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create spotify client: %w", err)
	}

	proxyClient := analysis.NewClient(f.config.Fallback, f.logger)

	services := service.NewServices(db, f.config, catalog, proxyClient, f.logger)

	receiver := heartrate.NewReceiver(f.config.HeartRate, f.logger)

	var healthServer *health.Server
	if f.config.HealthCheckEnabled {
		healthServer = health.NewServer(f.config.HealthPort, f.logger, db, services.Events)
	}

	return &App{
		config:   f.config,
		logger:   f.logger,
		db:       db,
		catalog:  catalog,
		services: services,
		receiver: receiver,
		samples:  receiver,
		health:   healthServer,
	}, nil
}

// NewAppWithFactory создает приложение через фабрику
func NewAppWithFactory(config *config.Config, logger *zap.Logger) (*App, error) {
	factory := NewComponentFactory(config, logger)
	return factory.CreateApp()
}
