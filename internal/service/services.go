// Package service содержит бизнес-логику приложения.
package service

import (
	"pulsedj/internal/config"
	"pulsedj/internal/external/analysis"
	"pulsedj/internal/external/spotify"
	"pulsedj/internal/storage"

	"go.uber.org/zap"
)

// Services содержит все сервисы приложения
type Services struct {
	Zone         *ZoneService
	Genre        *GenreService
	Dedup        *DedupService
	Familiarity  *FamiliarityService
	Search       *SearchService
	Fallback     *FallbackService
	Events       *EventLog
	Orchestrator *Orchestrator
}

// NewServices создает все сервисы
func NewServices(db *storage.Postgres, cfg *config.Config, catalog spotify.Interface, proxy analysis.Interface, logger *zap.Logger) *Services {
	zoneService := NewZoneService()
	genreService := NewGenreService(logger)
	dedupService := NewDedupService(catalog, logger)
	familiarityService := NewFamiliarityService(catalog, logger)

	searchService := NewSearchService(
		catalog,
		dedupService,
		familiarityService,
		cfg.Pipeline.PlaylistMinTracks,
		logger,
	)

	fallbackService := NewFallbackService(
		proxy,
		catalog,
		dedupService,
		cfg.Fallback.PollInterval,
		cfg.Fallback.MaxPollAttempts,
		logger,
	)

	eventLog := NewEventLog(cfg.Pipeline.EventLogSize)

	orchestrator := NewOrchestrator(
		catalog,
		searchService,
		fallbackService,
		dedupService,
		familiarityService,
		zoneService,
		genreService,
		db.GetSettingsRepository(),
		eventLog,
		cfg.Pipeline.Cooldown,
		cfg.Pipeline.MaxSeedRetries,
		logger,
	)

	return &Services{
		Zone:         zoneService,
		Genre:        genreService,
		Dedup:        dedupService,
		Familiarity:  familiarityService,
		Search:       searchService,
		Fallback:     fallbackService,
		Events:       eventLog,
		Orchestrator: orchestrator,
	}
}
