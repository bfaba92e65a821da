// Package app содержит сборку и главный цикл приложения.
package app

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"pulsedj/internal/config"
	"pulsedj/internal/external/spotify"
	"pulsedj/internal/health"
	"pulsedj/internal/heartrate"
	"pulsedj/internal/model"
	"pulsedj/internal/service"
	"pulsedj/internal/storage"

	"go.uber.org/zap"
)

// App представляет клиентский демон рекомендаций
type App struct {
	config   *config.Config
	logger   *zap.Logger
	db       *storage.Postgres
	catalog  spotify.Interface
	services *service.Services
	receiver *heartrate.Receiver
	samples  heartrate.Source
	health   *health.Server

	// Последний принятый пульс, для форсированных триггеров при смене трека
	lastBPM atomic.Int64
}

// Start запускает приложение и блокируется до отмены контекста
func (a *App) Start(ctx context.Context) error {
	if a.health != nil {
		go func() {
			if err := a.health.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("Health server stopped with error", zap.Error(err))
			}
		}()
	}

	go func() {
		if err := a.receiver.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Heart rate receiver stopped with error", zap.Error(err))
		}
	}()

	go a.watchPlayer(ctx)

	a.logger.Info("pulsedj started")

	a.consumeSamples(ctx)

	return a.shutdown()
}

// consumeSamples обрабатывает сэмплы пульса до отмены контекста.
// Пайплайн выполняется синхронно; сэмплы, скопившиеся за время прогона,
// отбрасываются, а не ставятся в очередь.
func (a *App) consumeSamples(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case sample := <-a.samples.Samples():
			a.lastBPM.Store(int64(sample.BPM))
			a.trigger(ctx, sample.BPM, model.TriggerHeartRate)
			a.drainStaleSamples()
		}
	}
}

// drainStaleSamples отбрасывает сэмплы, накопившиеся в буфере за время
// прогона пайплайна. Последний принятый пульс при этом запоминается,
// чтобы форсированный триггер смены трека видел свежее значение.
func (a *App) drainStaleSamples() {
	for {
		select {
		case sample := <-a.samples.Samples():
			a.lastBPM.Store(int64(sample.BPM))
			a.logger.Debug("Dropping stale heart rate sample",
				zap.Int("bpm", sample.BPM))
		default:
			return
		}
	}
}

// watchPlayer следит за сменой текущего трека и форсирует триггер,
// минуя cooldown
func (a *App) watchPlayer(ctx context.Context) {
	ticker := time.NewTicker(a.config.Pipeline.PlayerPollInterval)
	defer ticker.Stop()

	var lastTrackID string

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			current, err := a.catalog.CurrentlyPlaying(ctx)
			if err != nil {
				a.logger.Debug("Player poll failed", zap.Error(err))
				continue
			}
			if current == nil {
				lastTrackID = ""
				continue
			}

			if lastTrackID != "" && current.ID != lastTrackID {
				a.logger.Info("Track change detected",
					zap.String("track", current.DisplayName()))

				if bpm := int(a.lastBPM.Load()); bpm > 0 {
					a.trigger(ctx, bpm, model.TriggerTrackChange)
				}
			}
			lastTrackID = current.ID
		}
	}
}

// trigger запускает пайплайн и переводит ожидаемые отказы guard'ов в debug логи
func (a *App) trigger(ctx context.Context, bpm int, cause model.TriggerCause) {
	state, err := a.services.Orchestrator.Trigger(ctx, bpm, cause)
	if err == nil {
		a.logger.Info("Pipeline run finished",
			zap.String("state", string(state)),
			zap.Int("bpm", bpm))
		return
	}

	switch {
	case errors.Is(err, service.ErrZoneSuppressed),
		errors.Is(err, service.ErrNoGenres),
		errors.Is(err, service.ErrRequestInFlight),
		errors.Is(err, service.ErrCooldownActive),
		errors.Is(err, service.ErrRecommendationQueued),
		errors.Is(err, service.ErrNothingPlaying):
		a.logger.Debug("Trigger skipped",
			zap.Int("bpm", bpm),
			zap.String("cause", string(cause)),
			zap.Error(err))
	default:
		// Ошибки пайплайна не видны слушателю, только в журнале
		a.logger.Error("Pipeline run failed",
			zap.Int("bpm", bpm),
			zap.String("state", string(state)),
			zap.Error(err))
	}
}

// shutdown останавливает серверы и закрывает соединения
func (a *App) shutdown() error {
	if a.health != nil {
		if err := a.health.Stop(); err != nil {
			a.logger.Warn("Failed to stop health server", zap.Error(err))
		}
	}

	if err := a.receiver.Stop(); err != nil {
		a.logger.Warn("Failed to stop heart rate receiver", zap.Error(err))
	}

	if err := a.db.Close(); err != nil {
		a.logger.Warn("Failed to close database", zap.Error(err))
	}

	a.logger.Info("pulsedj stopped")
	return nil
}
