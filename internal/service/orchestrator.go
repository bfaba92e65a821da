package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"pulsedj/internal/external/spotify"
	"pulsedj/internal/model"

	"go.uber.org/zap"
)

var (
	// ErrRequestInFlight - пайплайн уже выполняется, триггер отброшен
	ErrRequestInFlight = errors.New("recommendation request already in flight")

	// ErrCooldownActive - повторный триггер для того же трека раньше cooldown
	ErrCooldownActive = errors.New("cooldown active for current track")

	// ErrRecommendationQueued - ранее рекомендованный трек еще в очереди
	ErrRecommendationQueued = errors.New("previous recommendation still queued")

	// ErrZoneSuppressed - зоны 0-1 не порождают рекомендаций
	ErrZoneSuppressed = errors.New("zone does not trigger recommendations")

	// ErrNoGenres - после нормализации не осталось жанров
	ErrNoGenres = errors.New("no mapped genres for zone")

	// ErrNothingPlaying - нет текущего трека, не из чего выбрать seed
	ErrNothingPlaying = errors.New("nothing is playing")
)

// Orchestrator управляет жизненным циклом запроса рекомендации:
// стадии, повторы, cooldown и единственность выполнения.
// Все разделяемое мутабельное состояние принадлежит оркестратору.
type Orchestrator struct {
	catalog  spotify.Interface
	search   SearchStageInterface
	fallback FallbackStageInterface
	dedup    DedupInterface
	sampler  SamplerInterface
	zones    *ZoneService
	genres   *GenreService
	settings model.SettingsRepository
	events   *EventLog
	logger   *zap.Logger

	cooldown       time.Duration
	maxSeedRetries int

	// now подменяется в тестах
	now func() time.Time

	inFlight atomic.Bool

	mu            sync.Mutex
	retries       map[string]int
	lastSeedID    string
	lastAttemptAt time.Time
	lastQueuedID  string
}

// NewOrchestrator создает новый оркестратор пайплайна
func NewOrchestrator(
	catalog spotify.Interface,
	search SearchStageInterface,
	fallback FallbackStageInterface,
	dedup DedupInterface,
	sampler SamplerInterface,
	zones *ZoneService,
	genres *GenreService,
	settings model.SettingsRepository,
	events *EventLog,
	cooldown time.Duration,
	maxSeedRetries int,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		catalog:        catalog,
		search:         search,
		fallback:       fallback,
		dedup:          dedup,
		sampler:        sampler,
		zones:          zones,
		genres:         genres,
		settings:       settings,
		events:         events,
		cooldown:       cooldown,
		maxSeedRetries: maxSeedRetries,
		logger:         logger,
		now:            time.Now,
		retries:        make(map[string]int),
	}
}

// Trigger запускает один прогон пайплайна для сэмпла пульса.
// Триггер, пришедший во время выполнения, отбрасывается, не ставится в очередь.
// Возвращает терминальное состояние запроса.
func (o *Orchestrator) Trigger(ctx context.Context, bpm int, cause model.TriggerCause) (model.RequestState, error) {
	settings, err := o.settings.Get()
	if err != nil {
		o.logger.Error("Failed to load user settings", zap.Error(err))
		settings = model.DefaultSettings()
	}

	zone := o.zones.ZoneFor(bpm, settings.MaxHeartRate)

	genres := o.genres.Normalize(o.zones.GenresFor(zone, settings))
	if zone < 2 {
		return model.StateIdle, ErrZoneSuppressed
	}
	if len(genres) == 0 {
		// Нечего искать - пропускаем цикл тихо, без ошибки пользователю
		return model.StateIdle, ErrNoGenres
	}

	// Guard: единственный запрос в полете
	if !o.inFlight.CompareAndSwap(false, true) {
		return model.StateIdle, ErrRequestInFlight
	}
	defer o.inFlight.Store(false)

	current, err := o.catalog.CurrentlyPlaying(ctx)
	if err != nil {
		o.logger.Warn("Failed to get currently playing", zap.Error(err))
		return model.StateError, fmt.Errorf("failed to get currently playing: %w", err)
	}
	if current == nil {
		return model.StateIdle, ErrNothingPlaying
	}

	// Guard: cooldown для того же текущего трека.
	// Смена трека - форсированный триггер, cooldown не применяется.
	if cause != model.TriggerTrackChange {
		o.mu.Lock()
		sameSeed := o.lastSeedID == current.ID
		elapsed := o.now().Sub(o.lastAttemptAt)
		o.mu.Unlock()

		if sameSeed && elapsed < o.cooldown {
			return model.StateIdle, ErrCooldownActive
		}
	}

	queue, err := o.catalog.Queue(ctx)
	if err != nil {
		o.logger.Warn("Failed to get player queue", zap.Error(err))
		queue = nil
	}

	// Guard: предыдущая рекомендация еще не доиграла до очереди
	o.mu.Lock()
	lastQueued := o.lastQueuedID
	o.mu.Unlock()

	if lastQueued != "" {
		for _, queued := range queue {
			if queued.ID == lastQueued {
				return model.StateIdle, ErrRecommendationQueued
			}
		}
	}

	o.mu.Lock()
	o.lastSeedID = current.ID
	o.lastAttemptAt = o.now()
	o.mu.Unlock()

	req := model.RecommendationRequest{
		SeedTrackID: current.ID,
		Zone:        zone,
		BPM:         bpm,
		Tempo:       o.zones.TempoWindowFor(zone, bpm),
		Genres:      genres,
		Cause:       cause,
	}

	return o.run(ctx, req, current, queue)
}

// run выполняет стадии пайплайна строго последовательно
func (o *Orchestrator) run(ctx context.Context, req model.RecommendationRequest, current *model.Track, queue []model.Track) (model.RequestState, error) {
	defer o.clearRetries(req.SeedTrackID)

	record := func(state model.RequestState, detail, trackName string) {
		o.events.Append(model.RecommendationEvent{
			Zone:      req.Zone,
			BPM:       req.BPM,
			Genres:    req.Genres,
			State:     state,
			Detail:    detail,
			TrackName: trackName,
		})
	}

	if err := o.sampler.EnsurePool(ctx); err != nil {
		// Скоринг деградирует до популярности, но поиск продолжается
		o.logger.Warn("Failed to build familiarity pool", zap.Error(err))
	}

	record(model.StateSearching, "catalog search started", "")

	track, err := o.search.FindTrack(ctx, req.Genres, current, queue)
	if err == nil {
		record(model.StateFound, "catalog search", track.Name)
		return o.commit(ctx, *track, record)
	}
	if !errors.Is(err, ErrSearchExhausted) {
		record(model.StateError, err.Error(), "")
		return model.StateError, err
	}

	record(model.StateExhausted, "catalog search exhausted", "")

	return o.runFallback(ctx, req, current, queue, record)
}

// runFallback выполняет fallback стадию с ограниченными повторами
// при ответах, целиком состоящих из дубликатов
func (o *Orchestrator) runFallback(ctx context.Context, req model.RecommendationRequest, current *model.Track, queue []model.Track, record func(model.RequestState, string, string)) (model.RequestState, error) {
	notify := func(state model.RequestState, detail string) {
		record(state, detail, "")
	}

	for {
		record(model.StateFallbackRequested, "similarity fallback requested", "")

		track, err := o.fallback.FindTrack(ctx, req, current, queue, notify)
		if err == nil {
			record(model.StateFound, "similarity fallback", track.Name)
			return o.commit(ctx, *track, record)
		}

		if errors.Is(err, ErrAllDuplicates) {
			attempts := o.bumpRetries(req.SeedTrackID)
			if attempts >= o.maxSeedRetries {
				o.logger.Info("Fallback returned only duplicates, abandoning seed",
					zap.String("seed_track_id", req.SeedTrackID),
					zap.Int("attempts", attempts))
				record(model.StateAbandoned, "no suitable track", "")
				return model.StateAbandoned, err
			}
			// Провайдер варьирует ответы между вызовами - пробуем еще раз
			continue
		}

		record(model.StateError, err.Error(), "")
		return model.StateError, err
	}
}

// commit фиксирует победителя: сначала история сессии, затем очередь плеера.
// Порядок закрывает гонку между решением и постановкой в очередь.
func (o *Orchestrator) commit(ctx context.Context, track model.Track, record func(model.RequestState, string, string)) (model.RequestState, error) {
	o.dedup.MarkUsed(track)

	if err := o.catalog.QueueTrack(ctx, track.ID); err != nil {
		record(model.StateError, err.Error(), track.Name)
		return model.StateError, fmt.Errorf("failed to queue recommendation: %w", err)
	}

	o.mu.Lock()
	o.lastQueuedID = track.ID
	o.mu.Unlock()

	o.logger.Info("Recommendation committed", zap.String("track", track.DisplayName()))
	record(model.StateCommitted, "queued", track.Name)

	return model.StateCommitted, nil
}

// bumpRetries увеличивает счетчик повторов для seed трека
func (o *Orchestrator) bumpRetries(seedID string) int {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.retries[seedID]++
	return o.retries[seedID]
}

// clearRetries удаляет счетчик повторов seed трека.
// Счетчики не должны протекать между seed треками.
func (o *Orchestrator) clearRetries(seedID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.retries, seedID)
}

// RetryCount возвращает счетчик повторов seed трека
func (o *Orchestrator) RetryCount(seedID string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.retries[seedID]
}
