package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pulsedj/internal/external/analysis"
	"pulsedj/internal/external/spotify"
	"pulsedj/internal/model"

	"go.uber.org/zap"
)

var (
	// ErrAllDuplicates - все кандидаты fallback оказались дубликатами.
	// Повтор запроса - ответственность вызывающего, в пределах лимита повторов.
	ErrAllDuplicates = errors.New("all fallback candidates were duplicates")

	// ErrAnalysisTimeout - анализ не завершился за отведенное число опросов
	ErrAnalysisTimeout = errors.New("analysis polling attempts exceeded")
)

// FallbackService реализует fallback стадию через analysis proxy.
// Вызывается только после исчерпания каталожного поиска.
type FallbackService struct {
	proxy           analysis.Interface
	catalog         spotify.Interface
	dedup           DedupInterface
	pollInterval    time.Duration
	maxPollAttempts int
	logger          *zap.Logger

	// sleep подменяется в тестах
	sleep func(ctx context.Context, d time.Duration) error
}

// NewFallbackService создает новую fallback стадию
func NewFallbackService(proxy analysis.Interface, catalog spotify.Interface, dedup DedupInterface, pollInterval time.Duration, maxPollAttempts int, logger *zap.Logger) *FallbackService {
	return &FallbackService{
		proxy:           proxy,
		catalog:         catalog,
		dedup:           dedup,
		pollInterval:    pollInterval,
		maxPollAttempts: maxPollAttempts,
		logger:          logger,
		sleep:           sleepCtx,
	}
}

// sleepCtx ждет указанную длительность или отмену контекста
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// FindTrack запрашивает похожие треки у analysis proxy и возвращает
// первый не-дубликат. Пока анализ не завершен, статус опрашивается
// с фиксированным интервалом; цикл опроса отменяется через контекст.
// notify сообщает вызывающему о смене состояния, может быть nil.
func (s *FallbackService) FindTrack(ctx context.Context, req model.RecommendationRequest, current *model.Track, queue []model.Track, notify func(state model.RequestState, detail string)) (*model.Track, error) {
	if notify == nil {
		notify = func(model.RequestState, string) {}
	}

	analyzeReq := analysis.Request{
		TrackID: req.SeedTrackID,
		Tempo:   req.Tempo,
		Genres:  req.Genres,
	}

	attempts := 0
	for {
		resp, err := s.proxy.Analyze(ctx, analyzeReq)
		if err != nil {
			// Транспортные и схемные ошибки терминальны для этой попытки
			notify(model.StateError, err.Error())
			return nil, fmt.Errorf("fallback analyze failed: %w", err)
		}

		switch resp.Status {
		case analysis.StatusSuccess:
			return s.pickCandidate(ctx, resp.TrackIDs, current, queue)

		case analysis.StatusAnalyzing:
			attempts++
			if s.maxPollAttempts > 0 && attempts > s.maxPollAttempts {
				notify(model.StateError, "analysis polling attempts exceeded")
				return nil, ErrAnalysisTimeout
			}

			if attempts == 1 {
				notify(model.StateAnalyzing, "seed track not analyzed yet")
			}
			notify(model.StatePolling, fmt.Sprintf("poll attempt %d", attempts))

			s.logger.Debug("Analysis pending, polling",
				zap.String("seed_track_id", req.SeedTrackID),
				zap.Int("attempt", attempts))

			if err := s.sleep(ctx, s.pollInterval); err != nil {
				return nil, fmt.Errorf("fallback polling cancelled: %w", err)
			}

		case analysis.StatusError:
			notify(model.StateError, resp.Error)
			return nil, fmt.Errorf("analysis proxy error: %s", resp.Error)

		default:
			// Незнакомый статус нельзя трактовать как analyzing:
			// повторный опрос без паузы превратился бы в горячий цикл
			notify(model.StateError, fmt.Sprintf("unexpected analysis status %q", resp.Status))
			return nil, fmt.Errorf("%w: status %q", analysis.ErrBadResponse, resp.Status)
		}
	}
}

// pickCandidate обогащает кандидатов до полных треков и возвращает
// первый, прошедший дедупликацию
func (s *FallbackService) pickCandidate(ctx context.Context, trackIDs []string, current *model.Track, queue []model.Track) (*model.Track, error) {
	if len(trackIDs) == 0 {
		return nil, ErrAllDuplicates
	}

	tracks, err := s.catalog.GetTracks(ctx, trackIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to enrich fallback candidates: %w", err)
	}

	for _, track := range tracks {
		duplicate, err := s.dedup.IsDuplicate(ctx, track, current, queue)
		if err != nil {
			return nil, fmt.Errorf("fallback duplicate check failed: %w", err)
		}
		if !duplicate {
			s.logger.Info("Fallback found candidate", zap.String("track", track.DisplayName()))
			return &track, nil
		}
	}

	return nil, ErrAllDuplicates
}
