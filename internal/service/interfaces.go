package service

import (
	"context"

	"pulsedj/internal/model"
)

// DedupInterface определяет интерфейс движка дедупликации
type DedupInterface interface {
	// IsLocalDuplicate проверяет кандидата без сетевых вызовов
	IsLocalDuplicate(candidate model.Track, current *model.Track, queue []model.Track) bool
	// IsDuplicate выполняет полную проверку, включая недавно прослушанные
	IsDuplicate(ctx context.Context, candidate model.Track, current *model.Track, queue []model.Track) (bool, error)
	// MarkUsed фиксирует трек в истории сессии
	MarkUsed(track model.Track)
}

// SamplerInterface определяет интерфейс движка знакомости и выборки
type SamplerInterface interface {
	EnsurePool(ctx context.Context) error
	Rebuild(ctx context.Context) error
	IsFamiliar(track model.Track) bool
	Score(track model.Track) float64
	Sample(candidates []model.Track) *model.Track
}

// SearchStageInterface определяет интерфейс каталожной стадии поиска
type SearchStageInterface interface {
	FindTrack(ctx context.Context, genres []string, current *model.Track, queue []model.Track) (*model.Track, error)
}

// FallbackStageInterface определяет интерфейс fallback стадии
type FallbackStageInterface interface {
	FindTrack(ctx context.Context, req model.RecommendationRequest, current *model.Track, queue []model.Track, notify func(state model.RequestState, detail string)) (*model.Track, error)
}

var (
	_ DedupInterface         = (*DedupService)(nil)
	_ SamplerInterface       = (*FamiliarityService)(nil)
	_ SearchStageInterface   = (*SearchService)(nil)
	_ FallbackStageInterface = (*FallbackService)(nil)
)
