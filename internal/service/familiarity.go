package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"pulsedj/internal/external/spotify"
	"pulsedj/internal/model"

	"go.uber.org/zap"
)

const (
	familiarityPoolLimit = 50

	// Веса скоринга
	familiarTrackBonus  = 5.0
	familiarArtistBonus = 3.0
	popularityDivisor   = 20.0
	unfamiliarPenalty   = 2.0

	// Доля выборок из знакомой части, в процентах
	familiarSampleShare = 90
)

// FamiliarityService строит пул знакомых треков и исполнителей
// из истории прослушиваний и оценивает кандидатов
type FamiliarityService struct {
	catalog spotify.Interface
	logger  *zap.Logger

	// randInt подменяется в тестах
	randInt func(n int) int

	mu      sync.Mutex
	built   bool
	tracks  map[string]struct{}
	artists map[string]struct{}
}

// NewFamiliarityService создает новый сервис знакомости
func NewFamiliarityService(catalog spotify.Interface, logger *zap.Logger) *FamiliarityService {
	return &FamiliarityService{
		catalog: catalog,
		logger:  logger,
		randInt: rand.IntN,
		tracks:  make(map[string]struct{}),
		artists: make(map[string]struct{}),
	}
}

// EnsurePool строит пул знакомости, если он еще не построен.
// Пул живет до конца сессии и сам по себе не устаревает.
func (s *FamiliarityService) EnsurePool(ctx context.Context) error {
	s.mu.Lock()
	built := s.built
	s.mu.Unlock()

	if built {
		return nil
	}
	return s.Rebuild(ctx)
}

// Rebuild принудительно перестраивает пул из трех источников:
// недавно прослушанные и топ-треки за два горизонта
func (s *FamiliarityService) Rebuild(ctx context.Context) error {
	tracks := make(map[string]struct{})
	artists := make(map[string]struct{})

	recent, err := s.catalog.RecentlyPlayed(ctx, familiarityPoolLimit)
	if err != nil {
		return fmt.Errorf("failed to load recently played for familiarity pool: %w", err)
	}
	addToPool(tracks, artists, recent)

	for _, timeRange := range []spotify.TopTracksRange{spotify.TopTracksShortTerm, spotify.TopTracksMediumTerm} {
		top, err := s.catalog.TopTracks(ctx, timeRange, familiarityPoolLimit)
		if err != nil {
			return fmt.Errorf("failed to load top tracks (%s) for familiarity pool: %w", timeRange, err)
		}
		addToPool(tracks, artists, top)
	}

	s.mu.Lock()
	s.tracks = tracks
	s.artists = artists
	s.built = true
	s.mu.Unlock()

	s.logger.Info("Familiarity pool built",
		zap.Int("tracks", len(tracks)),
		zap.Int("artists", len(artists)))

	return nil
}

func addToPool(tracks, artists map[string]struct{}, source []model.Track) {
	for _, track := range source {
		if track.ID != "" {
			tracks[track.ID] = struct{}{}
		}
		for _, artist := range track.Artists {
			if artist.ID != "" {
				artists[artist.ID] = struct{}{}
			}
		}
	}
}

// IsFamiliar сообщает, знаком ли слушателю трек или любой из его исполнителей
func (s *FamiliarityService) IsFamiliar(track model.Track) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tracks[track.ID]; ok {
		return true
	}
	for _, artist := range track.Artists {
		if _, ok := s.artists[artist.ID]; ok {
			return true
		}
	}
	return false
}

// Score оценивает кандидата по знакомости и популярности
func (s *FamiliarityService) Score(track model.Track) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	score := 0.0

	_, trackFamiliar := s.tracks[track.ID]
	if trackFamiliar {
		score += familiarTrackBonus
	}

	familiarArtists := 0
	for _, artist := range track.Artists {
		if _, ok := s.artists[artist.ID]; ok {
			familiarArtists++
		}
	}
	score += familiarArtistBonus * float64(familiarArtists)

	score += float64(track.Popularity) / popularityDivisor

	if !trackFamiliar && familiarArtists == 0 {
		score -= unfamiliarPenalty
	}

	return score
}

// Sample выбирает трек из кандидатов по политике 90/10:
// в 90% случаев лучший из знакомых, иначе лучший из новых.
// Пустая часть заменяется другой; при отсутствии кандидатов возвращается nil.
func (s *FamiliarityService) Sample(candidates []model.Track) *model.Track {
	if len(candidates) == 0 {
		return nil
	}

	var familiar, novel []model.Track
	for _, track := range candidates {
		if s.IsFamiliar(track) {
			familiar = append(familiar, track)
		} else {
			novel = append(novel, track)
		}
	}

	roll := s.randInt(100) + 1

	pickFamiliar := roll <= familiarSampleShare && len(familiar) > 0
	chosen := novel
	if pickFamiliar {
		chosen = familiar
	}
	if len(chosen) == 0 {
		if pickFamiliar {
			chosen = novel
		} else {
			chosen = familiar
		}
	}
	if len(chosen) == 0 {
		chosen = candidates
	}

	best := s.bestOf(chosen)

	s.logger.Debug("Sampled candidate",
		zap.Int("roll", roll),
		zap.Int("familiar", len(familiar)),
		zap.Int("novel", len(novel)),
		zap.String("track", best.DisplayName()))

	return best
}

// bestOf возвращает кандидата с наибольшим скором
func (s *FamiliarityService) bestOf(candidates []model.Track) *model.Track {
	best := candidates[0]
	bestScore := s.Score(best)

	for _, track := range candidates[1:] {
		if score := s.Score(track); score > bestScore {
			best = track
			bestScore = score
		}
	}

	return &best
}
