package service

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"

	"pulsedj/internal/external/spotify"
	"pulsedj/internal/model"

	"go.uber.org/zap"
)

// ErrSearchExhausted - каталожный поиск перебрал все плейлисты и ничего не нашел
var ErrSearchExhausted = errors.New("catalog search exhausted")

// podcastKeywords отсекают подкасты и эпизоды
var podcastKeywords = []string{"podcast", "episode"}

// bannedKeywords отсекают плейлисты с нежелательной тематикой
var bannedKeywords = []string{
	"holiday", "christmas", "xmas",
	"sleep", "ambient", "relax", "meditation", "calm",
	"soundtrack", "score",
	"kids", "children", "family", "disney",
}

// SearchService реализует каталожную стадию поиска кандидата
type SearchService struct {
	catalog   spotify.Interface
	dedup     DedupInterface
	sampler   SamplerInterface
	minTracks int
	logger    *zap.Logger

	// shuffle подменяется в тестах для детерминизма
	shuffle func(n int, swap func(i, j int))
}

// NewSearchService создает новую каталожную стадию поиска
func NewSearchService(catalog spotify.Interface, dedup DedupInterface, sampler SamplerInterface, minTracks int, logger *zap.Logger) *SearchService {
	return &SearchService{
		catalog:   catalog,
		dedup:     dedup,
		sampler:   sampler,
		minTracks: minTracks,
		logger:    logger,
		shuffle:   rand.Shuffle,
	}
}

// FindTrack ищет один подходящий трек по жанрам.
// Возвращает ErrSearchExhausted, когда все плейлисты перебраны впустую.
func (s *SearchService) FindTrack(ctx context.Context, genres []string, current *model.Track, queue []model.Track) (*model.Track, error) {
	if len(genres) == 0 {
		return nil, ErrSearchExhausted
	}

	// Один многожанровый запрос работает лучше, чем узкие фильтры по жанру
	query := strings.ToLower(strings.Join(genres, " "))

	playlists, err := s.catalog.SearchPlaylists(ctx, query)
	if err != nil {
		s.logger.Warn("Playlist search failed, treating as exhausted",
			zap.String("query", query),
			zap.Error(err))
		return nil, ErrSearchExhausted
	}

	if len(playlists) == 0 {
		s.logger.Info("Playlist search returned nothing", zap.String("query", query))
		return nil, ErrSearchExhausted
	}

	candidates := s.filterPlaylists(playlists)
	if len(candidates) == 0 {
		// Ослабляем требование к числу треков, но тематические
		// исключения остаются в силе
		candidates = s.filterPlaylistsRelaxed(playlists)
	}

	s.shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	for _, playlist := range candidates {
		track, ok := s.walkPlaylist(ctx, playlist, current, queue)
		if ok {
			return track, nil
		}
	}

	return nil, ErrSearchExhausted
}

// filterPlaylists оставляет достаточно большие плейлисты без нежелательной тематики
func (s *SearchService) filterPlaylists(playlists []model.Playlist) []model.Playlist {
	filtered := make([]model.Playlist, 0, len(playlists))
	for _, playlist := range playlists {
		if playlist.TrackCount < s.minTracks {
			continue
		}
		if isBannedPlaylist(playlist) {
			continue
		}
		filtered = append(filtered, playlist)
	}
	return filtered
}

// filterPlaylistsRelaxed оставляет тематические исключения, но снимает требование к размеру
func (s *SearchService) filterPlaylistsRelaxed(playlists []model.Playlist) []model.Playlist {
	filtered := make([]model.Playlist, 0, len(playlists))
	for _, playlist := range playlists {
		if playlist.TrackCount == 0 {
			continue
		}
		if isBannedPlaylist(playlist) {
			continue
		}
		filtered = append(filtered, playlist)
	}
	return filtered
}

// isBannedPlaylist проверяет плейлист на нежелательные ключевые слова
func isBannedPlaylist(playlist model.Playlist) bool {
	haystack := strings.ToLower(playlist.Name + " " + playlist.Description)

	for _, keyword := range podcastKeywords {
		if strings.Contains(haystack, keyword) {
			return true
		}
	}
	for _, keyword := range bannedKeywords {
		if strings.Contains(haystack, keyword) {
			return true
		}
	}
	return false
}

// walkPlaylist выбирает из плейлиста первый не-дубликат.
// Любой сбой внутри обхода означает отказ этого плейлиста, не всего поиска.
func (s *SearchService) walkPlaylist(ctx context.Context, playlist model.Playlist, current *model.Track, queue []model.Track) (*model.Track, bool) {
	tracks, err := s.catalog.GetPlaylistTracks(ctx, playlist.ID)
	if err != nil {
		s.logger.Warn("Failed to fetch playlist tracks, skipping playlist",
			zap.String("playlist_id", playlist.ID),
			zap.String("playlist", playlist.Name),
			zap.Error(err))
		return nil, false
	}

	// Сначала дешевые локальные проверки, сетевая проверка
	// недавно прослушанных - только для выбранного кандидата
	survivors := make([]model.Track, 0, len(tracks))
	for _, track := range tracks {
		if !s.dedup.IsLocalDuplicate(track, current, queue) {
			survivors = append(survivors, track)
		}
	}

	for len(survivors) > 0 {
		pick := s.sampler.Sample(survivors)
		if pick == nil {
			return nil, false
		}

		duplicate, err := s.dedup.IsDuplicate(ctx, *pick, current, queue)
		if err != nil {
			s.logger.Warn("Duplicate check failed, skipping playlist",
				zap.String("playlist_id", playlist.ID),
				zap.Error(err))
			return nil, false
		}

		if !duplicate {
			s.logger.Info("Catalog search found candidate",
				zap.String("playlist", playlist.Name),
				zap.String("track", pick.DisplayName()))
			return pick, true
		}

		survivors = removeTrack(survivors, pick.ID)
	}

	return nil, false
}

// removeTrack удаляет трек из среза по идентификатору
func removeTrack(tracks []model.Track, id string) []model.Track {
	for i, track := range tracks {
		if track.ID == id {
			return append(tracks[:i], tracks[i+1:]...)
		}
	}
	return tracks
}
