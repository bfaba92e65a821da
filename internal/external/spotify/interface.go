// Package spotify реализует клиент для работы с Spotify Web API.
package spotify

import (
	"context"

	"pulsedj/internal/model"
)

// TopTracksRange представляет горизонт выборки топ-треков
type TopTracksRange string

const (
	// TopTracksShortTerm - примерно последние 4 недели
	TopTracksShortTerm TopTracksRange = "short_term"
	// TopTracksMediumTerm - примерно последние 6 месяцев
	TopTracksMediumTerm TopTracksRange = "medium_term"
)

// Interface определяет интерфейс для работы с каталогом Spotify
type Interface interface {
	// SearchPlaylists ищет плейлисты по ключевому запросу
	SearchPlaylists(ctx context.Context, query string) ([]model.Playlist, error)

	// GetPlaylistTracks получает треки плейлиста
	GetPlaylistTracks(ctx context.Context, playlistID string) ([]model.Track, error)

	// GetTracks получает полные данные треков по идентификаторам
	GetTracks(ctx context.Context, ids []string) ([]model.Track, error)

	// RecentlyPlayed возвращает недавно прослушанные треки
	RecentlyPlayed(ctx context.Context, limit int) ([]model.Track, error)

	// TopTracks возвращает топ-треки пользователя за горизонт
	TopTracks(ctx context.Context, timeRange TopTracksRange, limit int) ([]model.Track, error)

	// CurrentlyPlaying возвращает текущий трек плеера, nil если ничего не играет
	CurrentlyPlaying(ctx context.Context) (*model.Track, error)

	// Queue возвращает треки, находящиеся в очереди плеера
	Queue(ctx context.Context) ([]model.Track, error)

	// QueueTrack добавляет трек в очередь плеера
	QueueTrack(ctx context.Context, trackID string) error
}

// TokenProvider определяет интерфейс внешнего поставщика bearer токена.
// Получение и обновление токена - забота реализации.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}
