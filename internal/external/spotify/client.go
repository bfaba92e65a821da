// Package spotify реализует клиент для работы с Spotify Web API.
package spotify

import (
	"context"
	"fmt"
	"net/http"

	"pulsedj/internal/config"
	"pulsedj/internal/model"

	"github.com/go-resty/resty/v2"
	"github.com/zmb3/spotify/v2"
	"go.uber.org/zap"
)

const (
	apiBaseURL = "https://api.spotify.com/v1"
	// Максимальный размер страницы Spotify API
	pageLimit   = 100
	searchLimit = 50
	// Максимум треков за один запрос GetTracks
	tracksChunk = 50
)

// Client представляет клиент для работы с Spotify API
type Client struct {
	api      *spotify.Client
	rest     *resty.Client
	provider TokenProvider
	logger   *zap.Logger
}

var _ Interface = (*Client)(nil)

// NewClient создает новый Spotify клиент с внешним поставщиком токенов
func NewClient(cfg config.SpotifyConfig, provider TokenProvider, logger *zap.Logger) (*Client, error) {
	if provider == nil {
		return nil, fmt.Errorf("token provider is required")
	}

	httpClient := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &tokenTransport{
			base:     http.DefaultTransport,
			provider: provider,
		},
	}

	rest := resty.New().
		SetBaseURL(apiBaseURL).
		SetTimeout(cfg.Timeout)

	logger.Info("Spotify client created successfully")

	return &Client{
		api:      spotify.New(httpClient),
		rest:     rest,
		provider: provider,
		logger:   logger,
	}, nil
}

// searchResponse представляет ответ поиска плейлистов.
// Элементы items могут быть null для удаленных или недоступных плейлистов.
type searchResponse struct {
	Playlists struct {
		Items []*struct {
			ID          string `json:"id"`
			Name        string `json:"name"`
			Description string `json:"description"`
			Tracks      struct {
				Total int `json:"total"`
			} `json:"tracks"`
		} `json:"items"`
	} `json:"playlists"`
}

// SearchPlaylists ищет плейлисты по ключевому запросу.
// Поиск идет через прямой REST вызов: библиотечная модель результатов
// не отдает description плейлиста, который нужен quality фильтру.
func (c *Client) SearchPlaylists(ctx context.Context, query string) ([]model.Playlist, error) {
	token, err := c.provider.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get bearer token: %w", err)
	}

	var result searchResponse
	resp, err := c.rest.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParams(map[string]string{
			"q":     query,
			"type":  "playlist",
			"limit": fmt.Sprintf("%d", searchLimit),
		}).
		SetResult(&result).
		Get("/search")

	if err != nil {
		return nil, fmt.Errorf("playlist search request failed: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("playlist search failed with status %d: %s", resp.StatusCode(), resp.String())
	}

	playlists := make([]model.Playlist, 0, len(result.Playlists.Items))
	for _, item := range result.Playlists.Items {
		// Пропускаем дыры от удаленных или закрытых плейлистов
		if item == nil || item.ID == "" {
			continue
		}
		playlists = append(playlists, model.Playlist{
			ID:          item.ID,
			Name:        item.Name,
			Description: item.Description,
			TrackCount:  item.Tracks.Total,
		})
	}

	c.logger.Debug("Playlist search completed",
		zap.String("query", query),
		zap.Int("playlists", len(playlists)))

	return playlists, nil
}

// GetPlaylistTracks получает треки плейлиста с постраничным обходом
func (c *Client) GetPlaylistTracks(ctx context.Context, playlistID string) ([]model.Track, error) {
	var allTracks []model.Track
	offset := 0

	for {
		page, err := c.api.GetPlaylistItems(ctx, spotify.ID(playlistID), spotify.Limit(pageLimit), spotify.Offset(offset))
		if err != nil {
			return nil, fmt.Errorf("failed to get playlist tracks at offset %d: %w", offset, err)
		}

		for _, item := range page.Items {
			// Пропускаем эпизоды подкастов и недоступные позиции
			if item.Track.Track == nil {
				continue
			}
			allTracks = append(allTracks, fromFullTrack(*item.Track.Track))
		}

		if offset+len(page.Items) >= int(page.Total) || len(page.Items) == 0 {
			break
		}
		offset += len(page.Items)
	}

	c.logger.Debug("Retrieved playlist tracks",
		zap.String("playlist_id", playlistID),
		zap.Int("tracks", len(allTracks)))

	return allTracks, nil
}

// GetTracks получает полные данные треков по идентификаторам
func (c *Client) GetTracks(ctx context.Context, ids []string) ([]model.Track, error) {
	tracks := make([]model.Track, 0, len(ids))

	for start := 0; start < len(ids); start += tracksChunk {
		end := start + tracksChunk
		if end > len(ids) {
			end = len(ids)
		}

		chunk := make([]spotify.ID, 0, end-start)
		for _, id := range ids[start:end] {
			chunk = append(chunk, spotify.ID(id))
		}

		full, err := c.api.GetTracks(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("failed to get tracks: %w", err)
		}

		for _, t := range full {
			if t == nil {
				continue
			}
			tracks = append(tracks, fromFullTrack(*t))
		}
	}

	return tracks, nil
}

// RecentlyPlayed возвращает недавно прослушанные треки
func (c *Client) RecentlyPlayed(ctx context.Context, limit int) ([]model.Track, error) {
	items, err := c.api.PlayerRecentlyPlayedOpt(ctx, &spotify.RecentlyPlayedOptions{Limit: spotify.Numeric(limit)})
	if err != nil {
		return nil, fmt.Errorf("failed to get recently played: %w", err)
	}

	tracks := make([]model.Track, 0, len(items))
	for _, item := range items {
		tracks = append(tracks, fromSimpleTrack(item.Track))
	}

	return tracks, nil
}

// TopTracks возвращает топ-треки пользователя за горизонт
func (c *Client) TopTracks(ctx context.Context, timeRange TopTracksRange, limit int) ([]model.Track, error) {
	page, err := c.api.CurrentUsersTopTracks(ctx, spotify.Limit(limit), spotify.Timerange(spotify.Range(timeRange)))
	if err != nil {
		return nil, fmt.Errorf("failed to get top tracks: %w", err)
	}

	tracks := make([]model.Track, 0, len(page.Tracks))
	for _, t := range page.Tracks {
		tracks = append(tracks, fromFullTrack(t))
	}

	return tracks, nil
}

// CurrentlyPlaying возвращает текущий трек плеера
func (c *Client) CurrentlyPlaying(ctx context.Context) (*model.Track, error) {
	playing, err := c.api.PlayerCurrentlyPlaying(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get currently playing: %w", err)
	}

	if playing == nil || playing.Item == nil {
		return nil, nil
	}

	track := fromFullTrack(*playing.Item)
	return &track, nil
}

// Queue возвращает треки, находящиеся в очереди плеера
func (c *Client) Queue(ctx context.Context) ([]model.Track, error) {
	queue, err := c.api.GetQueue(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get player queue: %w", err)
	}

	tracks := make([]model.Track, 0, len(queue.Items))
	for _, t := range queue.Items {
		tracks = append(tracks, fromFullTrack(t))
	}

	return tracks, nil
}

// QueueTrack добавляет трек в очередь плеера
func (c *Client) QueueTrack(ctx context.Context, trackID string) error {
	if err := c.api.QueueSong(ctx, spotify.ID(trackID)); err != nil {
		return fmt.Errorf("failed to queue track %s: %w", trackID, err)
	}

	c.logger.Info("Track queued", zap.String("track_id", trackID))
	return nil
}

// fromFullTrack преобразует полный трек Spotify в модель
func fromFullTrack(t spotify.FullTrack) model.Track {
	track := model.Track{
		ID:         t.ID.String(),
		Name:       t.Name,
		URI:        string(t.URI),
		Popularity: int(t.Popularity),
	}

	for _, a := range t.Artists {
		track.Artists = append(track.Artists, model.Artist{ID: a.ID.String(), Name: a.Name})
	}

	if len(t.Album.Images) > 0 {
		track.AlbumImageURL = t.Album.Images[0].URL
	}

	return track
}

// fromSimpleTrack преобразует упрощенный трек Spotify в модель.
// У упрощенного трека нет популярности и обложки альбома.
func fromSimpleTrack(t spotify.SimpleTrack) model.Track {
	track := model.Track{
		ID:   t.ID.String(),
		Name: t.Name,
		URI:  string(t.URI),
	}

	for _, a := range t.Artists {
		track.Artists = append(track.Artists, model.Artist{ID: a.ID.String(), Name: a.Name})
	}

	return track
}
