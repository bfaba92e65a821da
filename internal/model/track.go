// Package model содержит модели данных.
//
// Группа: ENTITIES - Основные сущности
// Содержит: Track, Artist, Playlist
package model

import "strings"

// Artist представляет исполнителя трека
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Track представляет трек каталога
type Track struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Artists       []Artist `json:"artists"`
	AlbumImageURL string   `json:"album_image_url,omitempty"`
	URI           string   `json:"uri"`
	Popularity    int      `json:"popularity"`
}

// ArtistNames возвращает имена исполнителей трека
func (t Track) ArtistNames() []string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return names
}

// ArtistIDs возвращает идентификаторы исполнителей трека
func (t Track) ArtistIDs() []string {
	ids := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		ids = append(ids, a.ID)
	}
	return ids
}

// DisplayName возвращает строку вида "Artist - Title" для логов
func (t Track) DisplayName() string {
	if len(t.Artists) == 0 {
		return t.Name
	}
	return strings.Join(t.ArtistNames(), ", ") + " - " + t.Name
}

// Playlist представляет плейлист из результатов поиска.
// Не персистится, живет в пределах одного поиска.
type Playlist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	TrackCount  int    `json:"track_count"`
}
