// Package model содержит модели данных.
//
// Группа: OBSERVABILITY - Журнал событий рекомендаций
// Содержит: RequestState, RecommendationEvent
package model

import "time"

// RequestState представляет состояние запроса рекомендации
type RequestState string

const (
	StateIdle              RequestState = "IDLE"
	StateSearching         RequestState = "SEARCHING"
	StateFound             RequestState = "FOUND"
	StateCommitted         RequestState = "COMMITTED"
	StateExhausted         RequestState = "EXHAUSTED"
	StateFallbackRequested RequestState = "FALLBACK_REQUESTED"
	StateAnalyzing         RequestState = "ANALYZING"
	StatePolling           RequestState = "POLLING"
	StateAbandoned         RequestState = "ABANDONED"
	StateError             RequestState = "ERROR"
)

// IsTerminal сообщает, является ли состояние терминальным
func (s RequestState) IsTerminal() bool {
	switch s {
	case StateCommitted, StateAbandoned, StateError:
		return true
	}
	return false
}

// RecommendationEvent представляет запись журнала событий рекомендаций.
// Используется только для диагностики, не для управления пайплайном.
type RecommendationEvent struct {
	At        time.Time    `json:"at"`
	Zone      int          `json:"zone"`
	BPM       int          `json:"bpm"`
	Genres    []string     `json:"genres,omitempty"`
	State     RequestState `json:"state"`
	Detail    string       `json:"detail,omitempty"`
	TrackName string       `json:"track_name,omitempty"`
}
