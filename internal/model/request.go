// Package model содержит модели данных.
//
// Группа: PIPELINE - Запросы рекомендаций
// Содержит: TempoWindow, RecommendationRequest, TriggerCause
package model

// TempoWindow представляет окно темпа в BPM
type TempoWindow struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// IsZero сообщает, задано ли окно темпа
func (w TempoWindow) IsZero() bool {
	return w.Start == 0 && w.End == 0
}

// TriggerCause представляет причину запуска пайплайна
type TriggerCause string

const (
	// TriggerHeartRate - очередной сэмпл пульса
	TriggerHeartRate TriggerCause = "heart_rate"
	// TriggerTrackChange - смена текущего трека, cooldown не применяется
	TriggerTrackChange TriggerCause = "track_change"
)

// RecommendationRequest представляет один прогон пайплайна рекомендаций.
// Создается на каждое срабатывание триггера и живет до терминального состояния.
type RecommendationRequest struct {
	SeedTrackID string       `json:"seed_track_id"`
	Zone        int          `json:"zone"`
	BPM         int          `json:"bpm"`
	Tempo       TempoWindow  `json:"tempo"`
	Genres      []string     `json:"genres"`
	Cause       TriggerCause `json:"cause"`
}
