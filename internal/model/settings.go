// Package model содержит модели данных.
//
// Группа: ENTITIES - Настройки пользователя
// Содержит: UserSettings, SettingsRepository
package model

import (
	"time"

	"github.com/uptrace/bun"
)

// DefaultMaxHeartRate - максимальный пульс по умолчанию
const DefaultMaxHeartRate = 190

// UserSettings представляет настройки пользователя
type UserSettings struct {
	bun.BaseModel `bun:"table:pulsedj.user_settings"`

	ID              int64     `bun:"id,pk,autoincrement" json:"id"`
	MaxHeartRate    int       `bun:"max_heart_rate,notnull" json:"max_heart_rate"`
	SteadyGenres    []string  `bun:"steady_genres,array" json:"steady_genres"`
	ThresholdGenres []string  `bun:"threshold_genres,array" json:"threshold_genres"`
	UpdatedAt       time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

// DefaultSettings возвращает настройки по умолчанию
func DefaultSettings() *UserSettings {
	return &UserSettings{
		MaxHeartRate:    DefaultMaxHeartRate,
		SteadyGenres:    []string{"house", "pop"},
		ThresholdGenres: []string{"drum-and-bass", "electronic"},
	}
}

// SettingsRepository определяет интерфейс для работы с настройками пользователя
type SettingsRepository interface {
	Get() (*UserSettings, error)
	Save(settings *UserSettings) error
}
