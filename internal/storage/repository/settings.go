// Package repository содержит репозитории для работы с базой данных.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pulsedj/internal/model"

	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// SettingsRepository реализует интерфейс для работы с настройками пользователя
type SettingsRepository struct {
	db     *bun.DB
	logger *zap.Logger
}

var _ model.SettingsRepository = (*SettingsRepository)(nil)

// NewSettingsRepository создает новый репозиторий настроек
func NewSettingsRepository(db *bun.DB, logger *zap.Logger) *SettingsRepository {
	return &SettingsRepository{
		db:     db,
		logger: logger,
	}
}

// Get возвращает настройки пользователя или настройки по умолчанию, если их нет
func (r *SettingsRepository) Get() (*model.UserSettings, error) {
	ctx := context.Background()
	settings := new(model.UserSettings)

	err := r.db.NewSelect().
		Model(settings).
		Order("updated_at DESC").
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Info("No user settings found, using defaults")
			return model.DefaultSettings(), nil
		}
		return nil, fmt.Errorf("failed to get user settings: %w", err)
	}

	if settings.MaxHeartRate <= 0 {
		settings.MaxHeartRate = model.DefaultMaxHeartRate
	}

	return settings, nil
}

// Save сохраняет настройки пользователя
func (r *SettingsRepository) Save(settings *model.UserSettings) error {
	ctx := context.Background()
	settings.UpdatedAt = time.Now()

	_, err := r.db.NewInsert().
		Model(settings).
		On("CONFLICT (id) DO UPDATE").
		Set("max_heart_rate = EXCLUDED.max_heart_rate").
		Set("steady_genres = EXCLUDED.steady_genres").
		Set("threshold_genres = EXCLUDED.threshold_genres").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to save user settings: %w", err)
	}

	r.logger.Info("User settings saved",
		zap.Int("max_heart_rate", settings.MaxHeartRate),
		zap.Strings("steady_genres", settings.SteadyGenres),
		zap.Strings("threshold_genres", settings.ThresholdGenres))

	return nil
}
