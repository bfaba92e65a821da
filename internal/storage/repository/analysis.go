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

// AnalysisRepository реализует интерфейс для работы с записями анализа
type AnalysisRepository struct {
	db     *bun.DB
	logger *zap.Logger
}

var _ model.AnalysisRepository = (*AnalysisRepository)(nil)

// NewAnalysisRepository создает новый репозиторий записей анализа
func NewAnalysisRepository(db *bun.DB, logger *zap.Logger) *AnalysisRepository {
	return &AnalysisRepository{
		db:     db,
		logger: logger,
	}
}

// Get возвращает запись анализа по идентификатору трека
func (r *AnalysisRepository) Get(trackID string) (*model.AnalysisRecord, error) {
	ctx := context.Background()
	record := new(model.AnalysisRecord)

	err := r.db.NewSelect().
		Model(record).
		Where("track_id = ?", trackID).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get analysis record: %w", err)
	}

	return record, nil
}

// Upsert создает или обновляет запись анализа
func (r *AnalysisRepository) Upsert(record *model.AnalysisRecord) error {
	ctx := context.Background()
	now := time.Now()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	_, err := r.db.NewInsert().
		Model(record).
		On("CONFLICT (track_id) DO UPDATE").
		Set("status = EXCLUDED.status").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to upsert analysis record: %w", err)
	}

	r.logger.Debug("Analysis record upserted",
		zap.String("track_id", record.TrackID),
		zap.String("status", string(record.Status)))

	return nil
}
