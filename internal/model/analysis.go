// Package model содержит модели данных.
//
// Группа: ENTITIES - Записи анализа
// Содержит: AnalysisStatus, AnalysisRecord, AnalysisRepository
package model

import (
	"time"

	"github.com/uptrace/bun"
)

// AnalysisStatus представляет статус анализа трека
type AnalysisStatus string

const (
	// AnalysisPending - анализ поставлен в очередь у провайдера
	AnalysisPending AnalysisStatus = "pending"
	// AnalysisCompleted - провайдер сообщил о завершении анализа
	AnalysisCompleted AnalysisStatus = "completed"
)

// AnalysisRecord представляет запись о состоянии анализа трека.
// Создается при первом запросе analyze, переходит в completed
// по webhook уведомлению от провайдера.
type AnalysisRecord struct {
	bun.BaseModel `bun:"table:pulsedj.analysis_records"`

	TrackID   string         `bun:"track_id,pk" json:"track_id"`
	Status    AnalysisStatus `bun:"status,notnull" json:"status"`
	CreatedAt time.Time      `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time      `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

// Completed сообщает, завершен ли анализ
func (r *AnalysisRecord) Completed() bool {
	return r != nil && r.Status == AnalysisCompleted
}

// AnalysisRepository определяет интерфейс для работы с записями анализа
type AnalysisRepository interface {
	Get(trackID string) (*AnalysisRecord, error)
	Upsert(record *AnalysisRecord) error
}
