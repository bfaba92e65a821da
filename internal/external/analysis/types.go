// Package analysis реализует клиент протокола analysis proxy.
package analysis

import (
	"context"

	"pulsedj/internal/model"
)

// Status представляет статус ответа analysis proxy
type Status string

const (
	// StatusSuccess - анализ завершен, есть кандидаты
	StatusSuccess Status = "success"
	// StatusAnalyzing - анализ еще не завершен, нужно опросить позже
	StatusAnalyzing Status = "analyzing"
	// StatusError - прокси сообщил об ошибке
	StatusError Status = "error"
)

// Request представляет запрос похожих треков
type Request struct {
	TrackID string
	Tempo   model.TempoWindow
	Genres  []string
}

// Response представляет ответ analysis proxy
type Response struct {
	Status   Status   `json:"status"`
	TrackIDs []string `json:"trackIds,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// Interface определяет интерфейс клиента analysis proxy
type Interface interface {
	// Analyze запрашивает похожие треки для seed трека
	Analyze(ctx context.Context, req Request) (*Response, error)
}
