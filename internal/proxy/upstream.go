package proxy

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"pulsedj/internal/config"
	"pulsedj/internal/model"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// SimilarRequest представляет запрос похожих треков к провайдеру анализа
type SimilarRequest struct {
	TrackID string
	Tempo   model.TempoWindow
	Genres  []string
}

// UpstreamInterface определяет интерфейс провайдера аудио-анализа
type UpstreamInterface interface {
	// EnqueueAnalysis ставит трек в очередь анализа у провайдера
	EnqueueAnalysis(ctx context.Context, trackID string) error
	// SimilarTracks возвращает идентификаторы похожих треков
	SimilarTracks(ctx context.Context, req SimilarRequest) ([]string, error)
}

// UpstreamClient представляет клиент провайдера аудио-анализа
type UpstreamClient struct {
	rest        *resty.Client
	callbackURL string
	logger      *zap.Logger
}

var _ UpstreamInterface = (*UpstreamClient)(nil)

// NewUpstreamClient создает новый клиент провайдера анализа
func NewUpstreamClient(cfg config.ProxyConfig, logger *zap.Logger) *UpstreamClient {
	rest := resty.New().
		SetBaseURL(cfg.UpstreamURL).
		SetTimeout(cfg.Timeout)

	if cfg.UpstreamKey != "" {
		rest.SetAuthToken(cfg.UpstreamKey)
	}

	return &UpstreamClient{
		rest:        rest,
		callbackURL: cfg.CallbackURL,
		logger:      logger,
	}
}

// EnqueueAnalysis ставит трек в очередь анализа.
// Провайдер уведомит о завершении асинхронно через callback URL.
func (c *UpstreamClient) EnqueueAnalysis(ctx context.Context, trackID string) error {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"track_id":     trackID,
			"callback_url": c.callbackURL,
		}).
		Post("/v1/analyses")

	if err != nil {
		return fmt.Errorf("failed to enqueue analysis: %w", err)
	}

	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusAccepted {
		return fmt.Errorf("enqueue analysis failed with status %d: %s", resp.StatusCode(), resp.String())
	}

	c.logger.Info("Analysis enqueued upstream", zap.String("track_id", trackID))
	return nil
}

// similarResponse представляет ответ провайдера со списком похожих треков
type similarResponse struct {
	TrackIDs []string `json:"track_ids"`
}

// SimilarTracks возвращает идентификаторы похожих треков для завершенного анализа
func (c *UpstreamClient) SimilarTracks(ctx context.Context, req SimilarRequest) ([]string, error) {
	request := c.rest.R().
		SetContext(ctx).
		SetPathParam("trackId", req.TrackID)

	if !req.Tempo.IsZero() {
		request.SetQueryParam("bpm_start", strconv.Itoa(req.Tempo.Start))
		request.SetQueryParam("bpm_end", strconv.Itoa(req.Tempo.End))
	}
	if len(req.Genres) > 0 {
		request.SetQueryParam("genres", strings.Join(req.Genres, ","))
	}

	var result similarResponse
	resp, err := request.
		SetResult(&result).
		Get("/v1/tracks/{trackId}/similar")

	if err != nil {
		return nil, fmt.Errorf("similar tracks request failed: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("similar tracks request failed with status %d: %s", resp.StatusCode(), resp.String())
	}

	return result.TrackIDs, nil
}
