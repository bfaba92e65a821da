package analysis

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"pulsedj/internal/config"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ErrBadResponse - ответ прокси не соответствует ожидаемой схеме.
// Отличается от транспортных ошибок, чтобы расхождение версий было видно в логах.
var ErrBadResponse = errors.New("analysis proxy returned malformed response")

// Client представляет клиент для работы с analysis proxy
type Client struct {
	rest   *resty.Client
	logger *zap.Logger
}

var _ Interface = (*Client)(nil)

// NewClient создает новый клиент analysis proxy
func NewClient(cfg config.FallbackConfig, logger *zap.Logger) *Client {
	rest := resty.New().
		SetBaseURL(cfg.ProxyURL).
		SetTimeout(cfg.Timeout)

	return &Client{
		rest:   rest,
		logger: logger,
	}
}

// Analyze запрашивает похожие треки для seed трека
func (c *Client) Analyze(ctx context.Context, req Request) (*Response, error) {
	if req.TrackID == "" {
		return nil, fmt.Errorf("seed track id is required")
	}

	params := map[string]string{
		"trackId": req.TrackID,
	}
	if !req.Tempo.IsZero() {
		params["bpmStart"] = strconv.Itoa(req.Tempo.Start)
		params["bpmEnd"] = strconv.Itoa(req.Tempo.End)
	}
	if len(req.Genres) > 0 {
		params["genres"] = strings.Join(req.Genres, ",")
	}

	var result Response
	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&result).
		Get("/analyze")

	if err != nil {
		return nil, fmt.Errorf("analyze request failed: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("analyze request failed with status %d: %s", resp.StatusCode(), resp.String())
	}

	switch result.Status {
	case StatusSuccess, StatusAnalyzing, StatusError:
	default:
		c.logger.Warn("Unexpected analysis proxy response shape",
			zap.String("track_id", req.TrackID),
			zap.String("body", resp.String()))
		return nil, fmt.Errorf("%w: status %q", ErrBadResponse, result.Status)
	}

	c.logger.Debug("Analysis proxy responded",
		zap.String("track_id", req.TrackID),
		zap.String("status", string(result.Status)),
		zap.Int("candidates", len(result.TrackIDs)))

	return &result, nil
}
