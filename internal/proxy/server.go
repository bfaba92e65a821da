package proxy

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pulsedj/internal/config"
	"pulsedj/internal/model"

	"go.uber.org/zap"
)

const serviceVersion = "1.0.0"

// completedEvent - тип события webhook о завершении анализа
const completedEvent = "analysis.completed"

// Server представляет сервер analysis proxy.
// Прокси надежно запоминает завершенные анализы и отвечает
// на опросы готовности от клиентского пайплайна.
type Server struct {
	server   *http.Server
	cache    *Cache
	records  model.AnalysisRepository
	upstream UpstreamInterface
	secret   string
	logger   *zap.Logger
}

// NewServer создает новый сервер analysis proxy
func NewServer(cfg config.ProxyConfig, records model.AnalysisRepository, upstream UpstreamInterface, logger *zap.Logger) *Server {
	mux := http.NewServeMux()

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: mux,
	}

	proxyServer := &Server{
		server:   server,
		cache:    NewCache(cfg.CacheTTL, cfg.CacheMaxEntries, nil),
		records:  records,
		upstream: upstream,
		secret:   cfg.WebhookSecret,
		logger:   logger,
	}

	// Регистрируем маршруты
	mux.HandleFunc("/analyze", proxyServer.analyzeHandler)
	mux.HandleFunc("/notify", proxyServer.notifyHandler)

	return proxyServer
}

// Start запускает сервер analysis proxy
func (s *Server) Start() error {
	s.logger.Info("Starting analysis proxy server", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

// Stop останавливает сервер analysis proxy
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.logger.Info("Stopping analysis proxy server")
	return s.server.Shutdown(ctx)
}

// analyzeResponse представляет ответ протокола analyze
type analyzeResponse struct {
	Status   string   `json:"status"`
	TrackIDs []string `json:"trackIds,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// analyzeHandler обрабатывает запросы /analyze.
// Вызов без trackId отвечает liveness пейлоадом.
func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	trackID := r.URL.Query().Get("trackId")
	if trackID == "" {
		s.writeJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "pulsedj-analysis-proxy",
			"version": serviceVersion,
		})
		return
	}

	record := s.lookupRecord(trackID)

	if record.Completed() {
		s.respondSimilar(w, r, trackID)
		return
	}

	if record == nil {
		// Первый запрос для этого трека - ставим анализ в очередь.
		// Запись создается только при успешной постановке, чтобы
		// следующий опрос повторил попытку после сбоя.
		if err := s.upstream.EnqueueAnalysis(r.Context(), trackID); err != nil {
			s.logger.Warn("Failed to enqueue analysis upstream",
				zap.String("track_id", trackID),
				zap.Error(err))
		} else {
			s.storeRecord(model.AnalysisRecord{
				TrackID: trackID,
				Status:  model.AnalysisPending,
			})
		}
	}

	// Отсутствие записи и незавершенная запись неразличимы для клиента
	s.writeJSON(w, http.StatusOK, analyzeResponse{Status: "analyzing"})
}

// respondSimilar запрашивает похожие треки у провайдера и отвечает клиенту
func (s *Server) respondSimilar(w http.ResponseWriter, r *http.Request, trackID string) {
	req := SimilarRequest{TrackID: trackID}

	if start, err := strconv.Atoi(r.URL.Query().Get("bpmStart")); err == nil {
		if end, err := strconv.Atoi(r.URL.Query().Get("bpmEnd")); err == nil {
			req.Tempo = model.TempoWindow{Start: start, End: end}
		}
	}
	if genres := r.URL.Query().Get("genres"); genres != "" {
		req.Genres = strings.Split(genres, ",")
	}

	trackIDs, err := s.upstream.SimilarTracks(r.Context(), req)
	if err != nil {
		s.logger.Error("Similar tracks request failed",
			zap.String("track_id", trackID),
			zap.Error(err))
		s.writeJSON(w, http.StatusOK, analyzeResponse{
			Status: "error",
			Error:  err.Error(),
		})
		return
	}

	s.writeJSON(w, http.StatusOK, analyzeResponse{
		Status:   "success",
		TrackIDs: trackIDs,
	})
}

// notifyPayload представляет webhook уведомление от провайдера анализа
type notifyPayload struct {
	Event   string `json:"event"`
	TrackID string `json:"trackId"`
}

// notifyHandler обрабатывает webhook уведомления провайдера.
// Проверка подписи включается только при заданном секрете.
func (s *Server) notifyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.secret != "" {
		provided := r.Header.Get("X-Webhook-Secret")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(s.secret)) != 1 {
			s.logger.Warn("Webhook signature mismatch")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
	}

	var payload notifyPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.logger.Warn("Malformed webhook payload", zap.Error(err))
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if payload.TrackID == "" {
		http.Error(w, "trackId is required", http.StatusBadRequest)
		return
	}

	if payload.Event != completedEvent {
		// Неизвестные события подтверждаем и игнорируем
		s.logger.Debug("Ignoring webhook event", zap.String("event", payload.Event))
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	s.storeRecord(model.AnalysisRecord{
		TrackID: payload.TrackID,
		Status:  model.AnalysisCompleted,
	})

	s.logger.Info("Analysis completion recorded", zap.String("track_id", payload.TrackID))
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

// lookupRecord ищет запись анализа в кэше, затем в базе данных
func (s *Server) lookupRecord(trackID string) *model.AnalysisRecord {
	if record, ok := s.cache.Get(trackID); ok {
		return record
	}

	record, err := s.records.Get(trackID)
	if err != nil {
		s.logger.Error("Failed to load analysis record",
			zap.String("track_id", trackID),
			zap.Error(err))
		return nil
	}

	if record != nil {
		s.cache.Set(*record)
	}

	return record
}

// storeRecord сохраняет запись анализа в базу и кэш
func (s *Server) storeRecord(record model.AnalysisRecord) {
	if err := s.records.Upsert(&record); err != nil {
		s.logger.Error("Failed to persist analysis record",
			zap.String("track_id", record.TrackID),
			zap.Error(err))
	}
	s.cache.Set(record)
}

// writeJSON пишет JSON ответ
func (s *Server) writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("Failed to write response", zap.Error(err))
	}
}
