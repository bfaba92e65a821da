// Package heartrate содержит прием сэмплов пульса.
package heartrate

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"pulsedj/internal/config"

	"go.uber.org/zap"
)

// Sample представляет один сэмпл пульса
type Sample struct {
	BPM int       `json:"bpm"`
	At  time.Time `json:"at"`
}

// Source определяет интерфейс источника сэмплов пульса
type Source interface {
	Samples() <-chan Sample
}

// Receiver принимает сэмплы пульса по HTTP.
// Мост на телефоне или часах отправляет POST /sample с текущим пульсом.
type Receiver struct {
	server  *http.Server
	samples chan Sample
	maxBPM  int
	logger  *zap.Logger
}

var _ Source = (*Receiver)(nil)

// NewReceiver создает новый приемник пульса
func NewReceiver(cfg config.HeartRateConfig, logger *zap.Logger) *Receiver {
	mux := http.NewServeMux()

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: mux,
	}

	receiver := &Receiver{
		server:  server,
		samples: make(chan Sample, 16),
		maxBPM:  cfg.MaxPlausibleBPM,
		logger:  logger,
	}

	mux.HandleFunc("/sample", receiver.sampleHandler)

	return receiver
}

// Start запускает приемник пульса
func (r *Receiver) Start() error {
	r.logger.Info("Starting heart rate receiver", zap.String("addr", r.server.Addr))
	return r.server.ListenAndServe()
}

// Stop останавливает приемник пульса
func (r *Receiver) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	r.logger.Info("Stopping heart rate receiver")
	return r.server.Shutdown(ctx)
}

// Samples возвращает канал сэмплов пульса
func (r *Receiver) Samples() <-chan Sample {
	return r.samples
}

// samplePayload представляет тело запроса с сэмплом пульса
type samplePayload struct {
	BPM int `json:"bpm"`
}

// sampleHandler обрабатывает POST /sample
func (r *Receiver) sampleHandler(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var payload samplePayload
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if payload.BPM < 0 || (r.maxBPM > 0 && payload.BPM > r.maxBPM) {
		http.Error(w, "implausible bpm", http.StatusBadRequest)
		return
	}

	sample := Sample{BPM: payload.BPM, At: time.Now()}

	// Не блокируемся, если потребитель отстает - сэмпл просто теряется
	select {
	case r.samples <- sample:
	default:
		r.logger.Debug("Dropping heart rate sample, consumer is busy",
			zap.Int("bpm", payload.BPM))
	}

	w.WriteHeader(http.StatusAccepted)
}
