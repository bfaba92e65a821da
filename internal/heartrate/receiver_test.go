package heartrate

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pulsedj/internal/config"

	"go.uber.org/zap"
)

func newTestReceiver() *Receiver {
	return NewReceiver(config.HeartRateConfig{Port: "0", MaxPlausibleBPM: 230}, zap.NewNop())
}

func postSample(receiver *Receiver, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	receiver.sampleHandler(rec, httptest.NewRequest(http.MethodPost, "/sample", strings.NewReader(body)))
	return rec
}

func TestSampleAccepted(t *testing.T) {
	receiver := newTestReceiver()

	rec := postSample(receiver, `{"bpm":142}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}

	select {
	case sample := <-receiver.Samples():
		if sample.BPM != 142 {
			t.Errorf("sample bpm = %d, want 142", sample.BPM)
		}
		if sample.At.IsZero() {
			t.Error("sample timestamp should be filled")
		}
	default:
		t.Fatal("accepted sample should be delivered to the channel")
	}
}

func TestSampleValidation(t *testing.T) {
	receiver := newTestReceiver()

	tests := []struct {
		name     string
		body     string
		expected int
	}{
		{"negative bpm", `{"bpm":-5}`, http.StatusBadRequest},
		{"implausibly high bpm", `{"bpm":300}`, http.StatusBadRequest},
		{"at the plausibility bound", `{"bpm":230}`, http.StatusAccepted},
		{"zero bpm", `{"bpm":0}`, http.StatusAccepted},
		{"malformed body", `{bpm}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postSample(receiver, tt.body)
			if rec.Code != tt.expected {
				t.Errorf("status = %d, want %d", rec.Code, tt.expected)
			}
		})
	}
}

func TestSampleMethodNotAllowed(t *testing.T) {
	receiver := newTestReceiver()

	rec := httptest.NewRecorder()
	receiver.sampleHandler(rec, httptest.NewRequest(http.MethodGet, "/sample", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestSampleDroppedWhenConsumerBusy(t *testing.T) {
	receiver := newTestReceiver()

	// Заполняем буфер канала до отказа
	for i := 0; i < cap(receiver.samples); i++ {
		if rec := postSample(receiver, `{"bpm":120}`); rec.Code != http.StatusAccepted {
			t.Fatalf("sample %d rejected with %d", i, rec.Code)
		}
	}

	// Переполнение не должно блокировать и не должно быть ошибкой для моста
	rec := postSample(receiver, `{"bpm":125}`)
	if rec.Code != http.StatusAccepted {
		t.Errorf("overflow status = %d, want 202", rec.Code)
	}
	if len(receiver.samples) != cap(receiver.samples) {
		t.Errorf("channel length = %d, want full buffer %d", len(receiver.samples), cap(receiver.samples))
	}
}
