package service

import (
	"sync"
	"time"

	"pulsedj/internal/model"
)

// EventLog представляет ограниченный журнал событий рекомендаций.
// При превышении емкости самые старые записи вытесняются.
// Журнал служит только для диагностики.
type EventLog struct {
	mu       sync.Mutex
	capacity int
	events   []model.RecommendationEvent
}

// NewEventLog создает новый журнал событий
func NewEventLog(capacity int) *EventLog {
	if capacity < 1 {
		capacity = 1
	}
	return &EventLog{
		capacity: capacity,
	}
}

// Append добавляет событие в журнал, вытесняя самое старое при переполнении
func (l *EventLog) Append(event model.RecommendationEvent) {
	if event.At.IsZero() {
		event.At = time.Now()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.events = append(l.events, event)
	if len(l.events) > l.capacity {
		l.events = l.events[len(l.events)-l.capacity:]
	}
}

// Snapshot возвращает копию журнала, от старых событий к новым
func (l *EventLog) Snapshot() []model.RecommendationEvent {
	l.mu.Lock()
	defer l.mu.Unlock()

	snapshot := make([]model.RecommendationEvent, len(l.events))
	copy(snapshot, l.events)
	return snapshot
}

// Len возвращает число событий в журнале
func (l *EventLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}
