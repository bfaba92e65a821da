// Package proxy реализует сервер analysis proxy.
package proxy

import (
	"sync"
	"time"

	"pulsedj/internal/model"
)

// cacheEntry представляет запись кэша с моментом записи
type cacheEntry struct {
	record   model.AnalysisRecord
	storedAt time.Time
}

// Cache представляет ограниченный TTL кэш записей анализа.
// Часы инжектируются, чтобы истечение и вытеснение были тестируемыми.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]cacheEntry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// NewCache создает новый кэш записей анализа
func NewCache(ttl time.Duration, maxEntries int, now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &Cache{
		entries:    make(map[string]cacheEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        now,
	}
}

// Get возвращает запись анализа, если она есть и не истекла
func (c *Cache) Get(trackID string) (*model.AnalysisRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[trackID]
	if !ok {
		return nil, false
	}

	if c.ttl > 0 && c.now().Sub(entry.storedAt) > c.ttl {
		delete(c.entries, trackID)
		return nil, false
	}

	record := entry.record
	return &record, true
}

// Set сохраняет запись анализа, вытесняя самую старую при переполнении
func (c *Cache) Set(record model.AnalysisRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[record.TrackID]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}

	c.entries[record.TrackID] = cacheEntry{
		record:   record,
		storedAt: c.now(),
	}
}

// evictOldestLocked удаляет самую старую запись; вызывается под мьютексом
func (c *Cache) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time

	for key, entry := range c.entries {
		if oldestKey == "" || entry.storedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.storedAt
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// Len возвращает число записей в кэше
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
