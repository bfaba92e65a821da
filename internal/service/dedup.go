package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"pulsedj/internal/external/spotify"
	"pulsedj/internal/model"

	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// versionSuffixes - суффиксы версий релиза, отбрасываемые при нормализации.
// Удаляется не более одного суффикса.
var versionSuffixes = []string{
	" - radio edit",
	" - extended mix",
	" - remix",
	" - remastered",
	" - acoustic",
	" - live",
	" - edit",
}

const recentlyPlayedLimit = 50

// DedupService проверяет кандидатов на дубликаты.
// История сессии хранится в памяти процесса и теряется при рестарте.
type DedupService struct {
	catalog spotify.Interface
	logger  *zap.Logger

	mu      sync.Mutex
	history map[string]struct{}
}

// NewDedupService создает новый сервис дедупликации
func NewDedupService(catalog spotify.Interface, logger *zap.Logger) *DedupService {
	return &DedupService{
		catalog: catalog,
		logger:  logger,
		history: make(map[string]struct{}),
	}
}

// DedupKey возвращает нормализованный ключ идентичности трека.
// Сырые идентификаторы каталога различаются между эквивалентными
// релизами (radio edit, remix), поэтому ключом служит пара
// нормализованное название + исполнители.
func DedupKey(track model.Track) string {
	title := normalizeTitle(track.Name)
	artists := strings.ToLower(foldDiacritics(strings.Join(track.ArtistNames(), ", ")))
	return title + "|" + artists
}

// normalizeTitle нормализует название трека: обрезает пробелы,
// удаляет один суффикс версии, сворачивает диакритику, приводит к нижнему регистру
func normalizeTitle(title string) string {
	result := strings.TrimSpace(title)

	lower := strings.ToLower(result)
	for _, suffix := range versionSuffixes {
		if strings.HasSuffix(lower, suffix) {
			result = result[:len(result)-len(suffix)]
			break
		}
	}

	result = foldDiacritics(result)

	return strings.ToLower(strings.TrimSpace(result))
}

// foldDiacritics удаляет диакритические знаки из строки
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

// IsLocalDuplicate проверяет кандидата против истории сессии,
// текущего трека и очереди плеера без сетевых вызовов
func (s *DedupService) IsLocalDuplicate(candidate model.Track, current *model.Track, queue []model.Track) bool {
	key := DedupKey(candidate)

	s.mu.Lock()
	_, inHistory := s.history[key]
	s.mu.Unlock()

	if inHistory {
		return true
	}

	if current != nil && (current.ID == candidate.ID || DedupKey(*current) == key) {
		return true
	}

	for _, queued := range queue {
		if queued.ID == candidate.ID || DedupKey(queued) == key {
			return true
		}
	}

	return false
}

// IsDuplicate проверяет кандидата против истории сессии, текущего трека,
// очереди плеера и недавно прослушанных. Сетевая проверка недавно
// прослушанных выполняется последней, только если локальные проверки прошли.
func (s *DedupService) IsDuplicate(ctx context.Context, candidate model.Track, current *model.Track, queue []model.Track) (bool, error) {
	if s.IsLocalDuplicate(candidate, current, queue) {
		return true, nil
	}

	key := DedupKey(candidate)

	recent, err := s.catalog.RecentlyPlayed(ctx, recentlyPlayedLimit)
	if err != nil {
		return false, fmt.Errorf("failed to check recently played: %w", err)
	}

	for _, track := range recent {
		// Один и тот же релиз может иметь несколько идентификаторов,
		// поэтому проверяем и точный id, и нормализованный ключ
		if track.ID == candidate.ID || DedupKey(track) == key {
			return true, nil
		}
	}

	return false, nil
}

// MarkUsed фиксирует трек в истории сессии.
// Вызывается до постановки в очередь, чтобы закрыть гонку
// между решением и постановкой.
func (s *DedupService) MarkUsed(track model.Track) {
	key := DedupKey(track)

	s.mu.Lock()
	s.history[key] = struct{}{}
	size := len(s.history)
	s.mu.Unlock()

	s.logger.Debug("Track marked in session history",
		zap.String("track", track.DisplayName()),
		zap.Int("history_size", size))
}

// HistorySize возвращает размер истории сессии
func (s *DedupService) HistorySize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}
