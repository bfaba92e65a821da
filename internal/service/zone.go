// Package service содержит бизнес-логику приложения.
package service

import (
	"pulsedj/internal/model"
)

// tempoBand описывает допустимый диапазон темпа для зоны
type tempoBand struct {
	Floor   int
	Ceiling int
	Offset  int
}

// tempoBands - диапазоны темпа по зонам нагрузки.
// Зоны 0-1 не порождают рекомендаций и диапазона не имеют.
var tempoBands = map[int]tempoBand{
	2: {Floor: 80, Ceiling: 140, Offset: 10},
	3: {Floor: 100, Ceiling: 160, Offset: 12},
	4: {Floor: 120, Ceiling: 180, Offset: 15},
	5: {Floor: 140, Ceiling: 210, Offset: 20},
}

// ZoneService вычисляет зону нагрузки и целевые параметры поиска.
// Все методы чистые, без ввода-вывода.
type ZoneService struct{}

// NewZoneService создает новый сервис зон
func NewZoneService() *ZoneService {
	return &ZoneService{}
}

// ZoneFor возвращает зону нагрузки для пульса как процента от максимума.
// Граничные проценты (ровно 50/60/70/80/90) попадают в старшую зону.
func (s *ZoneService) ZoneFor(bpm, maxHeartRate int) int {
	if maxHeartRate <= 0 {
		maxHeartRate = model.DefaultMaxHeartRate
	}
	if bpm < 0 {
		bpm = 0
	}

	percent := float64(bpm) / float64(maxHeartRate) * 100

	switch {
	case percent < 50:
		return 0
	case percent < 60:
		return 1
	case percent < 70:
		return 2
	case percent < 80:
		return 3
	case percent < 90:
		return 4
	default:
		return 5
	}
}

// GenresFor возвращает целевые жанры для зоны.
// Зоны 0-1 не имеют жанров: рекомендации для них подавляются.
func (s *ZoneService) GenresFor(zone int, settings *model.UserSettings) []string {
	switch zone {
	case 2, 3:
		return settings.SteadyGenres
	case 4, 5:
		return settings.ThresholdGenres
	}
	return nil
}

// TempoWindowFor возвращает окно темпа для зоны, центрированное на текущем пульсе.
// При неправдоподобно низком пульсе для зоны возвращается диапазон по умолчанию.
func (s *ZoneService) TempoWindowFor(zone, bpm int) model.TempoWindow {
	band, ok := tempoBands[zone]
	if !ok {
		return model.TempoWindow{}
	}

	if bpm < band.Floor {
		return model.TempoWindow{Start: band.Floor, End: band.Ceiling}
	}

	start := bpm - band.Offset
	end := bpm + band.Offset

	if start < band.Floor {
		start = band.Floor
	}
	if end > band.Ceiling {
		end = band.Ceiling
	}
	if start > end {
		start, end = end, start
	}

	return model.TempoWindow{Start: start, End: end}
}
