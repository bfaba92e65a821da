package service

import (
	"strings"

	"go.uber.org/zap"
)

// genreAliases отображает свободные пользовательские жанры
// в словарь жанров провайдера каталога
var genreAliases = map[string]string{
	"hip-hop":       "hip-hop",
	"hiphop":        "hip-hop",
	"hip hop":       "hip-hop",
	"rap":           "hip-hop",
	"trap":          "hip-hop",
	"r&b":           "r-n-b",
	"rnb":           "r-n-b",
	"r-n-b":         "r-n-b",
	"soul":          "soul",
	"house":         "house",
	"deep house":    "deep-house",
	"deep-house":    "deep-house",
	"techno":        "techno",
	"trance":        "trance",
	"edm":           "edm",
	"electronic":    "electronic",
	"electronica":   "electronic",
	"dance":         "dance",
	"dnb":           "drum-and-bass",
	"drum and bass": "drum-and-bass",
	"drum-and-bass": "drum-and-bass",
	"drum n bass":   "drum-and-bass",
	"dubstep":       "dubstep",
	"pop":           "pop",
	"rock":          "rock",
	"hard rock":     "hard-rock",
	"hard-rock":     "hard-rock",
	"metal":         "metal",
	"heavy metal":   "heavy-metal",
	"punk":          "punk",
	"indie":         "indie",
	"alternative":   "alternative",
	"latin":         "latin",
	"reggaeton":     "reggaeton",
	"funk":          "funk",
	"disco":         "disco",
	"country":       "country",
	"k-pop":         "k-pop",
	"kpop":          "k-pop",
	"afrobeats":     "afrobeat",
	"afrobeat":      "afrobeat",
}

// GenreService нормализует пользовательские жанры к словарю провайдера
type GenreService struct {
	logger *zap.Logger
}

// NewGenreService создает новый сервис жанров
func NewGenreService(logger *zap.Logger) *GenreService {
	return &GenreService{logger: logger}
}

// Normalize отображает жанры в словарь провайдера.
// Неизвестные жанры молча отбрасываются; пустой результат
// означает, что пайплайн должен тихо пропустить этот цикл.
func (s *GenreService) Normalize(genres []string) []string {
	seen := make(map[string]struct{}, len(genres))
	normalized := make([]string, 0, len(genres))

	for _, genre := range genres {
		key := strings.ToLower(strings.TrimSpace(genre))
		mapped, ok := genreAliases[key]
		if !ok {
			s.logger.Debug("Dropping unmapped genre", zap.String("genre", genre))
			continue
		}
		if _, dup := seen[mapped]; dup {
			continue
		}
		seen[mapped] = struct{}{}
		normalized = append(normalized, mapped)
	}

	return normalized
}
