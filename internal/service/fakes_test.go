package service

import (
	"context"
	"errors"

	"pulsedj/internal/external/analysis"
	"pulsedj/internal/external/spotify"
	"pulsedj/internal/model"
)

// fakeCatalog реализует spotify.Interface для тестов
type fakeCatalog struct {
	playlists      []model.Playlist
	searchErr      error
	searchCalls    int
	playlistTracks map[string][]model.Track
	playlistErrs   map[string]error
	tracks         map[string]model.Track
	recent         []model.Track
	recentErr      error
	recentCalls    int
	top            map[spotify.TopTracksRange][]model.Track
	current        *model.Track
	currentErr     error
	queue          []model.Track
	queued         []string
	queueTrackErr  error
}

var _ spotify.Interface = (*fakeCatalog)(nil)

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		playlistTracks: make(map[string][]model.Track),
		playlistErrs:   make(map[string]error),
		tracks:         make(map[string]model.Track),
		top:            make(map[spotify.TopTracksRange][]model.Track),
	}
}

func (f *fakeCatalog) SearchPlaylists(_ context.Context, _ string) ([]model.Playlist, error) {
	f.searchCalls++
	return f.playlists, f.searchErr
}

func (f *fakeCatalog) GetPlaylistTracks(_ context.Context, playlistID string) ([]model.Track, error) {
	if err, ok := f.playlistErrs[playlistID]; ok {
		return nil, err
	}
	return f.playlistTracks[playlistID], nil
}

func (f *fakeCatalog) GetTracks(_ context.Context, ids []string) ([]model.Track, error) {
	tracks := make([]model.Track, 0, len(ids))
	for _, id := range ids {
		if track, ok := f.tracks[id]; ok {
			tracks = append(tracks, track)
		} else {
			tracks = append(tracks, model.Track{ID: id, Name: "Track " + id})
		}
	}
	return tracks, nil
}

func (f *fakeCatalog) RecentlyPlayed(_ context.Context, _ int) ([]model.Track, error) {
	f.recentCalls++
	return f.recent, f.recentErr
}

func (f *fakeCatalog) TopTracks(_ context.Context, timeRange spotify.TopTracksRange, _ int) ([]model.Track, error) {
	return f.top[timeRange], nil
}

func (f *fakeCatalog) CurrentlyPlaying(_ context.Context) (*model.Track, error) {
	return f.current, f.currentErr
}

func (f *fakeCatalog) Queue(_ context.Context) ([]model.Track, error) {
	return f.queue, nil
}

func (f *fakeCatalog) QueueTrack(_ context.Context, trackID string) error {
	if f.queueTrackErr != nil {
		return f.queueTrackErr
	}
	f.queued = append(f.queued, trackID)
	return nil
}

// fakeProxy реализует analysis.Interface для тестов.
// Ответы выдаются по порядку; последний ответ повторяется.
type fakeProxy struct {
	responses []analysis.Response
	err       error
	calls     int
}

var _ analysis.Interface = (*fakeProxy)(nil)

func (f *fakeProxy) Analyze(_ context.Context, _ analysis.Request) (*analysis.Response, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.responses) == 0 {
		return nil, errors.New("fakeProxy has no responses")
	}
	idx := f.calls - 1
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	resp := f.responses[idx]
	return &resp, nil
}

// fakeSettings реализует model.SettingsRepository для тестов
type fakeSettings struct {
	settings *model.UserSettings
	err      error
}

var _ model.SettingsRepository = (*fakeSettings)(nil)

func (f *fakeSettings) Get() (*model.UserSettings, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.settings == nil {
		return model.DefaultSettings(), nil
	}
	return f.settings, nil
}

func (f *fakeSettings) Save(settings *model.UserSettings) error {
	f.settings = settings
	return nil
}

// fakeSampler реализует SamplerInterface; всегда выбирает первого кандидата
type fakeSampler struct {
	ensureErr   error
	ensureCalls int
}

var _ SamplerInterface = (*fakeSampler)(nil)

func (f *fakeSampler) EnsurePool(_ context.Context) error {
	f.ensureCalls++
	return f.ensureErr
}

func (f *fakeSampler) Rebuild(_ context.Context) error { return nil }

func (f *fakeSampler) IsFamiliar(_ model.Track) bool { return false }

func (f *fakeSampler) Score(track model.Track) float64 { return float64(track.Popularity) }

func (f *fakeSampler) Sample(candidates []model.Track) *model.Track {
	if len(candidates) == 0 {
		return nil
	}
	return &candidates[0]
}

// fakeSearch реализует SearchStageInterface для тестов оркестратора
type fakeSearch struct {
	track *model.Track
	err   error
	calls int
}

var _ SearchStageInterface = (*fakeSearch)(nil)

func (f *fakeSearch) FindTrack(_ context.Context, _ []string, _ *model.Track, _ []model.Track) (*model.Track, error) {
	f.calls++
	return f.track, f.err
}

// fakeFallback реализует FallbackStageInterface для тестов оркестратора.
// Ошибки выдаются по порядку; после их исчерпания возвращается track.
type fakeFallback struct {
	track *model.Track
	errs  []error
	calls int
}

var _ FallbackStageInterface = (*fakeFallback)(nil)

func (f *fakeFallback) FindTrack(_ context.Context, _ model.RecommendationRequest, _ *model.Track, _ []model.Track, _ func(state model.RequestState, detail string)) (*model.Track, error) {
	f.calls++
	if f.calls <= len(f.errs) {
		return nil, f.errs[f.calls-1]
	}
	if f.track == nil {
		return nil, errors.New("fakeFallback has no track")
	}
	return f.track, nil
}

// makeTrack создает трек с одним исполнителем
func makeTrack(id, name, artist string) model.Track {
	return model.Track{
		ID:   id,
		Name: name,
		Artists: []model.Artist{
			{ID: "artist-" + artist, Name: artist},
		},
	}
}
