package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"pulsedj/internal/external/analysis"
	"pulsedj/internal/model"

	"go.uber.org/zap"
)

func newFallbackService(proxy *fakeProxy, catalog *fakeCatalog, maxPollAttempts int) (*FallbackService, *int) {
	logger := zap.NewNop()
	svc := NewFallbackService(proxy, catalog, NewDedupService(catalog, logger), time.Millisecond, maxPollAttempts, logger)

	sleeps := 0
	svc.sleep = func(context.Context, time.Duration) error {
		sleeps++
		return nil
	}
	return svc, &sleeps
}

func testRequest() model.RecommendationRequest {
	return model.RecommendationRequest{
		SeedTrackID: "seed",
		Zone:        3,
		BPM:         140,
		Tempo:       model.TempoWindow{Start: 128, End: 152},
		Genres:      []string{"house"},
	}
}

func TestFallbackImmediateSuccess(t *testing.T) {
	catalog := newFakeCatalog()
	proxy := &fakeProxy{responses: []analysis.Response{
		{Status: analysis.StatusSuccess, TrackIDs: []string{"c1", "c2"}},
	}}

	svc, sleeps := newFallbackService(proxy, catalog, 60)

	track, err := svc.FindTrack(context.Background(), testRequest(), nil, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if track.ID != "c1" {
		t.Errorf("picked %q, want first candidate c1", track.ID)
	}
	if proxy.calls != 1 {
		t.Errorf("proxy called %d times, want 1", proxy.calls)
	}
	if *sleeps != 0 {
		t.Errorf("slept %d times, want 0", *sleeps)
	}
}

func TestFallbackPollsUntilSuccess(t *testing.T) {
	catalog := newFakeCatalog()
	proxy := &fakeProxy{responses: []analysis.Response{
		{Status: analysis.StatusAnalyzing},
		{Status: analysis.StatusAnalyzing},
		{Status: analysis.StatusSuccess, TrackIDs: []string{"c1"}},
	}}

	svc, sleeps := newFallbackService(proxy, catalog, 60)

	var states []model.RequestState
	notify := func(state model.RequestState, _ string) {
		states = append(states, state)
	}

	track, err := svc.FindTrack(context.Background(), testRequest(), nil, nil, notify)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if track.ID != "c1" {
		t.Errorf("picked %q, want c1", track.ID)
	}
	if proxy.calls != 3 {
		t.Errorf("proxy called %d times, want 3", proxy.calls)
	}
	if *sleeps != 2 {
		t.Errorf("slept %d times, want 2", *sleeps)
	}

	expected := []model.RequestState{
		model.StateAnalyzing,
		model.StatePolling,
		model.StatePolling,
	}
	if len(states) != len(expected) {
		t.Fatalf("notified states = %v, want %v", states, expected)
	}
	for i := range expected {
		if states[i] != expected[i] {
			t.Errorf("state[%d] = %v, want %v", i, states[i], expected[i])
		}
	}
}

func TestFallbackPollBound(t *testing.T) {
	catalog := newFakeCatalog()
	proxy := &fakeProxy{responses: []analysis.Response{{Status: analysis.StatusAnalyzing}}}

	svc, _ := newFallbackService(proxy, catalog, 3)

	_, err := svc.FindTrack(context.Background(), testRequest(), nil, nil, nil)
	if !errors.Is(err, ErrAnalysisTimeout) {
		t.Fatalf("error = %v, want ErrAnalysisTimeout", err)
	}
	if proxy.calls != 4 {
		t.Errorf("proxy called %d times, want 4 (3 allowed polls plus the terminating one)", proxy.calls)
	}
}

func TestFallbackProxyError(t *testing.T) {
	catalog := newFakeCatalog()
	proxy := &fakeProxy{responses: []analysis.Response{
		{Status: analysis.StatusError, Error: "upstream rejected track"},
	}}

	svc, _ := newFallbackService(proxy, catalog, 60)

	var states []model.RequestState
	_, err := svc.FindTrack(context.Background(), testRequest(), nil, nil, func(state model.RequestState, _ string) {
		states = append(states, state)
	})
	if err == nil {
		t.Fatal("expected terminal error")
	}
	if len(states) != 1 || states[0] != model.StateError {
		t.Errorf("notified states = %v, want single ERROR", states)
	}
}

func TestFallbackUnknownStatusTerminal(t *testing.T) {
	catalog := newFakeCatalog()
	proxy := &fakeProxy{responses: []analysis.Response{{Status: "banana"}}}

	svc, sleeps := newFallbackService(proxy, catalog, 60)

	_, err := svc.FindTrack(context.Background(), testRequest(), nil, nil, nil)
	if !errors.Is(err, analysis.ErrBadResponse) {
		t.Fatalf("error = %v, want ErrBadResponse", err)
	}
	if proxy.calls != 1 {
		t.Errorf("proxy called %d times, want 1 (unknown status must not re-poll)", proxy.calls)
	}
	if *sleeps != 0 {
		t.Errorf("slept %d times, want 0", *sleeps)
	}
}

func TestFallbackTransportError(t *testing.T) {
	catalog := newFakeCatalog()
	proxy := &fakeProxy{err: errors.New("connection refused")}

	svc, _ := newFallbackService(proxy, catalog, 60)

	_, err := svc.FindTrack(context.Background(), testRequest(), nil, nil, nil)
	if err == nil {
		t.Fatal("expected error on transport failure")
	}
	if proxy.calls != 1 {
		t.Errorf("proxy called %d times, want 1 (no retries on transport errors)", proxy.calls)
	}
}

func TestFallbackAllDuplicates(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.tracks["c1"] = makeTrack("c1", "Candidate One", "Artist A")
	proxy := &fakeProxy{responses: []analysis.Response{
		{Status: analysis.StatusSuccess, TrackIDs: []string{"c1"}},
	}}

	svc, _ := newFallbackService(proxy, catalog, 60)
	// Единственный кандидат уже использован в этой сессии
	svc.dedup.MarkUsed(catalog.tracks["c1"])

	_, err := svc.FindTrack(context.Background(), testRequest(), nil, nil, nil)
	if !errors.Is(err, ErrAllDuplicates) {
		t.Errorf("error = %v, want ErrAllDuplicates", err)
	}
}

func TestFallbackEmptyCandidatesAllDuplicates(t *testing.T) {
	catalog := newFakeCatalog()
	proxy := &fakeProxy{responses: []analysis.Response{
		{Status: analysis.StatusSuccess, TrackIDs: nil},
	}}

	svc, _ := newFallbackService(proxy, catalog, 60)

	_, err := svc.FindTrack(context.Background(), testRequest(), nil, nil, nil)
	if !errors.Is(err, ErrAllDuplicates) {
		t.Errorf("error = %v, want ErrAllDuplicates", err)
	}
}

func TestFallbackSkipsDuplicateCandidates(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.tracks["c1"] = makeTrack("c1", "Used Song", "Artist A")
	catalog.tracks["c2"] = makeTrack("c2", "Fresh Song", "Artist B")
	proxy := &fakeProxy{responses: []analysis.Response{
		{Status: analysis.StatusSuccess, TrackIDs: []string{"c1", "c2"}},
	}}

	svc, _ := newFallbackService(proxy, catalog, 60)
	svc.dedup.MarkUsed(catalog.tracks["c1"])

	track, err := svc.FindTrack(context.Background(), testRequest(), nil, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if track.ID != "c2" {
		t.Errorf("picked %q, want first non-duplicate c2", track.ID)
	}
}

func TestFallbackCancelledDuringPoll(t *testing.T) {
	catalog := newFakeCatalog()
	proxy := &fakeProxy{responses: []analysis.Response{{Status: analysis.StatusAnalyzing}}}

	logger := zap.NewNop()
	svc := NewFallbackService(proxy, catalog, NewDedupService(catalog, logger), time.Millisecond, 60, logger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.FindTrack(ctx, testRequest(), nil, nil, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
