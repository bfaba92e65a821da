package service

import (
	"context"
	"errors"
	"testing"

	"pulsedj/internal/model"

	"go.uber.org/zap"
)

func TestDedupKey(t *testing.T) {
	tests := []struct {
		name  string
		a     model.Track
		b     model.Track
		equal bool
	}{
		{
			name:  "radio edit equals original",
			a:     makeTrack("1", "Levels - Radio Edit", "Avicii"),
			b:     makeTrack("2", "Levels", "Avicii"),
			equal: true,
		},
		{
			name:  "extended mix equals original",
			a:     makeTrack("1", "Animals - Extended Mix", "Martin Garrix"),
			b:     makeTrack("2", "Animals", "Martin Garrix"),
			equal: true,
		},
		{
			name:  "case insensitive",
			a:     makeTrack("1", "STRObe", "deadmau5"),
			b:     makeTrack("2", "Strobe", "Deadmau5"),
			equal: true,
		},
		{
			name:  "diacritics folded",
			a:     makeTrack("1", "Música", "Ércola"),
			b:     makeTrack("2", "Musica", "Ercola"),
			equal: true,
		},
		{
			name:  "whitespace trimmed",
			a:     makeTrack("1", "  One More Time ", "Daft Punk"),
			b:     makeTrack("2", "One More Time", "Daft Punk"),
			equal: true,
		},
		{
			name:  "only one suffix stripped",
			a:     makeTrack("1", "Song - Remix - Radio Edit", "Artist"),
			b:     makeTrack("2", "Song", "Artist"),
			equal: false,
		},
		{
			name:  "different artists differ",
			a:     makeTrack("1", "Titanium", "David Guetta"),
			b:     makeTrack("2", "Titanium", "Sia"),
			equal: false,
		},
		{
			name:  "different titles differ",
			a:     makeTrack("1", "Levels", "Avicii"),
			b:     makeTrack("2", "Wake Me Up", "Avicii"),
			equal: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keyA := DedupKey(tt.a)
			keyB := DedupKey(tt.b)
			if (keyA == keyB) != tt.equal {
				t.Errorf("DedupKey equality = %v, want %v (%q vs %q)", keyA == keyB, tt.equal, keyA, keyB)
			}
		})
	}
}

func TestIsLocalDuplicate(t *testing.T) {
	catalog := newFakeCatalog()
	svc := NewDedupService(catalog, zap.NewNop())

	current := makeTrack("cur", "Current Song", "Artist A")
	queue := []model.Track{makeTrack("q1", "Queued Song", "Artist B")}

	if svc.IsLocalDuplicate(makeTrack("new", "Fresh Song", "Artist C"), &current, queue) {
		t.Error("fresh track should not be a duplicate")
	}

	if !svc.IsLocalDuplicate(makeTrack("cur", "Current Song", "Artist A"), &current, queue) {
		t.Error("current track should be a duplicate by id")
	}

	if !svc.IsLocalDuplicate(makeTrack("other", "Current Song - Radio Edit", "Artist A"), &current, queue) {
		t.Error("current track should be a duplicate by normalized key")
	}

	if !svc.IsLocalDuplicate(makeTrack("q1", "Queued Song", "Artist B"), &current, queue) {
		t.Error("queued track should be a duplicate")
	}

	used := makeTrack("used", "Played Song", "Artist D")
	svc.MarkUsed(used)

	if !svc.IsLocalDuplicate(makeTrack("reissue", "Played Song", "Artist D"), &current, queue) {
		t.Error("session history should match by normalized key, not id")
	}
}

func TestIsDuplicateRecentlyPlayed(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.recent = []model.Track{makeTrack("r1", "Recent Song", "Artist E")}

	svc := NewDedupService(catalog, zap.NewNop())
	ctx := context.Background()

	dup, err := svc.IsDuplicate(ctx, makeTrack("r1", "Recent Song", "Artist E"), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !dup {
		t.Error("recently played track should be a duplicate")
	}

	dup, err = svc.IsDuplicate(ctx, makeTrack("other", "Recent Song - Remastered", "Artist E"), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !dup {
		t.Error("recently played track should match by normalized key")
	}

	dup, err = svc.IsDuplicate(ctx, makeTrack("new", "Fresh Song", "Artist F"), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dup {
		t.Error("fresh track should not be a duplicate")
	}
}

func TestIsDuplicateSkipsNetworkOnLocalHit(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.recentErr = errors.New("network down")

	svc := NewDedupService(catalog, zap.NewNop())
	svc.MarkUsed(makeTrack("used", "Used Song", "Artist"))

	dup, err := svc.IsDuplicate(context.Background(), makeTrack("used", "Used Song", "Artist"), nil, nil)
	if err != nil {
		t.Fatalf("local hit must not touch the network: %v", err)
	}
	if !dup {
		t.Error("session history track should be a duplicate")
	}
	if catalog.recentCalls != 0 {
		t.Errorf("recently played was called %d times, want 0", catalog.recentCalls)
	}
}

func TestIsDuplicateNetworkError(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.recentErr = errors.New("network down")

	svc := NewDedupService(catalog, zap.NewNop())

	_, err := svc.IsDuplicate(context.Background(), makeTrack("new", "Fresh Song", "Artist"), nil, nil)
	if err == nil {
		t.Fatal("expected error when recently played is unavailable")
	}
}

func TestMarkUsedHistory(t *testing.T) {
	svc := NewDedupService(newFakeCatalog(), zap.NewNop())

	if svc.HistorySize() != 0 {
		t.Fatalf("new service history size = %d, want 0", svc.HistorySize())
	}

	svc.MarkUsed(makeTrack("1", "Song A", "Artist"))
	svc.MarkUsed(makeTrack("2", "Song B", "Artist"))
	// Та же идентичность, другой релиз
	svc.MarkUsed(makeTrack("3", "Song A - Radio Edit", "Artist"))

	if svc.HistorySize() != 2 {
		t.Errorf("history size = %d, want 2", svc.HistorySize())
	}
}
