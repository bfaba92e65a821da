package service

import (
	"testing"

	"go.uber.org/zap"
)

func TestNormalize(t *testing.T) {
	svc := NewGenreService(zap.NewNop())

	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{"canonical passes through", []string{"house"}, []string{"house"}},
		{"alias mapped", []string{"dnb"}, []string{"drum-and-bass"}},
		{"multi word alias", []string{"drum and bass"}, []string{"drum-and-bass"}},
		{"case and whitespace", []string{"  HOUSE "}, []string{"house"}},
		{"unknown dropped", []string{"house", "polka"}, []string{"house"}},
		{"all unknown gives empty", []string{"polka", "zydeco"}, []string{}},
		{"aliases collapse to one", []string{"rap", "trap", "hiphop"}, []string{"hip-hop"}},
		{"order preserved", []string{"pop", "house", "techno"}, []string{"pop", "house", "techno"}},
		{"empty input", nil, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.Normalize(tt.input)
			if len(got) != len(tt.expected) {
				t.Fatalf("Normalize(%v) = %v, want %v", tt.input, got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("Normalize(%v)[%d] = %q, want %q", tt.input, i, got[i], tt.expected[i])
				}
			}
		})
	}
}
