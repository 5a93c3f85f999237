package reader

import "testing"

func whiteSamples() [][]int {
	return [][]int{
		{255, 255, 255, 255},
		{255, 255, 255, 255},
		{250, 250, 250, 255},
	}
}

func inkedSamples() [][]int {
	return [][]int{
		{255, 255, 255, 255},
		{20, 20, 20, 255},
		{255, 255, 255, 255},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cand candidate
		want bool
	}{
		{
			name: "nothing found",
			cand: candidate{Found: false},
			want: false,
		},
		{
			name: "complete large image accepted",
			cand: candidate{Found: true, Kind: KindImage, Width: 2000, Height: 2600, Complete: true},
			want: true,
		},
		{
			name: "incomplete image rejected",
			cand: candidate{Found: true, Kind: KindImage, Width: 2000, Height: 2600, Complete: false},
			want: false,
		},
		{
			name: "image with placeholder dimensions rejected",
			cand: candidate{Found: true, Kind: KindImage, Width: 8, Height: 2600, Complete: true},
			want: false,
		},
		{
			name: "all near-white canvas rejected",
			cand: candidate{Found: true, Kind: KindCanvas, Width: 2000, Height: 2600, Samples: whiteSamples()},
			want: false,
		},
		{
			name: "inked canvas accepted",
			cand: candidate{Found: true, Kind: KindCanvas, Width: 2000, Height: 2600, Samples: inkedSamples()},
			want: true,
		},
		{
			name: "transparent canvas rejected",
			cand: candidate{Found: true, Kind: KindCanvas, Width: 2000, Height: 2600,
				Samples: [][]int{{0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 2}}},
			want: false,
		},
		{
			name: "unreadable canvas samples accepted on dimensions",
			cand: candidate{Found: true, Kind: KindCanvas, Width: 2000, Height: 2600, Samples: nil},
			want: true,
		},
		{
			name: "background div needs only a real bounding box",
			cand: candidate{Found: true, Kind: KindBackground, Width: 1800, Height: 2400},
			want: true,
		},
		{
			name: "tiny background div rejected",
			cand: candidate{Found: true, Kind: KindBackground, Width: 10, Height: 10},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := validate(tt.cand); got != tt.want {
				t.Errorf("validate(%+v) = %v, want %v", tt.cand, got, tt.want)
			}
		})
	}
}

func TestToSamples_SkipsMalformed(t *testing.T) {
	raw := [][]int{
		{1, 2, 3, 4},
		{9, 9}, // too short, dropped
		{5, 6, 7, 8},
	}
	got := toSamples(raw)
	if len(got) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(got))
	}
	if got[0] != (Sample{1, 2, 3, 4}) || got[1] != (Sample{5, 6, 7, 8}) {
		t.Errorf("unexpected samples: %+v", got)
	}
}
