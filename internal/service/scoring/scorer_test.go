package scoring

import (
	"math"
	"testing"
)

func TestScore_IdenticalVectorsFullMarks(t *testing.T) {
	v := []float32{0.2, 0.5, 0.1, 0.7}

	points, band := Score(v, v, 50)

	if points != 50 {
		t.Errorf("points = %d, want 50", points)
	}
	if band != BandHigh {
		t.Errorf("band = %q, want %q", band, BandHigh)
	}
}

func TestScore_OppositeVectorsClampToZero(t *testing.T) {
	a := []float32{1, 0, 0}
	b := []float32{-1, 0, 0}

	points, band := Score(a, b, 100)

	if points != 0 {
		t.Errorf("points = %d, want 0", points)
	}
	if band != BandLow {
		t.Errorf("band = %q, want %q", band, BandLow)
	}
}

func TestScore_NeverNegative(t *testing.T) {
	vectors := [][2][]float32{
		{{1, 0}, {-1, 0}},
		{{1, 1}, {-1, -1}},
		{{0.5, -0.5}, {-0.5, 0.5}},
	}

	for _, pair := range vectors {
		points, _ := Score(pair[0], pair[1], 10)
		if points < 0 {
			t.Errorf("Score(%v, %v) = %d, want >= 0", pair[0], pair[1], points)
		}
	}
}

func TestScore_Bands(t *testing.T) {
	// Boundary cases use integer vectors whose cosine is exact in
	// float32: (4,3)·(1,0) gives 4/5 = 0.8, (1,1,1,1)·(1,0,0,0) gives
	// 1/2 = 0.5.
	tests := []struct {
		name     string
		a, b     []float32
		wantBand Band
	}{
		{"identical is high", []float32{1, 0}, []float32{1, 0}, BandHigh},
		{"just above high threshold", []float32{0.81, 0.5864}, []float32{1, 0}, BandHigh},
		{"at high threshold stays medium", []float32{4, 3}, []float32{1, 0}, BandMedium},
		{"mid band", []float32{0.65, 0.76}, []float32{1, 0}, BandMedium},
		{"at medium threshold stays low", []float32{1, 1, 1, 1}, []float32{1, 0, 0, 0}, BandLow},
		{"near zero", []float32{0.05, 1}, []float32{1, 0}, BandLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, band := Score(tt.a, tt.b, 10)
			if band != tt.wantBand {
				t.Errorf("Score(%v, %v): band = %q, want %q", tt.a, tt.b, band, tt.wantBand)
			}
		})
	}
}

func TestScore_Rounding(t *testing.T) {
	axis := []float32{1, 0}

	tests := []struct {
		similarity float32
		maxMarks   int
		wantPoints int
	}{
		{0.5, 50, 25},
		{0.66, 10, 7},
		{0.24, 10, 2},
		{1.0, 3, 3},
	}

	for _, tt := range tests {
		s := tt.similarity
		v := []float32{s, float32(sqrt32(1 - s*s))}

		points, _ := Score(v, axis, tt.maxMarks)
		if points != tt.wantPoints {
			t.Errorf("similarity %v maxMarks %d: points = %d, want %d", s, tt.maxMarks, points, tt.wantPoints)
		}
	}
}

func TestScore_FeedbackText(t *testing.T) {
	tests := []struct {
		band Band
		want string
	}{
		{BandHigh, "Good understanding shown"},
		{BandMedium, "Partial understanding shown"},
		{BandLow, "Review this topic"},
	}

	for _, tt := range tests {
		if got := tt.band.Feedback(); got != tt.want {
			t.Errorf("%q.Feedback() = %q, want %q", tt.band, got, tt.want)
		}
	}
}

func sqrt32(x float32) float64 {
	if x < 0 {
		return 0
	}
	return math.Sqrt(float64(x))
}
