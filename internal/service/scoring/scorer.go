package scoring

import (
	"math"

	"github.com/AspiringPianist/geni-backend/internal/vectorstore"
)

// Band is the qualitative similarity tier used to pick canned feedback.
type Band string

const (
	BandHigh   Band = "high"
	BandMedium Band = "medium"
	BandLow    Band = "low"
)

// Fixed policy thresholds on raw cosine similarity. Kept as named
// constants so tests can pin the banding behavior.
const (
	HighSimilarityThreshold   float32 = 0.8
	MediumSimilarityThreshold float32 = 0.5
)

func (b Band) Feedback() string {
	switch b {
	case BandHigh:
		return "Good understanding shown"
	case BandMedium:
		return "Partial understanding shown"
	default:
		return "Review this topic"
	}
}

// Score maps the cosine similarity between a student answer vector and a
// reference vector onto [0, maxMarks]. Negative similarity clamps to zero
// points; there is no negative credit. Both vectors must already be at
// the index dimensionality.
func Score(student, reference []float32, maxMarks int) (int, Band) {
	similarity := vectorstore.CosineSimilarity(student, reference)

	clamped := similarity
	if clamped < 0 {
		clamped = 0
	} else if clamped > 1 {
		clamped = 1
	}

	points := int(math.Round(float64(clamped) * float64(maxMarks)))

	band := BandLow
	switch {
	case similarity > HighSimilarityThreshold:
		band = BandHigh
	case similarity > MediumSimilarityThreshold:
		band = BandMedium
	}

	return points, band
}
