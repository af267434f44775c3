package vectorstore

import (
	"context"
	"math"
)

// Metadata ties an index entry back to its owning submission or
// reference document.
type Metadata struct {
	AssignmentID string `json:"assignment_id"`
	StudentID    string `json:"student_id"`
	SourceDocID  string `json:"source_doc_id"`
}

// Entry is one row of the index: a fixed-dimension vector plus the text
// it was derived from. IDs are unique; re-adding an ID replaces the
// previous entry.
type Entry struct {
	ID       string    `json:"id"`
	Vector   []float32 `json:"-"`
	Text     string    `json:"text"`
	Metadata Metadata  `json:"metadata"`
}

type Match struct {
	ID    string  `json:"id"`
	Score float32 `json:"score"`
}

// Index is a durable similarity index. Upsert either fully replaces an
// entry or fails as a whole; QueryBySimilarity exists for audit and
// retrieval use, not for the grading math itself.
type Index interface {
	Upsert(ctx context.Context, entry Entry) error
	QueryBySimilarity(ctx context.Context, vector []float32, k int) ([]Match, error)
	Get(ctx context.Context, id string) (*Entry, error)
	Close() error
}

// CosineSimilarity computes the cosine of the angle between two vectors,
// in [-1, 1]. Mismatched lengths or a zero vector yield 0.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float32
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}
