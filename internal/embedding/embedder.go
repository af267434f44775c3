package embedding

import (
	"context"
	"errors"
)

// IndexDimension is the fixed dimensionality of every vector stored in or
// compared through the index. Raw model output is padded or truncated to
// this length before use; truncation is lossy and accepted as policy so
// that a model swap cannot silently change stored vector shapes.
const IndexDimension = 384

// ErrEmbeddingFailure marks any failure of the embedding backend:
// unreachable, timed out, or malformed output. The embedder itself never
// retries; retry policy belongs to the caller.
var ErrEmbeddingFailure = errors.New("embedding failure")

type Embedder interface {
	// Embed returns the model's raw vector for text. Callers are
	// responsible for rejecting empty input and for normalizing the
	// result to IndexDimension.
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
	ModelInfo() string
}
