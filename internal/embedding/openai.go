package embedding

import (
	"context"
	"fmt"
	"math"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

type OpenAIEmbedder struct {
	client  *openai.Client
	model   string
	dim     int
	timeout time.Duration
}

func NewOpenAIEmbedder(model string, timeout time.Duration) (*OpenAIEmbedder, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	dim := 1536 // native output of text-embedding-3-small
	if model == "text-embedding-3-large" {
		dim = 3072
	}

	return &OpenAIEmbedder{
		client:  openai.NewClient(key),
		model:   model,
		dim:     dim,
		timeout: timeout,
	}, nil
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if len(text) == 0 {
		return nil, fmt.Errorf("%w: cannot embed empty text", ErrEmbeddingFailure)
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailure, err)
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: no embedding data returned", ErrEmbeddingFailure)
	}

	vec := make([]float32, len(resp.Data[0].Embedding))
	copy(vec, resp.Data[0].Embedding)

	l2normalize(vec)

	return vec, nil
}

func (e *OpenAIEmbedder) Dimension() int {
	return e.dim
}

func (e *OpenAIEmbedder) ModelInfo() string {
	return "openai-" + e.model
}

// l2normalize scales a vector to unit length in place.
func l2normalize(v []float32) {
	var sum float32
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(float64(sum)))
	for i := range v {
		v[i] *= inv
	}
}
