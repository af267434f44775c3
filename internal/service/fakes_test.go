package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/AspiringPianist/geni-backend/internal/embedding"
	"github.com/AspiringPianist/geni-backend/internal/genai"
	"github.com/AspiringPianist/geni-backend/internal/models"
	"github.com/AspiringPianist/geni-backend/internal/vectorstore"
)

// fakeSubmissionRepo keeps submissions in memory in insertion order.
type fakeSubmissionRepo struct {
	mu          sync.Mutex
	order       []string
	submissions map[string]*models.Submission
}

func newFakeSubmissionRepo(subs ...*models.Submission) *fakeSubmissionRepo {
	repo := &fakeSubmissionRepo{submissions: make(map[string]*models.Submission)}
	for _, s := range subs {
		copied := *s
		repo.order = append(repo.order, s.ID)
		repo.submissions[s.ID] = &copied
	}
	return repo
}

func (r *fakeSubmissionRepo) Create(ctx context.Context, submission *models.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *submission
	r.order = append(r.order, submission.ID)
	r.submissions[submission.ID] = &copied
	return nil
}

func (r *fakeSubmissionRepo) GetByID(ctx context.Context, id string) (*models.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.submissions[id]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (r *fakeSubmissionRepo) GetByAssignmentID(ctx context.Context, assignmentID string) ([]models.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Submission
	for _, id := range r.order {
		if s := r.submissions[id]; s.AssignmentID == assignmentID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeSubmissionRepo) MarkGraded(ctx context.Context, id string, grade float64, feedback string, gradedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.submissions[id]
	if !ok {
		return fmt.Errorf("submission %s not found", id)
	}
	s.Status = models.SubmissionStatusProcessed
	s.Grade = &grade
	s.Feedback = &feedback
	s.ErrorMessage = nil
	s.GradedAt = &gradedAt
	return nil
}

func (r *fakeSubmissionRepo) MarkError(ctx context.Context, id, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.submissions[id]
	if !ok {
		return fmt.Errorf("submission %s not found", id)
	}
	s.Status = models.SubmissionStatusError
	s.ErrorMessage = &message
	return nil
}

func (r *fakeSubmissionRepo) Ping(ctx context.Context) error { return nil }

type fakeQuestionRepo struct {
	questions map[string][]models.ReferenceQuestion
}

func (r *fakeQuestionRepo) GetByAssignmentID(ctx context.Context, assignmentID string) ([]models.ReferenceQuestion, error) {
	return r.questions[assignmentID], nil
}

func (r *fakeQuestionRepo) ReplaceForAssignment(ctx context.Context, assignmentID string, questions []models.ReferenceQuestion) error {
	if r.questions == nil {
		r.questions = make(map[string][]models.ReferenceQuestion)
	}
	r.questions[assignmentID] = questions
	return nil
}

func (r *fakeQuestionRepo) Ping(ctx context.Context) error { return nil }

// fakeEmbedder returns canned vectors per text and can be told to fail
// for specific texts. Unknown texts get a fixed fallback vector.
type fakeEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	failOn  map[string]bool
	calls   int
}

func (e *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.failOn[text] {
		return nil, fmt.Errorf("%w: backend unreachable", embedding.ErrEmbeddingFailure)
	}
	if v, ok := e.vectors[text]; ok {
		return v, nil
	}
	return []float32{1, 1, 1}, nil
}

func (e *fakeEmbedder) Dimension() int    { return 3 }
func (e *fakeEmbedder) ModelInfo() string { return "fake-embedder" }

func (e *fakeEmbedder) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

type fakeIndex struct {
	mu      sync.Mutex
	entries map[string]vectorstore.Entry
	failing bool
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{entries: make(map[string]vectorstore.Entry)}
}

func (i *fakeIndex) Upsert(ctx context.Context, entry vectorstore.Entry) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.failing {
		return fmt.Errorf("index unavailable")
	}
	i.entries[entry.ID] = entry
	return nil
}

func (i *fakeIndex) QueryBySimilarity(ctx context.Context, vector []float32, k int) ([]vectorstore.Match, error) {
	return nil, nil
}

func (i *fakeIndex) Get(ctx context.Context, id string) (*vectorstore.Entry, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if e, ok := i.entries[id]; ok {
		return &e, nil
	}
	return nil, nil
}

func (i *fakeIndex) Close() error { return nil }

type fakePublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *fakePublisher) Publish(ctx context.Context, exchange, routingKey string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, routingKey)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeEvaluator struct {
	evaluation *genai.Evaluation
	err        error
}

func (e *fakeEvaluator) Evaluate(ctx context.Context, questions []models.ReferenceQuestion, submissionText string) (*genai.Evaluation, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.evaluation, nil
}

func (e *fakeEvaluator) ModelInfo() string { return "fake-evaluator" }
