package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/AspiringPianist/geni-backend/internal/embedding"
	"github.com/AspiringPianist/geni-backend/internal/models"
	"github.com/AspiringPianist/geni-backend/internal/repository"
	"github.com/AspiringPianist/geni-backend/internal/storage"
	"github.com/AspiringPianist/geni-backend/internal/vectorstore"
	"github.com/AspiringPianist/geni-backend/internal/worker/queue"
)

type SubmissionService interface {
	Create(ctx context.Context, req models.CreateSubmissionRequest) (*models.Submission, error)
	Get(ctx context.Context, submissionID string) (*models.Submission, error)
	RegisterQuestions(ctx context.Context, assignmentID string, reqs []models.CreateQuestionRequest) (int, error)
	ListQuestions(ctx context.Context, assignmentID string) ([]models.ReferenceQuestion, error)
	Ping(ctx context.Context) error
}

type SubmissionConfig struct {
	Exchange   string
	RoutingKey string
}

type submissionService struct {
	submissionRepo repository.SubmissionRepository
	questionRepo   repository.QuestionRepository
	embedder       embedding.Embedder
	index          vectorstore.Index       // optional
	blobStore      storage.ObjectStorage   // optional
	publisher      queue.RabbitMQPublisher // optional
	logger         zerolog.Logger
	config         SubmissionConfig
}

func NewSubmissionService(
	submissionRepo repository.SubmissionRepository,
	questionRepo repository.QuestionRepository,
	embedder embedding.Embedder,
	index vectorstore.Index,
	blobStore storage.ObjectStorage,
	publisher queue.RabbitMQPublisher,
	logger zerolog.Logger,
	config SubmissionConfig,
) SubmissionService {
	return &submissionService{
		submissionRepo: submissionRepo,
		questionRepo:   questionRepo,
		embedder:       embedder,
		index:          index,
		blobStore:      blobStore,
		publisher:      publisher,
		logger:         logger,
		config:         config,
	}
}

// Create stores a new submission: raw file to blob storage, text and
// identifiers to the database, vector to the similarity index, then a
// submission.created event. Only the database write is load-bearing;
// blob, index and event failures are logged and do not fail the upload.
func (s *submissionService) Create(ctx context.Context, req models.CreateSubmissionRequest) (*models.Submission, error) {
	if req.AssignmentID == "" || req.StudentID == "" {
		return nil, fmt.Errorf("assignment_id and student_id are required")
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("%w: nothing to grade", ErrEmptySubmissionText)
	}

	now := time.Now().UTC()
	submission := &models.Submission{
		ID:           uuid.New().String(),
		AssignmentID: req.AssignmentID,
		StudentID:    req.StudentID,
		RawText:      req.Text,
		Status:       models.SubmissionStatusPending,
		SubmittedAt:  now,
		UpdatedAt:    now,
	}

	if s.blobStore != nil && req.FileName != "" {
		key := fmt.Sprintf("%s/%s/%s", req.AssignmentID, submission.ID, req.FileName)
		err := s.blobStore.Put(ctx, key, strings.NewReader(req.Text), int64(len(req.Text)), "text/plain")
		if err != nil {
			s.logger.Warn().
				Err(err).
				Str("submission_id", submission.ID).
				Msg("Failed to store submission file, keeping text only")
		} else {
			submission.FileKey = &key
		}
	}

	if err := s.submissionRepo.Create(ctx, submission); err != nil {
		return nil, fmt.Errorf("failed to store submission: %w", err)
	}

	s.indexSubmission(ctx, submission)
	s.publishCreated(ctx, submission)

	s.logger.Info().
		Str("submission_id", submission.ID).
		Str("assignment_id", submission.AssignmentID).
		Str("student_id", submission.StudentID).
		Msg("Submission stored")

	return submission, nil
}

func (s *submissionService) Get(ctx context.Context, submissionID string) (*models.Submission, error) {
	submission, err := s.submissionRepo.GetByID(ctx, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load submission: %w", err)
	}
	if submission == nil {
		return nil, fmt.Errorf("%w: %s", ErrSubmissionNotFound, submissionID)
	}
	return submission, nil
}

func (s *submissionService) RegisterQuestions(ctx context.Context, assignmentID string, reqs []models.CreateQuestionRequest) (int, error) {
	if assignmentID == "" {
		return 0, fmt.Errorf("assignment_id is required")
	}
	if len(reqs) == 0 {
		return 0, fmt.Errorf("%w: assignment %s", ErrMalformedReferenceData, assignmentID)
	}

	now := time.Now().UTC()
	questions := make([]models.ReferenceQuestion, 0, len(reqs))
	for i, req := range reqs {
		if strings.TrimSpace(req.QuestionText) == "" {
			return 0, fmt.Errorf("question %d has no text", i+1)
		}
		if req.MaxMarks < 0 {
			return 0, fmt.Errorf("question %d has negative max marks", i+1)
		}

		questions = append(questions, models.ReferenceQuestion{
			ID:              uuid.New().String(),
			AssignmentID:    assignmentID,
			Position:        i + 1,
			QuestionText:    req.QuestionText,
			ReferenceAnswer: req.ReferenceAnswer,
			MaxMarks:        req.MaxMarks,
			MarkingScheme:   req.MarkingScheme,
			CreatedAt:       now,
		})
	}

	if err := s.questionRepo.ReplaceForAssignment(ctx, assignmentID, questions); err != nil {
		return 0, fmt.Errorf("failed to store reference questions: %w", err)
	}

	s.logger.Info().
		Str("assignment_id", assignmentID).
		Int("questions", len(questions)).
		Msg("Reference questions registered")

	return len(questions), nil
}

func (s *submissionService) ListQuestions(ctx context.Context, assignmentID string) ([]models.ReferenceQuestion, error) {
	return s.questionRepo.GetByAssignmentID(ctx, assignmentID)
}

func (s *submissionService) Ping(ctx context.Context) error {
	return s.submissionRepo.Ping(ctx)
}

// indexSubmission writes the submission vector to the similarity index.
// Best-effort: an index write failure never rolls back the database row.
func (s *submissionService) indexSubmission(ctx context.Context, submission *models.Submission) {
	if s.index == nil {
		return
	}

	raw, err := s.embedder.Embed(ctx, submission.RawText)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("submission_id", submission.ID).
			Msg("Failed to embed submission for indexing")
		return
	}

	entry := vectorstore.Entry{
		ID:     submission.ID,
		Vector: embedding.Normalize(raw, embedding.IndexDimension),
		Text:   submission.RawText,
		Metadata: vectorstore.Metadata{
			AssignmentID: submission.AssignmentID,
			StudentID:    submission.StudentID,
			SourceDocID:  submission.ID,
		},
	}

	if err := s.index.Upsert(ctx, entry); err != nil {
		s.logger.Warn().
			Err(err).
			Str("submission_id", submission.ID).
			Msg("Failed to index submission vector")
	}
}

func (s *submissionService) publishCreated(ctx context.Context, submission *models.Submission) {
	if s.publisher == nil {
		return
	}

	event := models.SubmissionCreatedEvent{
		SubmissionID: submission.ID,
		AssignmentID: submission.AssignmentID,
		StudentID:    submission.StudentID,
		Timestamp:    submission.SubmittedAt.Unix(),
	}

	body, err := json.Marshal(event)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to marshal submission created event")
		return
	}

	if err := s.publisher.Publish(ctx, s.config.Exchange, s.config.RoutingKey, body); err != nil {
		s.logger.Error().Err(err).Msg("Failed to publish submission created event")
	}
}
