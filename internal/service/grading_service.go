package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/AspiringPianist/geni-backend/internal/embedding"
	"github.com/AspiringPianist/geni-backend/internal/genai"
	"github.com/AspiringPianist/geni-backend/internal/models"
	"github.com/AspiringPianist/geni-backend/internal/repository"
	"github.com/AspiringPianist/geni-backend/internal/service/scoring"
	"github.com/AspiringPianist/geni-backend/internal/vectorstore"
	"github.com/AspiringPianist/geni-backend/internal/worker/queue"
)

type GradingService interface {
	ProcessAllSubmissions(ctx context.Context, assignmentID string) (*models.BatchResult, error)
	ProcessSubmission(ctx context.Context, submissionID string) (*models.GradingResult, error)
	GetSubmissionStatus(ctx context.Context, submissionID string) (*models.StatusRecord, error)
}

type GradingConfig struct {
	Exchange string
}

type gradingService struct {
	submissionRepo repository.SubmissionRepository
	questionRepo   repository.QuestionRepository
	embedder       embedding.Embedder
	index          vectorstore.Index       // optional, failures are non-fatal
	evaluator      genai.Evaluator         // optional secondary scoring path
	publisher      queue.RabbitMQPublisher // optional
	locks          *submissionLocks
	logger         zerolog.Logger
	config         GradingConfig
}

func NewGradingService(
	submissionRepo repository.SubmissionRepository,
	questionRepo repository.QuestionRepository,
	embedder embedding.Embedder,
	index vectorstore.Index,
	evaluator genai.Evaluator,
	publisher queue.RabbitMQPublisher,
	logger zerolog.Logger,
	config GradingConfig,
) GradingService {
	return &gradingService{
		submissionRepo: submissionRepo,
		questionRepo:   questionRepo,
		embedder:       embedder,
		index:          index,
		evaluator:      evaluator,
		publisher:      publisher,
		locks:          newSubmissionLocks(),
		logger:         logger,
		config:         config,
	}
}

// ProcessAllSubmissions grades every ungraded submission of an
// assignment. Submissions already processed are skipped unchanged, and a
// failure while grading one submission marks only that submission errored;
// the batch itself never fails for individual submissions.
func (s *gradingService) ProcessAllSubmissions(ctx context.Context, assignmentID string) (*models.BatchResult, error) {
	questions, err := s.questionRepo.GetByAssignmentID(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reference questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: assignment %s", ErrMalformedReferenceData, assignmentID)
	}

	submissions, err := s.submissionRepo.GetByAssignmentID(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load submissions: %w", err)
	}

	batch := &models.BatchResult{
		AssignmentID: assignmentID,
		Total:        len(submissions),
		Results:      make(map[string]models.SubmissionOutcome, len(submissions)),
	}

	for i := range submissions {
		submission := &submissions[i]

		if submission.Status == models.SubmissionStatusProcessed {
			outcome := models.SubmissionOutcome{
				SubmissionID: submission.ID,
				StudentID:    submission.StudentID,
				Status:       models.OutcomeSkipped,
				Grade:        submission.Grade,
			}
			if submission.Feedback != nil {
				outcome.Feedback = *submission.Feedback
			}
			batch.Results[submission.ID] = outcome
			batch.Skipped++
			continue
		}

		result, err := s.gradeSubmission(ctx, submission, questions)
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("submission_id", submission.ID).
				Str("assignment_id", assignmentID).
				Msg("Failed to grade submission")

			s.recordFailure(ctx, submission, err)

			batch.Results[submission.ID] = models.SubmissionOutcome{
				SubmissionID: submission.ID,
				StudentID:    submission.StudentID,
				Status:       models.OutcomeError,
				Error:        err.Error(),
			}
			batch.Failed++
			continue
		}

		grade := float64(result.TotalScore)
		batch.Results[submission.ID] = models.SubmissionOutcome{
			SubmissionID: submission.ID,
			StudentID:    submission.StudentID,
			Status:       models.OutcomeGraded,
			Grade:        &grade,
			Feedback:     result.Feedback,
		}
		batch.Graded++
	}

	batch.CompletedAt = time.Now().UTC()

	s.logger.Info().
		Str("assignment_id", assignmentID).
		Int("total", batch.Total).
		Int("graded", batch.Graded).
		Int("skipped", batch.Skipped).
		Int("failed", batch.Failed).
		Msg("Batch grading completed")

	return batch, nil
}

// ProcessSubmission grades one submission on demand, re-scoring it even
// if it was graded before.
func (s *gradingService) ProcessSubmission(ctx context.Context, submissionID string) (*models.GradingResult, error) {
	submission, err := s.submissionRepo.GetByID(ctx, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load submission: %w", err)
	}
	if submission == nil {
		return nil, fmt.Errorf("%w: %s", ErrSubmissionNotFound, submissionID)
	}

	questions, err := s.questionRepo.GetByAssignmentID(ctx, submission.AssignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reference questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: assignment %s", ErrMalformedReferenceData, submission.AssignmentID)
	}

	result, err := s.gradeSubmission(ctx, submission, questions)
	if err != nil {
		s.recordFailure(ctx, submission, err)
		return nil, err
	}

	return result, nil
}

func (s *gradingService) GetSubmissionStatus(ctx context.Context, submissionID string) (*models.StatusRecord, error) {
	submission, err := s.submissionRepo.GetByID(ctx, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load submission: %w", err)
	}
	if submission == nil {
		return nil, fmt.Errorf("%w: %s", ErrSubmissionNotFound, submissionID)
	}

	record := &models.StatusRecord{
		SubmissionID: submission.ID,
		AssignmentID: submission.AssignmentID,
		StudentID:    submission.StudentID,
		Status:       submission.Status,
		Grade:        submission.Grade,
		SubmittedAt:  submission.SubmittedAt,
		GradedAt:     submission.GradedAt,
	}
	if submission.Feedback != nil {
		record.Feedback = *submission.Feedback
	}
	if submission.ErrorMessage != nil {
		record.ErrorMessage = *submission.ErrorMessage
	}

	return record, nil
}

// gradeSubmission runs the scoring pipeline for one submission: split the
// text into per-question answers, embed answer and reference, score by
// similarity, aggregate, persist. Blank answers contribute zero points and
// no feedback line.
func (s *gradingService) gradeSubmission(ctx context.Context, submission *models.Submission, questions []models.ReferenceQuestion) (*models.GradingResult, error) {
	if strings.TrimSpace(submission.RawText) == "" {
		return nil, fmt.Errorf("%w: submission %s", ErrEmptySubmissionText, submission.ID)
	}

	answers := scoring.SplitAnswers(submission.RawText, len(questions))

	scores := make([]models.QuestionScore, 0, len(questions))
	lines := make([]string, 0, len(questions))
	totalScore := 0
	totalMax := 0

	for i, question := range questions {
		totalMax += question.MaxMarks

		answer := answers[i]
		if strings.TrimSpace(answer) == "" {
			scores = append(scores, models.QuestionScore{
				Position: question.Position,
				Points:   0,
				MaxMarks: question.MaxMarks,
			})
			continue
		}

		referenceText := question.ReferenceAnswer
		if strings.TrimSpace(referenceText) == "" {
			referenceText = question.QuestionText
		}

		answerVec, err := s.embedText(ctx, answer)
		if err != nil {
			return nil, fmt.Errorf("question %d answer: %w", question.Position, err)
		}

		referenceVec, err := s.embedText(ctx, referenceText)
		if err != nil {
			return nil, fmt.Errorf("question %d reference: %w", question.Position, err)
		}

		points, band := scoring.Score(answerVec, referenceVec, question.MaxMarks)
		line := fmt.Sprintf("Q%d (%d/%d): %s", question.Position, points, question.MaxMarks, band.Feedback())

		scores = append(scores, models.QuestionScore{
			Position: question.Position,
			Points:   points,
			MaxMarks: question.MaxMarks,
			Feedback: line,
		})
		lines = append(lines, line)
		totalScore += points
	}

	feedback := strings.Join(lines, "\n")

	if s.evaluator != nil {
		evaluation, err := s.evaluator.Evaluate(ctx, questions, submission.RawText)
		if err != nil {
			return nil, fmt.Errorf("generative evaluation: %w", err)
		}

		s.logger.Debug().
			Str("submission_id", submission.ID).
			Float64("model_mark", evaluation.Awarded).
			Float64("model_max", evaluation.Max).
			Msg("Generative evaluation parsed")

		if evaluation.Feedback != "" {
			if feedback == "" {
				feedback = evaluation.Feedback
			} else {
				feedback = feedback + "\n\n" + evaluation.Feedback
			}
		}
	}

	gradedAt := time.Now().UTC()

	unlock := s.locks.lock(submission.ID)
	err := s.submissionRepo.MarkGraded(ctx, submission.ID, float64(totalScore), feedback, gradedAt)
	unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to persist grade: %w", err)
	}

	result := &models.GradingResult{
		SubmissionID:  submission.ID,
		AssignmentID:  submission.AssignmentID,
		StudentID:     submission.StudentID,
		Scores:        scores,
		TotalScore:    totalScore,
		TotalMaxMarks: totalMax,
		Feedback:      feedback,
		GradedAt:      gradedAt,
	}

	s.maintainIndex(ctx, submission)
	s.publishCompleted(ctx, result)

	s.logger.Info().
		Str("submission_id", submission.ID).
		Int("total_score", totalScore).
		Int("total_max", totalMax).
		Msg("Submission graded")

	return result, nil
}

func (s *gradingService) embedText(ctx context.Context, text string) ([]float32, error) {
	raw, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	return embedding.Normalize(raw, embedding.IndexDimension), nil
}

// maintainIndex refreshes the submission's index entry. Grading does not
// depend on the index being writable, so every failure here is logged and
// swallowed.
func (s *gradingService) maintainIndex(ctx context.Context, submission *models.Submission) {
	if s.index == nil {
		return
	}

	vec, err := s.embedText(ctx, submission.RawText)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("submission_id", submission.ID).
			Msg("Skipping index refresh, embedding failed")
		return
	}

	entry := vectorstore.Entry{
		ID:     submission.ID,
		Vector: vec,
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
			Msg("Index upsert failed, grading proceeds without it")
	}
}

// recordFailure marks a submission errored with the preserved reason.
func (s *gradingService) recordFailure(ctx context.Context, submission *models.Submission, cause error) {
	unlock := s.locks.lock(submission.ID)
	err := s.submissionRepo.MarkError(ctx, submission.ID, cause.Error())
	unlock()
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("submission_id", submission.ID).
			Msg("Failed to record submission error")
	}

	s.publishFailed(ctx, submission, cause)
}

func (s *gradingService) publishCompleted(ctx context.Context, result *models.GradingResult) {
	if s.publisher == nil {
		return
	}

	event := models.GradingCompletedEvent{
		SubmissionID:  result.SubmissionID,
		AssignmentID:  result.AssignmentID,
		StudentID:     result.StudentID,
		TotalScore:    result.TotalScore,
		TotalMaxMarks: result.TotalMaxMarks,
		CompletedAt:   result.GradedAt,
	}

	body, err := json.Marshal(event)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to marshal grading completed event")
		return
	}

	if err := s.publisher.Publish(ctx, s.config.Exchange, "grading.completed", body); err != nil {
		s.logger.Error().Err(err).Msg("Failed to publish grading completed event")
	}
}

func (s *gradingService) publishFailed(ctx context.Context, submission *models.Submission, cause error) {
	if s.publisher == nil {
		return
	}

	event := models.GradingFailedEvent{
		SubmissionID: submission.ID,
		AssignmentID: submission.AssignmentID,
		Error:        cause.Error(),
		FailedAt:     time.Now().UTC(),
	}

	body, err := json.Marshal(event)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to marshal grading failed event")
		return
	}

	if err := s.publisher.Publish(ctx, s.config.Exchange, "grading.failed", body); err != nil {
		s.logger.Error().Err(err).Msg("Failed to publish grading failed event")
	}
}
