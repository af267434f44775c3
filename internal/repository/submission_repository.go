package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/AspiringPianist/geni-backend/internal/models"
)

type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	GetByID(ctx context.Context, id string) (*models.Submission, error)
	GetByAssignmentID(ctx context.Context, assignmentID string) ([]models.Submission, error)
	MarkGraded(ctx context.Context, id string, grade float64, feedback string, gradedAt time.Time) error
	MarkError(ctx context.Context, id, message string) error
	Ping(ctx context.Context) error
}

type submissionRepository struct {
	*PostgresRepository
}

func NewSubmissionRepository(db *sql.DB, logger zerolog.Logger) SubmissionRepository {
	return &submissionRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

const submissionColumns = `
	id, assignment_id, student_id, raw_text, file_key, status,
	grade, feedback, error_message, submitted_at, graded_at, updated_at
`

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	query := `
		INSERT INTO submissions (` + submissionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(ctx, query,
		submission.ID,
		submission.AssignmentID,
		submission.StudentID,
		submission.RawText,
		submission.FileKey,
		submission.Status.String(),
		submission.Grade,
		submission.Feedback,
		submission.ErrorMessage,
		submission.SubmittedAt,
		submission.GradedAt,
		submission.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}

	return nil
}

func (r *submissionRepository) GetByID(ctx context.Context, id string) (*models.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`

	submission, err := r.scanSubmission(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	return submission, nil
}

func (r *submissionRepository) GetByAssignmentID(ctx context.Context, assignmentID string) ([]models.Submission, error) {
	query := `
		SELECT ` + submissionColumns + `
		FROM submissions
		WHERE assignment_id = $1
		ORDER BY submitted_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	var submissions []models.Submission
	for rows.Next() {
		submission, err := r.scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		submissions = append(submissions, *submission)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate submissions: %w", err)
	}

	return submissions, nil
}

func (r *submissionRepository) MarkGraded(ctx context.Context, id string, grade float64, feedback string, gradedAt time.Time) error {
	query := `
		UPDATE submissions
		SET status = $2, grade = $3, feedback = $4, error_message = NULL,
		    graded_at = $5, updated_at = $6
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		id,
		models.SubmissionStatusProcessed.String(),
		grade,
		feedback,
		gradedAt,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to mark submission graded: %w", err)
	}

	return r.requireRow(result, id)
}

func (r *submissionRepository) MarkError(ctx context.Context, id, message string) error {
	query := `
		UPDATE submissions
		SET status = $2, error_message = $3, updated_at = $4
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		id,
		models.SubmissionStatusError.String(),
		message,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to mark submission errored: %w", err)
	}

	return r.requireRow(result, id)
}

func (r *submissionRepository) requireRow(result sql.Result, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("submission %s not found", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *submissionRepository) scanSubmission(row rowScanner) (*models.Submission, error) {
	submission := &models.Submission{}
	var status string
	var fileKey, feedback, errorMessage sql.NullString
	var grade sql.NullFloat64
	var gradedAt sql.NullTime

	err := row.Scan(
		&submission.ID,
		&submission.AssignmentID,
		&submission.StudentID,
		&submission.RawText,
		&fileKey,
		&status,
		&grade,
		&feedback,
		&errorMessage,
		&submission.SubmittedAt,
		&gradedAt,
		&submission.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	submission.Status = models.SubmissionStatus(status)
	if fileKey.Valid {
		submission.FileKey = &fileKey.String
	}
	if grade.Valid {
		submission.Grade = &grade.Float64
	}
	if feedback.Valid {
		submission.Feedback = &feedback.String
	}
	if errorMessage.Valid {
		submission.ErrorMessage = &errorMessage.String
	}
	if gradedAt.Valid {
		submission.GradedAt = &gradedAt.Time
	}

	return submission, nil
}
