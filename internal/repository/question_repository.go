package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/AspiringPianist/geni-backend/internal/models"
)

// QuestionRepository is the assignment/question source: an ordered,
// read-mostly list of reference questions per assignment.
type QuestionRepository interface {
	GetByAssignmentID(ctx context.Context, assignmentID string) ([]models.ReferenceQuestion, error)
	ReplaceForAssignment(ctx context.Context, assignmentID string, questions []models.ReferenceQuestion) error
	Ping(ctx context.Context) error
}

type questionRepository struct {
	*PostgresRepository
}

func NewQuestionRepository(db *sql.DB, logger zerolog.Logger) QuestionRepository {
	return &questionRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *questionRepository) GetByAssignmentID(ctx context.Context, assignmentID string) ([]models.ReferenceQuestion, error) {
	query := `
		SELECT id, assignment_id, position, question_text, reference_answer,
		       max_marks, marking_scheme, created_at
		FROM reference_questions
		WHERE assignment_id = $1
		ORDER BY position ASC
	`

	rows, err := r.db.QueryContext(ctx, query, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reference questions: %w", err)
	}
	defer rows.Close()

	var questions []models.ReferenceQuestion
	for rows.Next() {
		var q models.ReferenceQuestion
		var markingScheme sql.NullString

		err := rows.Scan(
			&q.ID,
			&q.AssignmentID,
			&q.Position,
			&q.QuestionText,
			&q.ReferenceAnswer,
			&q.MaxMarks,
			&markingScheme,
			&q.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reference question: %w", err)
		}

		if markingScheme.Valid {
			q.MarkingScheme = &markingScheme.String
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reference questions: %w", err)
	}

	return questions, nil
}

// ReplaceForAssignment swaps the assignment's question list in one
// transaction so a grading run never observes a half-written list.
func (r *questionRepository) ReplaceForAssignment(ctx context.Context, assignmentID string, questions []models.ReferenceQuestion) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM reference_questions WHERE assignment_id = $1`, assignmentID); err != nil {
		return fmt.Errorf("failed to clear reference questions: %w", err)
	}

	query := `
		INSERT INTO reference_questions (
			id, assignment_id, position, question_text, reference_answer,
			max_marks, marking_scheme, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	for _, q := range questions {
		_, err := tx.ExecContext(ctx, query,
			q.ID,
			assignmentID,
			q.Position,
			q.QuestionText,
			q.ReferenceAnswer,
			q.MaxMarks,
			q.MarkingScheme,
			q.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert reference question %d: %w", q.Position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reference questions: %w", err)
	}

	return nil
}
