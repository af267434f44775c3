package models

import "time"

type SubmissionStatus string

const (
	SubmissionStatusPending   SubmissionStatus = "pending"
	SubmissionStatusProcessed SubmissionStatus = "processed"
	SubmissionStatusError     SubmissionStatus = "error"
)

func (s SubmissionStatus) String() string {
	return string(s)
}

// Submission is the durable record of a student upload. The grading
// pipeline only ever mutates status, grade, feedback and error_message;
// submissions are never deleted here.
type Submission struct {
	ID           string           `json:"id" db:"id"`
	AssignmentID string           `json:"assignment_id" db:"assignment_id"`
	StudentID    string           `json:"student_id" db:"student_id"`
	RawText      string           `json:"raw_text" db:"raw_text"`
	FileKey      *string          `json:"file_key,omitempty" db:"file_key"`
	Status       SubmissionStatus `json:"status" db:"status"`
	Grade        *float64         `json:"grade,omitempty" db:"grade"`
	Feedback     *string          `json:"feedback,omitempty" db:"feedback"`
	ErrorMessage *string          `json:"error_message,omitempty" db:"error_message"`
	SubmittedAt  time.Time        `json:"submitted_at" db:"submitted_at"`
	GradedAt     *time.Time       `json:"graded_at,omitempty" db:"graded_at"`
	UpdatedAt    time.Time        `json:"updated_at" db:"updated_at"`
}

// ReferenceQuestion is one entry of an assignment's ordered question list,
// loaded once per grading run and immutable for its duration.
type ReferenceQuestion struct {
	ID              string    `json:"id" db:"id"`
	AssignmentID    string    `json:"assignment_id" db:"assignment_id"`
	Position        int       `json:"position" db:"position"`
	QuestionText    string    `json:"question_text" db:"question_text"`
	ReferenceAnswer string    `json:"reference_answer" db:"reference_answer"`
	MaxMarks        int       `json:"max_marks" db:"max_marks"`
	MarkingScheme   *string   `json:"marking_scheme,omitempty" db:"marking_scheme"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}
