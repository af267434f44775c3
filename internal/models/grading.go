package models

import "time"

// QuestionScore is the outcome of scoring a single question. Feedback is
// empty when the student left the question blank: a blank answer scores
// zero without a feedback line, unlike a low-similarity answer which keeps
// its "Review this topic" line.
type QuestionScore struct {
	Position int    `json:"position"`
	Points   int    `json:"points"`
	MaxMarks int    `json:"max_marks"`
	Feedback string `json:"feedback,omitempty"`
}

type GradingResult struct {
	SubmissionID  string          `json:"submission_id"`
	AssignmentID  string          `json:"assignment_id"`
	StudentID     string          `json:"student_id"`
	Scores        []QuestionScore `json:"scores"`
	TotalScore    int             `json:"total_score"`
	TotalMaxMarks int             `json:"total_max_marks"`
	Feedback      string          `json:"feedback"`
	GradedAt      time.Time       `json:"graded_at"`
}

type OutcomeStatus string

const (
	OutcomeGraded  OutcomeStatus = "graded"
	OutcomeSkipped OutcomeStatus = "skipped"
	OutcomeError   OutcomeStatus = "error"
)

// SubmissionOutcome is one row of a batch result. Error carries the
// preserved failure reason when Status is "error".
type SubmissionOutcome struct {
	SubmissionID string        `json:"submission_id"`
	StudentID    string        `json:"student_id"`
	Status       OutcomeStatus `json:"status"`
	Grade        *float64      `json:"grade,omitempty"`
	Feedback     string        `json:"feedback,omitempty"`
	Error        string        `json:"error,omitempty"`
}

type BatchResult struct {
	AssignmentID string                       `json:"assignment_id"`
	Total        int                          `json:"total"`
	Graded       int                          `json:"graded"`
	Skipped      int                          `json:"skipped"`
	Failed       int                          `json:"failed"`
	Results      map[string]SubmissionOutcome `json:"results"`
	CompletedAt  time.Time                    `json:"completed_at"`
}

// StatusRecord is the externally visible state of a submission.
type StatusRecord struct {
	SubmissionID string           `json:"submission_id"`
	AssignmentID string           `json:"assignment_id"`
	StudentID    string           `json:"student_id"`
	Status       SubmissionStatus `json:"status"`
	Grade        *float64         `json:"grade,omitempty"`
	Feedback     string           `json:"feedback,omitempty"`
	ErrorMessage string           `json:"error_message,omitempty"`
	SubmittedAt  time.Time        `json:"submitted_at"`
	GradedAt     *time.Time       `json:"graded_at,omitempty"`
}
