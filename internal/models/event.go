package models

import "time"

type SubmissionCreatedEvent struct {
	SubmissionID string `json:"submission_id"`
	AssignmentID string `json:"assignment_id"`
	StudentID    string `json:"student_id"`
	Timestamp    int64  `json:"timestamp"`
}

type GradingCompletedEvent struct {
	SubmissionID  string    `json:"submission_id"`
	AssignmentID  string    `json:"assignment_id"`
	StudentID     string    `json:"student_id"`
	TotalScore    int       `json:"total_score"`
	TotalMaxMarks int       `json:"total_max_marks"`
	CompletedAt   time.Time `json:"completed_at"`
}

type GradingFailedEvent struct {
	SubmissionID string    `json:"submission_id"`
	AssignmentID string    `json:"assignment_id"`
	Error        string    `json:"error"`
	FailedAt     time.Time `json:"failed_at"`
}
