package models

import "time"

// Data Transfer Objects

type CreateSubmissionRequest struct {
	AssignmentID string `json:"assignment_id"`
	StudentID    string `json:"student_id"`
	Text         string `json:"text"`
	FileName     string `json:"file_name,omitempty"`
}

type CreateSubmissionResponse struct {
	SubmissionID string           `json:"submission_id"`
	Status       SubmissionStatus `json:"status"`
	SubmittedAt  time.Time        `json:"submitted_at"`
}

type CreateQuestionRequest struct {
	QuestionText    string  `json:"question_text"`
	ReferenceAnswer string  `json:"reference_answer"`
	MaxMarks        int     `json:"max_marks"`
	MarkingScheme   *string `json:"marking_scheme,omitempty"`
}

type CreateQuestionsRequest struct {
	Questions []CreateQuestionRequest `json:"questions"`
}

type CreateQuestionsResponse struct {
	AssignmentID string `json:"assignment_id"`
	Created      int    `json:"created"`
}
