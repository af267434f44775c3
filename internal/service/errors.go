package service

import "errors"

var (
	// ErrSubmissionNotFound means the requested submission id has no
	// durable record.
	ErrSubmissionNotFound = errors.New("submission not found")

	// ErrMalformedReferenceData means an assignment has no usable
	// reference question list; nothing can be scored without one.
	ErrMalformedReferenceData = errors.New("reference question list missing or empty")

	// ErrEmptySubmissionText means a submission carries no gradable text.
	ErrEmptySubmissionText = errors.New("submission text is empty")
)
