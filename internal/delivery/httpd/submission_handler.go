package httpd

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AspiringPianist/geni-backend/internal/models"
	"github.com/AspiringPianist/geni-backend/internal/service"
)

func (h *Handler) CreateSubmission(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.AssignmentID == "" || req.StudentID == "" {
		writeError(w, http.StatusBadRequest, "Fields assignment_id and student_id are required")
		return
	}

	ctx := r.Context()
	submission, err := h.submissionService.Create(ctx, req)
	if err != nil {
		if errors.Is(err, service.ErrEmptySubmissionText) {
			writeError(w, http.StatusBadRequest, "Submission text is empty")
			return
		}
		h.logger.Error().Err(err).Msg("Failed to create submission")
		writeError(w, http.StatusInternalServerError, "Failed to store submission")
		return
	}

	writeJSON(w, http.StatusCreated, models.CreateSubmissionResponse{
		SubmissionID: submission.ID,
		Status:       submission.Status,
		SubmittedAt:  submission.SubmittedAt,
	})
}

func (h *Handler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	submissionID := chi.URLParam(r, "submission_id")
	if submissionID == "" {
		writeError(w, http.StatusBadRequest, "Submission ID is required")
		return
	}

	ctx := r.Context()
	submission, err := h.submissionService.Get(ctx, submissionID)
	if err != nil {
		if errors.Is(err, service.ErrSubmissionNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error().Err(err).Msg("Failed to load submission")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeSuccess(w, submission)
}

func (h *Handler) RegisterQuestions(w http.ResponseWriter, r *http.Request) {
	assignmentID := chi.URLParam(r, "assignment_id")
	if assignmentID == "" {
		writeError(w, http.StatusBadRequest, "Assignment ID is required")
		return
	}

	var req models.CreateQuestionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx := r.Context()
	count, err := h.submissionService.RegisterQuestions(ctx, assignmentID, req.Questions)
	if err != nil {
		if errors.Is(err, service.ErrMalformedReferenceData) {
			writeError(w, http.StatusBadRequest, "At least one question is required")
			return
		}
		h.logger.Error().Err(err).Msg("Failed to register questions")
		writeError(w, http.StatusInternalServerError, "Failed to store reference questions")
		return
	}

	writeJSON(w, http.StatusCreated, models.CreateQuestionsResponse{
		AssignmentID: assignmentID,
		Created:      count,
	})
}

func (h *Handler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	assignmentID := chi.URLParam(r, "assignment_id")
	if assignmentID == "" {
		writeError(w, http.StatusBadRequest, "Assignment ID is required")
		return
	}

	ctx := r.Context()
	questions, err := h.submissionService.ListQuestions(ctx, assignmentID)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list questions")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeSuccess(w, questions)
}
