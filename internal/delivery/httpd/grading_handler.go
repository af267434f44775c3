package httpd

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AspiringPianist/geni-backend/internal/genai"
	"github.com/AspiringPianist/geni-backend/internal/service"
)

// GradeAssignment grades every ungraded submission of an assignment.
// Individual submission failures are reported inside the batch result;
// only reference-data problems fail the request itself.
func (h *Handler) GradeAssignment(w http.ResponseWriter, r *http.Request) {
	assignmentID := chi.URLParam(r, "assignment_id")
	if assignmentID == "" {
		writeError(w, http.StatusBadRequest, "Assignment ID is required")
		return
	}

	ctx := r.Context()
	batch, err := h.gradingService.ProcessAllSubmissions(ctx, assignmentID)
	if err != nil {
		h.handleGradingError(w, err)
		return
	}

	writeSuccess(w, batch)
}

func (h *Handler) GradeSubmission(w http.ResponseWriter, r *http.Request) {
	submissionID := chi.URLParam(r, "submission_id")
	if submissionID == "" {
		writeError(w, http.StatusBadRequest, "Submission ID is required")
		return
	}

	ctx := r.Context()
	result, err := h.gradingService.ProcessSubmission(ctx, submissionID)
	if err != nil {
		h.handleGradingError(w, err)
		return
	}

	writeSuccess(w, result)
}

func (h *Handler) GetSubmissionStatus(w http.ResponseWriter, r *http.Request) {
	submissionID := chi.URLParam(r, "submission_id")
	if submissionID == "" {
		writeError(w, http.StatusBadRequest, "Submission ID is required")
		return
	}

	ctx := r.Context()
	record, err := h.gradingService.GetSubmissionStatus(ctx, submissionID)
	if err != nil {
		h.handleGradingError(w, err)
		return
	}

	writeSuccess(w, record)
}

func (h *Handler) handleGradingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrSubmissionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrMalformedReferenceData):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrEmptySubmissionText):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, genai.ErrMarkParse):
		h.logger.Error().Err(err).Msg("Model returned an unparseable mark")
		writeError(w, http.StatusBadGateway, "Evaluation model returned an unusable response")
	default:
		h.logger.Error().Err(err).Msg("Grading error")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
