package httpd

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/AspiringPianist/geni-backend/internal/service"
)

type Handler struct {
	gradingService    service.GradingService
	submissionService service.SubmissionService
	logger            zerolog.Logger
}

func NewHandler(
	gradingService service.GradingService,
	submissionService service.SubmissionService,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		gradingService:    gradingService,
		submissionService: submissionService,
		logger:            logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	// Health check
	router.Get("/health", h.HealthCheck)

	// Versioned API
	router.Route("/api/v1", func(api chi.Router) {
		// Submission intake and lookup
		api.Route("/submissions", func(r chi.Router) {
			r.Post("/", h.CreateSubmission)
			r.Get("/{submission_id}", h.GetSubmission)
			r.Get("/{submission_id}/status", h.GetSubmissionStatus)
		})

		// Reference questions per assignment
		api.Route("/assignments/{assignment_id}/questions", func(r chi.Router) {
			r.Post("/", h.RegisterQuestions)
			r.Get("/", h.ListQuestions)
		})

		// Grading
		api.Route("/grading", func(r chi.Router) {
			r.Post("/assignments/{assignment_id}", h.GradeAssignment)
			r.Post("/submissions/{submission_id}", h.GradeSubmission)
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error":   http.StatusText(status),
		"message": message,
	})
}

func writeSuccess(w http.ResponseWriter, data interface{}) {
	response := map[string]interface{}{
		"success": true,
		"data":    data,
	}
	writeJSON(w, http.StatusOK, response)
}
