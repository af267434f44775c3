package httpd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/AspiringPianist/geni-backend/internal/models"
	"github.com/AspiringPianist/geni-backend/internal/service"
)

type stubGradingService struct {
	batch  *models.BatchResult
	result *models.GradingResult
	status *models.StatusRecord
	err    error
}

func (s *stubGradingService) ProcessAllSubmissions(ctx context.Context, assignmentID string) (*models.BatchResult, error) {
	return s.batch, s.err
}

func (s *stubGradingService) ProcessSubmission(ctx context.Context, submissionID string) (*models.GradingResult, error) {
	return s.result, s.err
}

func (s *stubGradingService) GetSubmissionStatus(ctx context.Context, submissionID string) (*models.StatusRecord, error) {
	return s.status, s.err
}

type stubSubmissionService struct {
	submission *models.Submission
	questions  []models.ReferenceQuestion
	created    int
	err        error
}

func (s *stubSubmissionService) Create(ctx context.Context, req models.CreateSubmissionRequest) (*models.Submission, error) {
	return s.submission, s.err
}

func (s *stubSubmissionService) Get(ctx context.Context, submissionID string) (*models.Submission, error) {
	return s.submission, s.err
}

func (s *stubSubmissionService) RegisterQuestions(ctx context.Context, assignmentID string, reqs []models.CreateQuestionRequest) (int, error) {
	return s.created, s.err
}

func (s *stubSubmissionService) ListQuestions(ctx context.Context, assignmentID string) ([]models.ReferenceQuestion, error) {
	return s.questions, s.err
}

func (s *stubSubmissionService) Ping(ctx context.Context) error { return s.err }

func newTestRouter(grading service.GradingService, submission service.SubmissionService) chi.Router {
	router := chi.NewRouter()
	NewHandler(grading, submission, zerolog.Nop()).RegisterRoutes(router)
	return router
}

func TestGradeAssignmentReturnsBatchResult(t *testing.T) {
	grading := &stubGradingService{
		batch: &models.BatchResult{
			AssignmentID: "a1",
			Total:        2,
			Graded:       1,
			Skipped:      1,
			CompletedAt:  time.Now().UTC(),
		},
	}
	router := newTestRouter(grading, &stubSubmissionService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/grading/assignments/a1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Success bool               `json:"success"`
		Data    models.BatchResult `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !body.Success || body.Data.Graded != 1 || body.Data.Skipped != 1 {
		t.Errorf("response = %+v", body)
	}
}

func TestGradeAssignmentErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"missing reference data", fmt.Errorf("load: %w", service.ErrMalformedReferenceData), http.StatusUnprocessableEntity},
		{"unknown submission", fmt.Errorf("load: %w", service.ErrSubmissionNotFound), http.StatusNotFound},
		{"internal failure", fmt.Errorf("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&stubGradingService{err: tt.err}, &stubSubmissionService{})

			req := httptest.NewRequest(http.MethodPost, "/api/v1/grading/assignments/a1", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestGetSubmissionStatusNotFound(t *testing.T) {
	grading := &stubGradingService{err: fmt.Errorf("%w: nope", service.ErrSubmissionNotFound)}
	router := newTestRouter(grading, &stubSubmissionService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/submissions/nope/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestCreateSubmission(t *testing.T) {
	now := time.Now().UTC()
	submissionSvc := &stubSubmissionService{
		submission: &models.Submission{
			ID:          "sub-1",
			Status:      models.SubmissionStatusPending,
			SubmittedAt: now,
		},
	}
	router := newTestRouter(&stubGradingService{}, submissionSvc)

	payload := `{"assignment_id":"a1","student_id":"s1","text":"Answer 1: something"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/submissions", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}

	var resp models.CreateSubmissionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.SubmissionID != "sub-1" || resp.Status != models.SubmissionStatusPending {
		t.Errorf("response = %+v", resp)
	}
}

func TestCreateSubmissionValidation(t *testing.T) {
	router := newTestRouter(&stubGradingService{}, &stubSubmissionService{})

	tests := []struct {
		name    string
		payload string
	}{
		{"invalid json", `{`},
		{"missing ids", `{"text":"something"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/submissions", strings.NewReader(tt.payload))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestRegisterQuestions(t *testing.T) {
	submissionSvc := &stubSubmissionService{created: 3}
	router := newTestRouter(&stubGradingService{}, submissionSvc)

	payload := `{"questions":[{"question_text":"Q","reference_answer":"A","max_marks":10}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/assignments/a1/questions/", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}

	var resp models.CreateQuestionsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.AssignmentID != "a1" || resp.Created != 3 {
		t.Errorf("response = %+v", resp)
	}
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(&stubGradingService{}, &stubSubmissionService{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	router = newTestRouter(&stubGradingService{}, &stubSubmissionService{err: fmt.Errorf("db down")})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("degraded status = %d, want 503", rec.Code)
	}
}
