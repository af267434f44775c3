package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/AspiringPianist/geni-backend/internal/genai"
	"github.com/AspiringPianist/geni-backend/internal/models"
	"github.com/AspiringPianist/geni-backend/internal/service"
	"github.com/AspiringPianist/geni-backend/internal/worker/queue"
)

// GradingWorker consumes submission.created events and grades each
// submission through the worker pool.
type GradingWorker interface {
	Start(ctx context.Context) error
	Stop() error
	GetStats() WorkerStats
}

type WorkerStats struct {
	ActiveWorkers  int `json:"active_workers"`
	TotalProcessed int `json:"total_processed"`
	FailedJobs     int `json:"failed_jobs"`
	QueueLength    int `json:"queue_length"`
}

type gradingWorker struct {
	workerPool     *WorkerPool
	queueConsumer  queue.RabbitMQConsumer
	gradingService service.GradingService
	logger         zerolog.Logger
	stats          WorkerStats
	statsMutex     sync.RWMutex
	startTime      time.Time
}

func NewGradingWorker(
	workerPool *WorkerPool,
	queueConsumer queue.RabbitMQConsumer,
	gradingService service.GradingService,
	logger zerolog.Logger,
) GradingWorker {
	return &gradingWorker{
		workerPool:     workerPool,
		queueConsumer:  queueConsumer,
		gradingService: gradingService,
		logger:         logger,
		startTime:      time.Now(),
	}
}

func (w *gradingWorker) Start(ctx context.Context) error {
	w.logger.Info().Msg("Starting grading worker...")

	if err := w.workerPool.Start(ctx); err != nil {
		return fmt.Errorf("failed to start worker pool: %w", err)
	}

	msgs, err := w.queueConsumer.Consume(ctx)
	if err != nil {
		return fmt.Errorf("failed to start consuming messages: %w", err)
	}

	go w.processMessages(ctx, msgs)

	w.logger.Info().Msg("Grading worker started successfully")
	return nil
}

func (w *gradingWorker) Stop() error {
	w.logger.Info().Msg("Stopping grading worker...")

	if err := w.workerPool.Stop(); err != nil {
		w.logger.Error().Err(err).Msg("Failed to stop worker pool")
	}

	if err := w.queueConsumer.Close(); err != nil {
		w.logger.Error().Err(err).Msg("Failed to close queue consumer")
	}

	w.statsMutex.RLock()
	processed, failed := w.stats.TotalProcessed, w.stats.FailedJobs
	w.statsMutex.RUnlock()

	w.logger.Info().
		Int("total_processed", processed).
		Int("failed_jobs", failed).
		Dur("uptime", time.Since(w.startTime)).
		Msg("Grading worker stopped")

	return nil
}

func (w *gradingWorker) processMessages(ctx context.Context, msgs <-chan queue.RabbitMQMessage) {
	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Stopping message processing")
			return
		case msg, ok := <-msgs:
			if !ok {
				w.logger.Warn().Msg("Message channel closed")
				return
			}

			w.workerPool.Submit(func() {
				if err := w.processMessage(ctx, msg); err != nil {
					w.logger.Error().Err(err).Msg("Failed to process message")

					w.statsMutex.Lock()
					w.stats.FailedJobs++
					w.statsMutex.Unlock()

					// A malformed event or a submission-level failure will
					// not succeed on redelivery; only transient failures
					// are requeued.
					if isPermanentError(err) {
						if ackErr := msg.Ack(false); ackErr != nil {
							w.logger.Error().Err(ackErr).Msg("Failed to ack message")
						}
						return
					}

					if nackErr := msg.Nack(false, true); nackErr != nil {
						w.logger.Error().Err(nackErr).Msg("Failed to nack message")
					}
					return
				}

				if err := msg.Ack(false); err != nil {
					w.logger.Error().Err(err).Msg("Failed to ack message")
				}

				w.statsMutex.Lock()
				w.stats.TotalProcessed++
				w.statsMutex.Unlock()
			})
		}
	}
}

func (w *gradingWorker) processMessage(ctx context.Context, msg queue.RabbitMQMessage) error {
	var event models.SubmissionCreatedEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		return permanent(fmt.Errorf("failed to unmarshal event: %w", err))
	}

	if strings.TrimSpace(event.SubmissionID) == "" {
		return permanent(errors.New("empty submission_id"))
	}

	w.logger.Info().
		Str("submission_id", event.SubmissionID).
		Str("assignment_id", event.AssignmentID).
		Msg("Processing submission grading")

	_, err := w.gradingService.ProcessSubmission(ctx, event.SubmissionID)
	if err != nil {
		if errors.Is(err, service.ErrSubmissionNotFound) ||
			errors.Is(err, service.ErrMalformedReferenceData) ||
			errors.Is(err, service.ErrEmptySubmissionText) ||
			errors.Is(err, genai.ErrMarkParse) {
			return permanent(err)
		}
		return err
	}

	return nil
}

func (w *gradingWorker) GetStats() WorkerStats {
	w.statsMutex.RLock()
	defer w.statsMutex.RUnlock()

	stats := w.stats
	stats.ActiveWorkers = w.workerPool.GetActiveWorkers()
	stats.QueueLength = w.workerPool.GetQueueLength()
	return stats
}

type permanentError struct {
	err error
}

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

func permanent(err error) error {
	return permanentError{err: err}
}

func isPermanentError(err error) bool {
	var p permanentError
	return errors.As(err, &p)
}
