package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	queuePkg "github.com/jwebster45206/simulation-suite/pkg/queue"
)

const (
	workerTimeout = 5 * time.Second

	// MaxAttempts bounds how often a request is re-queued behind a locked session.
	MaxAttempts = 50
)

// RequestQueue is the queue the worker consumes.
type RequestQueue interface {
	EnqueueRequest(ctx context.Context, req *queuePkg.Request) error
	BlockingDequeueRequest(ctx context.Context, timeout time.Duration) (*queuePkg.Request, error)
}

// Worker processes requests in the round queue
type Worker struct {
	id        string
	queue     RequestQueue
	processor *RoundProcessor
	log       *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

// New creates a new worker instance
func New(queue RequestQueue, processor *RoundProcessor, log *slog.Logger, workerID string) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	if workerID == "" {
		workerID = NewWorkerID()
	}

	return &Worker{
		id:        workerID,
		queue:     queue,
		processor: processor,
		log:       log.With("worker_id", workerID),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// NewWorkerID returns a short random worker id.
func NewWorkerID() string {
	return fmt.Sprintf("worker-%s", uuid.New().String()[:8])
}

// ID returns the worker id
func (w *Worker) ID() string {
	return w.id
}

// Start begins processing requests from the queue
func (w *Worker) Start() error {
	w.log.Info("Worker starting")

	for {
		select {
		case <-w.ctx.Done():
			w.log.Info("Worker shutting down")
			return nil
		default:
			if err := w.processNextRequest(); err != nil {
				w.log.Error("Error processing request", "error", err)
				// Continue processing even on error
				select {
				case <-w.ctx.Done():
				case <-time.After(time.Second):
				}
			}
		}
	}
}

// Stop gracefully shuts down the worker
func (w *Worker) Stop() {
	w.log.Info("Worker stop requested")
	w.cancel()
}

// processNextRequest pulls the next request from the queue and processes it
func (w *Worker) processNextRequest() error {
	req, err := w.queue.BlockingDequeueRequest(w.ctx, workerTimeout)
	if err != nil {
		return fmt.Errorf("failed to dequeue request: %w", err)
	}
	if req == nil {
		// Queue is empty or timeout occurred - this is normal
		return nil
	}

	w.log.Info("Received request from queue",
		"request_id", req.RequestID,
		"type", req.Type,
		"session_id", req.SessionID.String(),
	)

	err = w.processRequest(req)
	if errors.Is(err, ErrSessionLocked) {
		return w.requeue(req)
	}
	return err
}

// processRequest dispatches a request by type
func (w *Worker) processRequest(req *queuePkg.Request) error {
	switch req.Type {
	case queuePkg.RequestTypeRound:
		if _, err := w.processor.ProcessRound(w.ctx, req); err != nil {
			return fmt.Errorf("failed to process round: %w", err)
		}
	case queuePkg.RequestTypePortrait:
		if err := w.processor.ProcessPortrait(w.ctx, req); err != nil {
			return fmt.Errorf("failed to process portrait: %w", err)
		}
	default:
		return fmt.Errorf("unknown request type: %s", req.Type)
	}
	return nil
}

// requeue puts a request for a locked session at the back of the queue.
func (w *Worker) requeue(req *queuePkg.Request) error {
	req.Attempts++
	if req.Attempts > MaxAttempts {
		w.log.Error("Dropping request after too many attempts",
			"request_id", req.RequestID,
			"session_id", req.SessionID.String(),
			"attempts", req.Attempts,
		)
		return nil
	}

	// Another round holds this session; try the next request
	w.log.Info("Session locked, re-queueing request",
		"request_id", req.RequestID,
		"session_id", req.SessionID.String(),
		"attempts", req.Attempts,
	)
	if err := w.queue.EnqueueRequest(w.ctx, req); err != nil {
		return fmt.Errorf("failed to re-queue request: %w", err)
	}
	return nil
}
