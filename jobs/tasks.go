package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/rbac-console/internal/assignment"
	jobmetrics "github.com/odyssey-erp/rbac-console/internal/jobs"
	"github.com/odyssey-erp/rbac-console/internal/shared"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAssignmentsApply replays a batch of edge mutations.
	TaskAssignmentsApply = "assignments:apply"
)

// AssignmentsPayload is the body of a TaskAssignmentsApply task.
type AssignmentsPayload struct {
	Operations []assignment.Operation `json:"operations"`
}

// Validate rejects empty batches and unknown kinds or actions.
func (p AssignmentsPayload) Validate() error {
	if len(p.Operations) == 0 {
		return shared.NewValidationError("operations", "is required")
	}
	for i, op := range p.Operations {
		if _, err := assignment.ParseKind(string(op.Kind)); err != nil {
			return fmt.Errorf("operation %d: %w", i, err)
		}
		if _, err := assignment.ParseAction(string(op.Action)); err != nil {
			return fmt.Errorf("operation %d: %w", i, err)
		}
	}
	return nil
}

// NewAssignmentsTask constructs an Asynq task.
func NewAssignmentsTask(payload AssignmentsPayload) (*asynq.Task, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAssignmentsApply, data, asynq.MaxRetry(3)), nil
}

// Applier runs a batch of assignment operations.
type Applier interface {
	Apply(ctx context.Context, ops []assignment.Operation) error
}

// AssignmentsJob processes TaskAssignmentsApply tasks.
type AssignmentsJob struct {
	applier Applier
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewAssignmentsJob builds the job around an applier.
func NewAssignmentsJob(applier Applier, logger *slog.Logger) *AssignmentsJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &AssignmentsJob{applier: applier, logger: logger}
}

// WithMetrics records run outcomes and applied operations.
func (j *AssignmentsJob) WithMetrics(m *jobmetrics.Metrics) *AssignmentsJob {
	j.metrics = m
	return j
}

// Handle applies the batch. Payload and validation problems are not retried.
func (j *AssignmentsJob) Handle(ctx context.Context, t *asynq.Task) error {
	tracker := j.metrics.Track(TaskAssignmentsApply)

	var payload AssignmentsPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		j.logger.Error("assignments payload", slog.Any("error", err))
		return tracker.End(jobmetrics.StatusSkipped, fmt.Errorf("%w: %v", asynq.SkipRetry, err))
	}
	if err := payload.Validate(); err != nil {
		j.logger.Error("assignments payload", slog.Any("error", err))
		return tracker.End(jobmetrics.StatusSkipped, fmt.Errorf("%w: %v", asynq.SkipRetry, err))
	}

	err := j.applier.Apply(ctx, payload.Operations)
	switch {
	case err == nil:
		j.logger.Info("assignments applied", slog.Int("operations", len(payload.Operations)))
		counts := map[assignment.Kind]int{}
		for _, op := range payload.Operations {
			counts[op.Kind]++
		}
		for kind, n := range counts {
			j.metrics.AddOperations(string(kind), n)
		}
		return tracker.End(jobmetrics.StatusSuccess, nil)
	case errors.Is(err, shared.ErrValidation),
		errors.Is(err, shared.ErrRejected),
		errors.Is(err, shared.ErrNotAuthenticated),
		errors.Is(err, shared.ErrRefreshFailed),
		errors.Is(err, shared.ErrForbidden):
		j.logger.Error("assignments rejected", slog.Any("error", err))
		return tracker.End(jobmetrics.StatusSkipped, fmt.Errorf("%w: %v", asynq.SkipRetry, err))
	default:
		j.logger.Warn("assignments failed, will retry", slog.Any("error", err))
		return tracker.End(jobmetrics.StatusFailure, err)
	}
}
