package job

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"metapipe/internal/gateway"
	"metapipe/internal/pipeline"
)

// Tracker derives the authoritative job status from remote signals on each
// poll. It is stateless: every call re-reads the completion marker, the
// instance status, and the pipeline log, and recomputes the whole status.
// Gateway failures are folded into the status payload, never returned.
type Tracker struct {
	compute gateway.Compute
	storage gateway.Storage
	cost    *Estimator
	logger  *slog.Logger
	now     func() time.Time
}

// NewTracker creates a tracker over the two gateways.
func NewTracker(compute gateway.Compute, storage gateway.Storage, cost *Estimator) *Tracker {
	return &Tracker{
		compute: compute,
		storage: storage,
		cost:    cost,
		logger:  slog.With("component", "tracker"),
		now:     time.Now,
	}
}

// Poll computes the current status of a job. The completion marker dominates
// everything else: once jobs/<id>/status.txt exists the job is complete no
// matter what the instance or log say.
func (t *Tracker) Poll(ctx context.Context, j Job) *Status {
	status := &Status{
		ID:             j.ID,
		State:          StateUnknown,
		InstanceStatus: string(gateway.StatusUnknown),
	}
	t.fillElapsedAndCost(status, j)

	markerKey := fmt.Sprintf("jobs/%s/status.txt", j.ID)
	done, err := t.storage.Exists(ctx, markerKey)
	if err != nil {
		return t.fail(status, j, "storage.exists", err)
	}
	if done {
		status.State = StateComplete
		status.Progress = 100
		status.Steps = completedSteps(j.Steps)
		return status
	}

	if j.Cancelled {
		status.State = StateCancelled
		return status
	}

	instStatus, err := t.compute.InstanceStatus(ctx, j.InstanceName)
	if err != nil {
		return t.fail(status, j, "compute.instanceStatus", err)
	}
	status.InstanceStatus = string(instStatus)

	log, err := t.readLog(ctx, j.ID)
	if err != nil {
		return t.fail(status, j, "storage.get", err)
	}

	status.Steps = parseSteps(log, j.Steps)
	status.Progress = aggregateProgress(status.Steps)
	status.CurrentStep = currentStep(status.Steps)

	switch instStatus {
	case gateway.StatusRunning:
		status.State = StateRunning
	case gateway.StatusTerminated:
		if status.Progress == 100 {
			status.State = StateComplete
		} else {
			status.State = StateFailed
		}
	case gateway.StatusProvisioning, gateway.StatusStaging:
		status.State = StateStarting
	default:
		status.State = StateUnknown
	}

	return status
}

// fail folds a gateway error into the status payload.
func (t *Tracker) fail(status *Status, j Job, op string, err error) *Status {
	t.logger.Warn("Status poll failed", "jobId", j.ID, "op", op, "error", err)
	status.State = StateError
	status.Error = fmt.Sprintf("%s: %v", op, err)
	return status
}

// readLog fetches the pipeline log, treating a missing object as empty:
// early in the run the instance has not written anything yet.
func (t *Tracker) readLog(ctx context.Context, jobID string) (string, error) {
	key := fmt.Sprintf("jobs/%s/pipeline.log", jobID)
	exists, err := t.storage.Exists(ctx, key)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", nil
	}
	data, err := t.storage.Get(ctx, key)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (t *Tracker) fillElapsedAndCost(status *Status, j Job) {
	if j.LaunchedAt.IsZero() {
		return
	}
	elapsed := t.now().Sub(j.LaunchedAt)
	status.ElapsedSeconds = elapsed.Seconds()
	status.EstimatedCost = t.cost.Estimate(j.MachineType, elapsed)
}

// parseSteps derives per-step state from marker lines in the log.
// A completion marker wins over a start marker; neither means pending.
// Progress is the 0/50/100 heuristic: a running step counts as half done.
func parseSteps(log string, enabled []string) []StepStatus {
	out := make([]StepStatus, 0, len(enabled))
	for _, id := range enabled {
		step, ok := pipeline.StepByID(id)
		if !ok {
			continue
		}
		ss := StepStatus{ID: step.ID, Name: step.DisplayName, State: StepPending}
		if strings.Contains(log, step.CompleteMarker()) {
			ss.State = StepComplete
			ss.Progress = 100
		} else if strings.Contains(log, step.StartMarker()) {
			ss.State = StepRunning
			ss.Progress = 50
		}
		out = append(out, ss)
	}
	return out
}

// aggregateProgress is the rounded fraction of completed steps, 0 when the
// step vector is empty.
func aggregateProgress(steps []StepStatus) int {
	if len(steps) == 0 {
		return 0
	}
	complete := 0
	for _, s := range steps {
		if s.State == StepComplete {
			complete++
		}
	}
	return int(math.Round(100 * float64(complete) / float64(len(steps))))
}

// currentStep is the first running step in catalog order.
func currentStep(steps []StepStatus) string {
	for _, s := range steps {
		if s.State == StepRunning {
			return s.ID
		}
	}
	return ""
}

func completedSteps(enabled []string) []StepStatus {
	out := make([]StepStatus, 0, len(enabled))
	for _, id := range enabled {
		step, ok := pipeline.StepByID(id)
		if !ok {
			continue
		}
		out = append(out, StepStatus{ID: step.ID, Name: step.DisplayName, State: StepComplete, Progress: 100})
	}
	return out
}
