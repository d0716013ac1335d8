package job

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"metapipe/internal/apperrors"
	"metapipe/internal/notify"
	"metapipe/internal/observability"
	"metapipe/pkg/webhook"
)

const eventSource = "metapipe"

// Service is the job lifecycle facade used by the HTTP layer. It combines
// the orchestrator, the tracker, the result catalog, and the session
// registry, and emits lifecycle notifications for jobs with callbacks.
type Service struct {
	orchestrator *Orchestrator
	tracker      *Tracker
	results      *ResultCatalog
	registry     *Registry
	estimator    *Estimator
	notifier     notify.Notifier
	metrics      *observability.Metrics
	logger       *slog.Logger
}

// NewService creates a job service. notifier and metrics may be nil.
func NewService(
	orchestrator *Orchestrator,
	tracker *Tracker,
	results *ResultCatalog,
	registry *Registry,
	estimator *Estimator,
	notifier notify.Notifier,
	metrics *observability.Metrics,
) *Service {
	return &Service{
		orchestrator: orchestrator,
		tracker:      tracker,
		results:      results,
		registry:     registry,
		estimator:    estimator,
		notifier:     notifier,
		metrics:      metrics,
		logger:       slog.With("component", "jobs"),
	}
}

// Launch validates and starts a new pipeline job.
func (s *Service) Launch(ctx context.Context, req *Request) (*Response, error) {
	if req.Callback != nil && req.Callback.URL != "" {
		if err := validateCallbackURL(req.Callback.URL); err != nil {
			return nil, apperrors.Validation("callback.url", fmt.Sprintf("invalid callback URL: %v", err))
		}
	}

	start := time.Now()
	j, err := s.orchestrator.Launch(ctx, req)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordLaunchError(ctx, req.Profile)
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordJobLaunched(ctx, j.MachineType, time.Since(start).Seconds())
	}
	s.emit(j, webhook.TypeJobLaunched, map[string]any{
		"instanceName": j.InstanceName,
		"machineType":  j.MachineType,
	})

	return &Response{
		ID:           j.ID,
		InstanceName: j.InstanceName,
		MachineType:  j.MachineType,
		Status:       "launched",
		Forward:      j.Forward,
		Reverse:      j.Reverse,
		HourlyRate:   s.estimator.Rate(j.MachineType),
	}, nil
}

// Status polls the current status of a job. The first observed terminal
// transition fires the job's complete/failed notification exactly once.
func (s *Service) Status(ctx context.Context, id string) (*Status, error) {
	j, ok := s.registry.Get(id)
	if !ok {
		return nil, apperrors.NotFound("job", id)
	}

	start := time.Now()
	status := s.tracker.Poll(ctx, j)
	if s.metrics != nil {
		s.metrics.RecordPoll(ctx, status.State, time.Since(start).Seconds())
	}

	if status.State == StateComplete || status.State == StateFailed {
		if s.registry.MarkFinished(id) {
			if s.metrics != nil {
				s.metrics.RecordJobFinished(ctx, j.MachineType, status.State == StateComplete)
			}
			eventType := webhook.TypeJobComplete
			if status.State == StateFailed {
				eventType = webhook.TypeJobFailed
			}
			s.emit(&j, eventType, map[string]any{
				"progress":      status.Progress,
				"estimatedCost": status.EstimatedCost,
			})
		}
	}

	return status, nil
}

// Cancel deletes the job's instance and marks the job cancelled.
func (s *Service) Cancel(ctx context.Context, id string) error {
	j, err := s.orchestrator.Cancel(ctx, id)
	if err != nil {
		return err
	}

	if s.registry.MarkFinished(id) {
		if s.metrics != nil {
			s.metrics.RecordJobCancelled(ctx, j.MachineType)
		}
		s.emit(j, webhook.TypeJobCancelled, nil)
	}
	return nil
}

// List returns all jobs in the session registry.
func (s *Service) List(ctx context.Context) *ListResponse {
	return &ListResponse{Jobs: s.registry.Snapshot()}
}

// Results lists the classified result artifacts of a job.
func (s *Service) Results(ctx context.Context, id string) (*ResultsResponse, error) {
	if _, ok := s.registry.Get(id); !ok {
		return nil, apperrors.NotFound("job", id)
	}
	artifacts, err := s.results.Collect(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ResultsResponse{ID: id, Artifacts: artifacts}, nil
}

// Inputs lists candidate input objects in the bucket.
func (s *Service) Inputs(ctx context.Context) ([]string, error) {
	return s.results.ListInputs(ctx)
}

// emit queues a lifecycle notification when the job carries a callback.
func (s *Service) emit(j *Job, eventType string, data map[string]any) {
	if s.notifier == nil || j.Callback == nil || j.Callback.URL == "" {
		return
	}

	eventID := fmt.Sprintf("%s-%d", j.ID, time.Now().UnixNano())
	event := webhook.New(eventType, eventSource, j.ID, eventID, data)

	if err := s.notifier.Notify(&notify.Delivery{
		Event:  event,
		URL:    j.Callback.URL,
		Secret: j.Callback.Secret,
	}); err != nil {
		s.logger.Warn("Lifecycle notification not queued", "jobId", j.ID, "type", eventType, "error", err)
	}
}

func validateCallbackURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("malformed URL")
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
