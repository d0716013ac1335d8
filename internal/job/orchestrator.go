package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"time"

	"metapipe/internal/apperrors"
	"metapipe/internal/config"
	"metapipe/internal/gateway"
	"metapipe/internal/pipeline"
)

// Instance labels identify pipeline instances for out-of-band cleanup.
var instanceLabels = map[string]string{
	"purpose":     "metagenomics-pipeline",
	"auto-delete": "true",
}

// Orchestrator provisions and tears down single-use pipeline instances.
// Each Launch binds one job id to one instance for the job's entire life.
type Orchestrator struct {
	compute  gateway.Compute
	cfg      *config.CloudConfig
	registry *Registry
	logger   *slog.Logger
}

// NewOrchestrator creates an orchestrator over a compute gateway.
func NewOrchestrator(compute gateway.Compute, cfg *config.CloudConfig, registry *Registry) *Orchestrator {
	return &Orchestrator{
		compute:  compute,
		cfg:      cfg,
		registry: registry,
		logger:   slog.With("component", "orchestrator"),
	}
}

// Launch validates the request, renders the bootstrap script, and provisions
// an instance. The creation wait is bounded; on expiry the reservation is
// released and the instance deletion is attempted best-effort.
func (o *Orchestrator) Launch(ctx context.Context, req *Request) (*Job, error) {
	// Configuration gaps are rejected before any remote call.
	if o.cfg.ProjectID == "" {
		return nil, apperrors.Configuration("projectId", "GCP project ID is not configured")
	}
	if o.cfg.Bucket == "" {
		return nil, apperrors.Configuration("bucket", "storage bucket is not configured")
	}

	profile, ok := o.cfg.Profile(req.Profile)
	if !ok {
		return nil, apperrors.Validation("profile", fmt.Sprintf("unknown machine profile %q", req.Profile))
	}

	steps := req.Steps
	if len(steps) == 0 {
		steps = pipeline.DefaultStepIDs()
	}
	ordered, unknown := pipeline.NormalizeStepIDs(steps)
	if len(unknown) > 0 {
		return nil, apperrors.Validation("steps", fmt.Sprintf("unknown pipeline steps: %v", unknown))
	}
	if len(ordered) == 0 {
		return nil, apperrors.Validation("steps", "at least one pipeline step is required")
	}

	forward, _, err := pipeline.ValidatePair(baseNames(req.Inputs))
	if err != nil {
		return nil, err
	}
	// ValidatePair works on base names; map back to the original keys.
	forwardKey, reverseKey := matchKeys(req.Inputs, forward)

	threads := req.Threads
	if threads <= 0 {
		threads = o.cfg.DefaultThreads
	}
	minContigLen := req.MinContigLen
	if minContigLen <= 0 {
		minContigLen = o.cfg.DefaultMinContigLen
	}

	id := NewJobID()
	if err := o.registry.Reserve(id); err != nil {
		return nil, err
	}

	j := &Job{
		ID:           id,
		InstanceName: InstanceName(id),
		Profile:      req.Profile,
		MachineType:  profile.MachineType,
		Forward:      forwardKey,
		Reverse:      reverseKey,
		Steps:        ordered,
		Callback:     req.Callback,
		LaunchedAt:   time.Now(),
	}

	script := pipeline.RenderScript(pipeline.ScriptParams{
		JobID:         id,
		Bucket:        o.cfg.Bucket,
		RepositoryURL: o.cfg.RepositoryURL,
		ForwardURI:    o.objectURI(forwardKey),
		ReverseURI:    o.objectURI(reverseKey),
		Threads:       threads,
		MinContigLen:  minContigLen,
		Steps:         ordered,
	})

	logger := o.logger.With("jobId", id, "instance", j.InstanceName, "machineType", profile.MachineType)
	logger.Info("Launching pipeline instance")

	op, err := o.compute.CreateInstance(ctx, gateway.InstanceSpec{
		Name:           j.InstanceName,
		MachineType:    profile.MachineType,
		BootDiskSizeGB: profile.BootDiskSizeGB,
		Preemptible:    profile.Preemptible,
		StartupScript:  script,
		Labels:         instanceLabels,
	})
	if err != nil {
		o.registry.Release(id)
		logger.Error("Instance creation failed", "error", err)
		return nil, apperrors.Provisioning("compute.createInstance", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, o.cfg.CreateTimeout)
	defer cancel()

	if err := op.Wait(waitCtx, o.cfg.CreateInterval); err != nil {
		o.registry.Release(id)
		o.cleanup(j.InstanceName)

		if errors.Is(err, context.DeadlineExceeded) {
			logger.Error("Instance creation timed out", "timeout", o.cfg.CreateTimeout)
			return nil, apperrors.ProvisioningTimeout("compute.createInstance", err)
		}
		logger.Error("Instance creation operation failed", "error", err)
		return nil, apperrors.Provisioning("compute.createInstance", err)
	}

	if err := o.registry.Commit(j); err != nil {
		o.cleanup(j.InstanceName)
		return nil, err
	}

	logger.Info("Pipeline instance launched")
	return j, nil
}

// Cancel deletes the job's instance. A missing instance is treated as
// success so cancellation stays idempotent.
func (o *Orchestrator) Cancel(ctx context.Context, id string) (*Job, error) {
	j, ok := o.registry.Get(id)
	if !ok {
		return nil, apperrors.NotFound("job", id)
	}

	logger := o.logger.With("jobId", id, "instance", j.InstanceName)

	if _, err := o.compute.DeleteInstance(ctx, j.InstanceName); err != nil {
		logger.Error("Instance deletion failed", "error", err)
		return nil, apperrors.Cancellation("compute.deleteInstance", err)
	}

	o.registry.MarkCancelled(id)
	j.Cancelled = true
	logger.Info("Pipeline instance deleted")
	return &j, nil
}

// cleanup best-effort deletes an instance after a failed launch.
func (o *Orchestrator) cleanup(instanceName string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := o.compute.DeleteInstance(ctx, instanceName); err != nil {
		o.logger.Warn("Cleanup of failed instance did not succeed", "instance", instanceName, "error", err)
	}
}

func (o *Orchestrator) objectURI(key string) string {
	return fmt.Sprintf("gs://%s/%s", o.cfg.Bucket, key)
}

// baseNames strips key prefixes so pairing rules see file names only.
func baseNames(keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = path.Base(k)
	}
	return out
}

// matchKeys maps the forward base name back to its original key, returning
// (forwardKey, reverseKey).
func matchKeys(keys []string, forwardBase string) (string, string) {
	if len(keys) != 2 {
		return "", ""
	}
	if path.Base(keys[0]) == forwardBase {
		return keys[0], keys[1]
	}
	return keys[1], keys[0]
}
