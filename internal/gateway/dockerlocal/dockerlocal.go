// Package dockerlocal implements the gateway.Compute contract on the local
// Docker daemon. Instead of provisioning a cloud VM, the bootstrap script
// runs inside a container on the developer's machine. Container lifecycle
// states map onto the instance status enum, so the orchestrator and tracker
// behave identically against this backend. Intended for dry-runs only.
package dockerlocal

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"

	"metapipe/internal/gateway"
)

// Gateway is a gateway.Compute backed by the local Docker daemon.
type Gateway struct {
	client *client.Client
	image  string
}

// New creates a local compute gateway. image is the base image the bootstrap
// script runs in (it needs bash and network access).
func New(image string) (*Gateway, error) {
	dockerClient, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	if image == "" {
		image = "ubuntu:22.04"
	}
	return &Gateway{client: dockerClient, image: image}, nil
}

// CreateInstance starts a container named after the instance, running the
// startup script as its entrypoint. Machine type and disk size are recorded
// as labels but otherwise ignored; the local daemon has no such knobs.
func (g *Gateway) CreateInstance(ctx context.Context, spec gateway.InstanceSpec) (gateway.Operation, error) {
	labels := map[string]string{
		"managed-by":   "metapipe",
		"machine-type": spec.MachineType,
	}
	for k, v := range spec.Labels {
		labels[k] = v
	}

	containerConfig := &container.Config{
		Image:  g.image,
		Cmd:    []string{"/bin/bash", "-c", spec.StartupScript},
		Labels: labels,
	}
	hostConfig := &container.HostConfig{
		AutoRemove: false, // state must stay inspectable after exit
	}

	resp, err := g.client.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, spec.Name)
	if err != nil {
		return nil, fmt.Errorf("create container %s: %w", spec.Name, err)
	}
	if err := g.client.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return nil, fmt.Errorf("start container %s: %w", spec.Name, err)
	}
	return completedOperation{}, nil
}

// DeleteInstance force-removes the container. Missing containers are
// tolerated: repeated cancellation must succeed.
func (g *Gateway) DeleteInstance(ctx context.Context, name string) (gateway.Operation, error) {
	err := g.client.ContainerRemove(ctx, name, container.RemoveOptions{Force: true})
	if err != nil && !client.IsErrNotFound(err) {
		return nil, fmt.Errorf("remove container %s: %w", name, err)
	}
	return completedOperation{}, nil
}

// InstanceStatus maps the container state onto the instance status enum.
func (g *Gateway) InstanceStatus(ctx context.Context, name string) (gateway.InstanceStatus, error) {
	inspect, err := g.client.ContainerInspect(ctx, name)
	if client.IsErrNotFound(err) {
		return gateway.StatusNotFound, nil
	}
	if err != nil {
		return gateway.StatusUnknown, fmt.Errorf("inspect container %s: %w", name, err)
	}
	if inspect.State == nil {
		return gateway.StatusUnknown, nil
	}
	return NormalizeState(inspect.State.Status), nil
}

// Ready verifies the Docker daemon is reachable.
func (g *Gateway) Ready(ctx context.Context) error {
	if _, err := g.client.Ping(ctx); err != nil {
		return fmt.Errorf("docker daemon unreachable: %w", err)
	}
	return nil
}

// Close releases the client. Containers are not touched.
func (g *Gateway) Close() error {
	return g.client.Close()
}

// NormalizeState maps a Docker container state string onto the instance
// status enum. An exited container plays the role of a terminated VM.
func NormalizeState(state string) gateway.InstanceStatus {
	switch state {
	case "created":
		return gateway.StatusProvisioning
	case "restarting":
		return gateway.StatusStaging
	case "running", "paused":
		return gateway.StatusRunning
	case "exited", "dead", "removing":
		return gateway.StatusTerminated
	default:
		return gateway.StatusUnknown
	}
}

// completedOperation mirrors the synchronous nature of local container
// starts: there is no long-running operation to poll.
type completedOperation struct{}

func (completedOperation) Wait(context.Context, time.Duration) error { return nil }

var _ gateway.Compute = (*Gateway)(nil)
