// Package gce implements the gateway.Compute contract on Google Compute Engine.
package gce

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	compute "cloud.google.com/go/compute/apiv1"
	"cloud.google.com/go/compute/apiv1/computepb"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/proto"

	"metapipe/internal/gateway"
)

// Gateway is a gateway.Compute backed by the Compute Engine API.
type Gateway struct {
	client      *compute.InstancesClient
	projectID   string
	zone        string
	sourceImage string
	network     string
}

// Config holds the GCE target for instance operations.
type Config struct {
	ProjectID   string
	Zone        string
	SourceImage string // boot image, e.g. projects/ubuntu-os-cloud/global/images/family/ubuntu-2204-lts
	Network     string // e.g. global/networks/default
	KeyFile     string // service account key path, empty = ADC
}

// New creates a compute gateway for the configured project and zone.
func New(ctx context.Context, cfg Config) (*Gateway, error) {
	var opts []option.ClientOption
	if cfg.KeyFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.KeyFile))
	}
	client, err := compute.NewInstancesRESTClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create compute client: %w", err)
	}
	return &Gateway{
		client:      client,
		projectID:   cfg.ProjectID,
		zone:        cfg.Zone,
		sourceImage: cfg.SourceImage,
		network:     cfg.Network,
	}, nil
}

// CreateInstance requests a new preemptible-capable instance carrying the
// startup script in its metadata.
func (g *Gateway) CreateInstance(ctx context.Context, spec gateway.InstanceSpec) (gateway.Operation, error) {
	instance := &computepb.Instance{
		Name:        proto.String(spec.Name),
		MachineType: proto.String(fmt.Sprintf("zones/%s/machineTypes/%s", g.zone, spec.MachineType)),
		Disks: []*computepb.AttachedDisk{{
			Boot:       proto.Bool(true),
			AutoDelete: proto.Bool(true),
			InitializeParams: &computepb.AttachedDiskInitializeParams{
				SourceImage: proto.String(g.sourceImage),
				DiskSizeGb:  proto.Int64(spec.BootDiskSizeGB),
			},
		}},
		NetworkInterfaces: []*computepb.NetworkInterface{{
			Network: proto.String(g.network),
			AccessConfigs: []*computepb.AccessConfig{{
				Name: proto.String("External NAT"),
				Type: proto.String("ONE_TO_ONE_NAT"),
			}},
		}},
		Metadata: &computepb.Metadata{
			Items: []*computepb.Items{{
				Key:   proto.String("startup-script"),
				Value: proto.String(spec.StartupScript),
			}},
		},
		Scheduling: &computepb.Scheduling{
			Preemptible:       proto.Bool(spec.Preemptible),
			AutomaticRestart:  proto.Bool(false),
			OnHostMaintenance: proto.String("TERMINATE"),
		},
		ServiceAccounts: []*computepb.ServiceAccount{{
			Email: proto.String("default"),
			Scopes: []string{
				"https://www.googleapis.com/auth/cloud-platform",
				"https://www.googleapis.com/auth/devstorage.full_control",
			},
		}},
		Labels: spec.Labels,
	}

	op, err := g.client.Insert(ctx, &computepb.InsertInstanceRequest{
		Project:          g.projectID,
		Zone:             g.zone,
		InstanceResource: instance,
	})
	if err != nil {
		return nil, fmt.Errorf("insert instance %s: %w", spec.Name, err)
	}
	return &operation{op: op}, nil
}

// DeleteInstance requests instance deletion. A missing instance completes
// immediately: cancelling twice must be tolerated as success.
func (g *Gateway) DeleteInstance(ctx context.Context, name string) (gateway.Operation, error) {
	op, err := g.client.Delete(ctx, &computepb.DeleteInstanceRequest{
		Project:  g.projectID,
		Zone:     g.zone,
		Instance: name,
	})
	if isNotFound(err) {
		return completedOperation{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("delete instance %s: %w", name, err)
	}
	return &operation{op: op}, nil
}

// InstanceStatus reports the instance state, or StatusNotFound when the
// instance no longer exists.
func (g *Gateway) InstanceStatus(ctx context.Context, name string) (gateway.InstanceStatus, error) {
	instance, err := g.client.Get(ctx, &computepb.GetInstanceRequest{
		Project:  g.projectID,
		Zone:     g.zone,
		Instance: name,
	})
	if isNotFound(err) {
		return gateway.StatusNotFound, nil
	}
	if err != nil {
		return gateway.StatusUnknown, fmt.Errorf("get instance %s: %w", name, err)
	}
	return NormalizeStatus(instance.GetStatus()), nil
}

// Ready verifies the control plane is reachable for the configured zone.
func (g *Gateway) Ready(ctx context.Context) error {
	it := g.client.List(ctx, &computepb.ListInstancesRequest{
		Project:    g.projectID,
		Zone:       g.zone,
		MaxResults: proto.Uint32(1),
	})
	if _, err := it.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return fmt.Errorf("compute api unreachable: %w", err)
	}
	return nil
}

// Close releases the underlying client. Instances are not touched.
func (g *Gateway) Close() error {
	return g.client.Close()
}

// NormalizeStatus maps a GCE instance status string onto the gateway enum.
// GCE also reports transitional states (STOPPING, SUSPENDING, REPAIRING);
// those surface as unknown since the tracker has no mapping for them.
func NormalizeStatus(status string) gateway.InstanceStatus {
	switch status {
	case "PROVISIONING":
		return gateway.StatusProvisioning
	case "STAGING":
		return gateway.StatusStaging
	case "RUNNING":
		return gateway.StatusRunning
	case "TERMINATED", "STOPPED":
		return gateway.StatusTerminated
	default:
		return gateway.StatusUnknown
	}
}

// operation adapts a compute LRO to the gateway.Operation contract.
type operation struct {
	op *compute.Operation
}

// Wait polls at the given interval until the operation is done or ctx
// expires. Operation errors surface from Poll.
func (o *operation) Wait(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := o.op.Poll(ctx); err != nil {
			return err
		}
		if o.op.Done() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// completedOperation is an already-terminal no-op operation.
type completedOperation struct{}

func (completedOperation) Wait(context.Context, time.Duration) error { return nil }

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}

var _ gateway.Compute = (*Gateway)(nil)
