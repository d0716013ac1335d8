// Package gateway defines the external collaborator contracts: the durable
// object store and the remote VM control plane. The job core depends only on
// these interfaces; concrete bindings live in the subpackages.
package gateway

import (
	"context"
	"time"
)

// InstanceStatus is the state reported by the compute control plane.
// Read-only from the core's perspective.
type InstanceStatus string

const (
	StatusProvisioning InstanceStatus = "PROVISIONING"
	StatusStaging      InstanceStatus = "STAGING"
	StatusRunning      InstanceStatus = "RUNNING"
	StatusTerminated   InstanceStatus = "TERMINATED"
	StatusNotFound     InstanceStatus = "NOT_FOUND"
	StatusUnknown      InstanceStatus = "UNKNOWN"
)

// InstanceSpec describes a single-use instance to provision.
type InstanceSpec struct {
	Name           string
	MachineType    string
	BootDiskSizeGB int64
	Preemptible    bool
	StartupScript  string
	Labels         map[string]string // operator auditability (purpose, auto-delete)
}

// Operation is a handle on an in-flight control-plane operation.
type Operation interface {
	// Wait polls the operation at the given interval until it reaches a
	// terminal state or ctx expires. Returns the operation's error, if any;
	// ctx expiry surfaces as the context's error.
	Wait(ctx context.Context, interval time.Duration) error
}

// Compute is the remote VM control plane contract.
type Compute interface {
	// CreateInstance requests a new instance. The returned operation must be
	// waited on; a nil error does not mean the instance is ready.
	CreateInstance(ctx context.Context, spec InstanceSpec) (Operation, error)

	// DeleteInstance requests instance deletion. A missing instance is not
	// an error: implementations return a completed no-op operation.
	DeleteInstance(ctx context.Context, name string) (Operation, error)

	// InstanceStatus reports the instance state. A missing instance returns
	// StatusNotFound with a nil error.
	InstanceStatus(ctx context.Context, name string) (InstanceStatus, error)

	// Ready checks the control plane is reachable.
	Ready(ctx context.Context) error

	// Close releases client resources. Instances are NOT touched.
	Close() error
}

// Storage is the durable object store contract. Keys are slash-separated
// paths within a single configured bucket.
type Storage interface {
	// Put writes an object, replacing any existing content.
	Put(ctx context.Context, key string, data []byte) error

	// Get reads an entire object.
	Get(ctx context.Context, key string) ([]byte, error)

	// Exists reports whether any object exists at exactly this key.
	Exists(ctx context.Context, key string) (bool, error)

	// List returns the keys of all objects under the prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// SignedURL generates a time-limited read URL for an object.
	SignedURL(key string, expiry time.Duration) (string, error)

	// Delete removes an object.
	Delete(ctx context.Context, key string) error

	// Ready checks the bucket is reachable.
	Ready(ctx context.Context) error

	// Close releases client resources.
	Close() error
}
