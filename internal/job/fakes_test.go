package job

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"metapipe/internal/config"
	"metapipe/internal/gateway"
)

// fakeOperation is a gateway.Operation with scripted behavior.
type fakeOperation struct {
	err        error
	waitForCtx bool // block until the context expires
}

func (o *fakeOperation) Wait(ctx context.Context, interval time.Duration) error {
	if o.waitForCtx {
		<-ctx.Done()
		return ctx.Err()
	}
	return o.err
}

// fakeCompute is an in-memory gateway.Compute.
type fakeCompute struct {
	mu        sync.Mutex
	instances map[string]gateway.InstanceStatus
	created   []gateway.InstanceSpec
	deleted   []string

	createErr error
	deleteErr error
	statusErr error
	op        *fakeOperation
}

func newFakeCompute() *fakeCompute {
	return &fakeCompute{instances: make(map[string]gateway.InstanceStatus)}
}

func (f *fakeCompute) CreateInstance(ctx context.Context, spec gateway.InstanceSpec) (gateway.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, spec)
	f.instances[spec.Name] = gateway.StatusRunning
	if f.op != nil {
		return f.op, nil
	}
	return &fakeOperation{}, nil
}

func (f *fakeCompute) DeleteInstance(ctx context.Context, name string) (gateway.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	f.deleted = append(f.deleted, name)
	delete(f.instances, name)
	return &fakeOperation{}, nil
}

func (f *fakeCompute) InstanceStatus(ctx context.Context, name string) (gateway.InstanceStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusErr != nil {
		return gateway.StatusUnknown, f.statusErr
	}
	status, ok := f.instances[name]
	if !ok {
		return gateway.StatusNotFound, nil
	}
	return status, nil
}

func (f *fakeCompute) setStatus(name string, status gateway.InstanceStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.instances[name] = status
}

func (f *fakeCompute) Ready(ctx context.Context) error { return nil }
func (f *fakeCompute) Close() error                    { return nil }

// fakeStorage is an in-memory gateway.Storage.
type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte

	existsErr error
	getErr    error
	listErr   error
	signErr   error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (f *fakeStorage) Put(ctx context.Context, key string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return nil
}

func (f *fakeStorage) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return data, nil
}

func (f *fakeStorage) Exists(ctx context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existsErr != nil {
		return false, f.existsErr
	}
	_, ok := f.objects[key]
	return ok, nil
}

func (f *fakeStorage) List(ctx context.Context, prefix string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (f *fakeStorage) SignedURL(key string, expiry time.Duration) (string, error) {
	if f.signErr != nil {
		return "", f.signErr
	}
	return "https://signed.example.com/" + key, nil
}

func (f *fakeStorage) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeStorage) Ready(ctx context.Context) error { return nil }
func (f *fakeStorage) Close() error                    { return nil }

// testConfig returns a CloudConfig usable without any environment.
func testConfig() *config.CloudConfig {
	return &config.CloudConfig{
		ProjectID:     "test-project",
		Zone:          "us-central1-a",
		Bucket:        "test-bucket",
		RepositoryURL: "https://example.com/pipeline.git",
		Profiles: map[string]config.MachineProfile{
			"standard": {MachineType: "n1-standard-16", BootDiskSizeGB: 100, Preemptible: true},
			"highmem":  {MachineType: "n1-highmem-16", BootDiskSizeGB: 100, Preemptible: true},
		},
		HourlyRates: map[string]float64{
			"n1-standard-16": 0.38,
			"n1-highmem-16":  0.47,
		},
		DefaultThreads:      16,
		DefaultMinContigLen: 1000,
		SignedURLExpiry:     2 * time.Hour,
		CreateTimeout:       200 * time.Millisecond,
		CreateInterval:      10 * time.Millisecond,
	}
}

var _ gateway.Compute = (*fakeCompute)(nil)
var _ gateway.Storage = (*fakeStorage)(nil)
