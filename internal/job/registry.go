package job

import (
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"metapipe/internal/apperrors"
)

// Job is the in-memory record of a launched pipeline job. The remote
// instance and storage objects are the durable truth; this record only
// binds the id to its instance and launch parameters. A process restart
// loses the registry, which is acceptable for single-session operation.
type Job struct {
	ID           string
	InstanceName string
	Profile      string
	MachineType  string
	Forward      string // input object key, forward reads
	Reverse      string // input object key, reverse reads
	Steps        []string
	Callback     *Callback
	LaunchedAt   time.Time
	Cancelled    bool
	Finished     bool // terminal transition already observed and notified
}

// NewJobID allocates a job id of the form job_<8-hex>_<unix-epoch>.
func NewJobID() string {
	u := uuid.New()
	return fmt.Sprintf("job_%s_%d", hex.EncodeToString(u[:4]), time.Now().Unix())
}

// InstanceName derives the instance name for a job id. Compute instance
// names must be RFC1035 labels, so underscores map to hyphens.
func InstanceName(jobID string) string {
	return "pipeline-" + strings.ReplaceAll(jobID, "_", "-")
}

// Registry is the in-memory session registry of launched jobs.
// A reservation holds an id while provisioning is in flight so concurrent
// launches can never commit the same id twice.
type Registry struct {
	mu       sync.RWMutex
	jobs     map[string]*Job
	reserved map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		jobs:     make(map[string]*Job),
		reserved: make(map[string]struct{}),
	}
}

// Reserve claims a job id ahead of provisioning.
func (r *Registry) Reserve(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[id]; ok {
		return apperrors.Conflict("job", id, fmt.Sprintf("job %s already exists", id))
	}
	if _, ok := r.reserved[id]; ok {
		return apperrors.Conflict("job", id, fmt.Sprintf("job id %s already reserved", id))
	}
	r.reserved[id] = struct{}{}
	return nil
}

// Commit converts a reservation into a live job record.
func (r *Registry) Commit(j *Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.reserved[j.ID]; !ok {
		return apperrors.Internal("registry.commit", fmt.Errorf("no reservation for %s", j.ID))
	}
	delete(r.reserved, j.ID)
	r.jobs[j.ID] = j
	return nil
}

// Release abandons a reservation after a failed launch.
func (r *Registry) Release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.reserved, id)
}

// Get returns a copy of the job record.
func (r *Registry) Get(id string) (Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	j, ok := r.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *j, true
}

// MarkCancelled flags a job as locally cancelled. Remote signals carry no
// cancellation state, so this flag is the only record of it.
func (r *Registry) MarkCancelled(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[id]
	if !ok {
		return false
	}
	j.Cancelled = true
	return true
}

// MarkFinished records the first observed terminal transition for a job.
// Returns true only on the first call, so lifecycle notifications fire once.
func (r *Registry) MarkFinished(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[id]
	if !ok || j.Finished {
		return false
	}
	j.Finished = true
	return true
}

// Snapshot returns summaries of all registered jobs.
func (r *Registry) Snapshot() []Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Summary, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, Summary{
			ID:           j.ID,
			InstanceName: j.InstanceName,
			MachineType:  j.MachineType,
			LaunchedAt:   j.LaunchedAt,
			Cancelled:    j.Cancelled,
		})
	}
	return out
}
