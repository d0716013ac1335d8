package job

import "time"

// Request represents a request to launch a new pipeline job.
type Request struct {
	Inputs       []string  `json:"inputs"`                 // exactly two object keys under inputs/
	Profile      string    `json:"profile,omitempty"`      // machine profile name (default: standard)
	Threads      int       `json:"threads,omitempty"`      // worker threads on the instance
	MinContigLen int       `json:"minContigLen,omitempty"` // minimum assembled contig length (bp)
	Steps        []string  `json:"steps,omitempty"`        // step ids to run, empty = all
	Callback     *Callback `json:"callback,omitempty"`
}

// Callback represents callback configuration for a job.
type Callback struct {
	URL    string `json:"url"`
	Secret string `json:"secret,omitempty"` // HMAC signing key
}

// Response represents the response when a job is launched.
type Response struct {
	ID           string  `json:"id"`
	InstanceName string  `json:"instanceName"`
	MachineType  string  `json:"machineType"`
	Status       string  `json:"status"` // "launched"
	Forward      string  `json:"forward"`
	Reverse      string  `json:"reverse"`
	HourlyRate   float64 `json:"hourlyRate"`
}

// StepStatus is the derived state of one pipeline step.
type StepStatus struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	State    string `json:"state"` // pending | running | complete
	Progress int    `json:"progress"`
}

// Status is the authoritative job status derived on each poll.
// It is recomputed from remote signals every time, never stored.
type Status struct {
	ID             string       `json:"id"`
	State          string       `json:"status"`
	Progress       int          `json:"progress"`
	CurrentStep    string       `json:"currentStep,omitempty"`
	Steps          []StepStatus `json:"steps,omitempty"`
	InstanceStatus string       `json:"instanceStatus"`
	ElapsedSeconds float64      `json:"elapsedSeconds"`
	EstimatedCost  float64      `json:"estimatedCost"`
	Error          string       `json:"error,omitempty"`
}

// Summary is a registry snapshot entry for job listings.
type Summary struct {
	ID           string    `json:"id"`
	InstanceName string    `json:"instanceName"`
	MachineType  string    `json:"machineType"`
	LaunchedAt   time.Time `json:"launchedAt"`
	Cancelled    bool      `json:"cancelled"`
}

// ListResponse represents the response for listing jobs.
type ListResponse struct {
	Jobs []Summary `json:"jobs"`
}

// Artifact is a classified result object with a time-limited access URL.
type Artifact struct {
	Category string `json:"category"`
	Object   string `json:"object"`
	URL      string `json:"url"`
}

// ResultsResponse represents the response for listing a job's results.
type ResultsResponse struct {
	ID        string     `json:"id"`
	Artifacts []Artifact `json:"artifacts"`
}

// Job state constants. Step states reuse the pending/running/complete subset.
const (
	StateStarting  = "starting"
	StateRunning   = "running"
	StateComplete  = "complete"
	StateFailed    = "failed"
	StateCancelled = "cancelled"
	StateUnknown   = "unknown"
	StateError     = "error"

	StepPending  = "pending"
	StepRunning  = "running"
	StepComplete = "complete"
)
