// Package webhook provides signed job lifecycle event delivery.
package webhook

import "time"

// Event types emitted over the lifetime of a pipeline job.
const (
	TypeJobLaunched  = "job.launched"
	TypeJobComplete  = "job.complete"
	TypeJobFailed    = "job.failed"
	TypeJobCancelled = "job.cancelled"
)

// Event is the payload posted to a job's callback URL.
type Event struct {
	Type   string         `json:"type"`
	Source string         `json:"source"`
	JobID  string         `json:"job_id"`
	ID     string         `json:"id"`
	Time   time.Time      `json:"time"`
	Data   map[string]any `json:"data,omitempty"`
}

// New creates an event stamped with the current time.
func New(eventType, source, jobID, id string, data map[string]any) *Event {
	return &Event{
		Type:   eventType,
		Source: source,
		JobID:  jobID,
		ID:     id,
		Time:   time.Now().UTC(),
		Data:   data,
	}
}
