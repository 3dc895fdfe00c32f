package project

// Status is the server-authoritative lifecycle state of a project.
// The client never invents a status, it only reflects the last reported value.
// Lifecycle: pending -> processing -> {completed, failed}; failed -> processing
// again via a retried generate. Completed is terminal.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Known reports whether s is one of the four lifecycle states.
func (s Status) Known() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether no further generation work is expected.
// Failed is not terminal: generate may be retried.
func (s Status) Terminal() bool {
	return s == StatusCompleted
}

// Results returns the metrics and artifacts for a completed project.
// For any other status both are nil regardless of what the wire carried,
// keeping the optional fields tied to the state they belong to.
func (p *Project) Results() (*Metrics, []Artifact) {
	if p.Status != StatusCompleted {
		return nil, nil
	}
	return p.Metrics, p.Artifacts
}
