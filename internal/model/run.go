package model

import "time"

// RunStatus represents the current state of a reconciliation run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// RunInput identifies the inputs of a reconciliation run.
type RunInput struct {
	GEDCOMPath     string     `json:"gedcom_path"`
	ExtractionPath string     `json:"extraction_path"`
	Parameters     Parameters `json:"parameters"`
}

// Run is a persisted reconciliation run.
type Run struct {
	ID        string    `json:"id"`
	Input     RunInput  `json:"input"`
	Status    RunStatus `json:"status"`
	Summary   *Summary  `json:"summary,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
