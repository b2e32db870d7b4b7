package model

import "time"

// InvocationStatus is the terminal state of a single function invocation.
type InvocationStatus string

const (
	InvocationSucceeded InvocationStatus = "succeeded"
	InvocationFailed    InvocationStatus = "failed"
)

// Invocation records one run of a function for one trigger event.
// This is a pure domain model with no database-specific dependencies or tags.
type Invocation struct {
	ID           string           `json:"id"`
	Function     string           `json:"function"`
	TriggerPath  string           `json:"trigger_path"`
	OutputPath   string           `json:"output_path"`
	Status       InvocationStatus `json:"status"`
	Error        string           `json:"error,omitempty"`
	BytesWritten int64            `json:"bytes_written"`
	StartedAt    time.Time        `json:"started_at"`
	DurationMs   int64            `json:"duration_ms"`
}
