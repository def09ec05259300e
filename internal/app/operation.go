package app

import (
	"strings"
	"time"
)

// Operation describes one CLI command run. Its ID tags every log line the
// command writes.
type Operation struct {
	ID         string
	Name       string
	Parameters string
	Status     string // "success" or "error"
	Started    time.Time
}

// NewOperation starts an operation at now.
func NewOperation(name string, parameters []string, now time.Time) *Operation {
	return &Operation{
		ID:         now.UTC().Format("20060102T150405Z"),
		Name:       name,
		Parameters: strings.Join(parameters, " "),
		Status:     "success",
		Started:    now,
	}
}

// Fail marks the operation as failed.
func (op *Operation) Fail() { op.Status = "error" }

// Succeeded reports whether no failure was recorded.
func (op *Operation) Succeeded() bool { return op.Status == "success" }
