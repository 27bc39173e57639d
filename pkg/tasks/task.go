package tasks

import (
	"time"
)

// Property names of the remote task database.
const (
	PropertyCommand     = "Command"
	PropertyAction      = "Action"
	PropertyStatus      = "Status"
	PropertyCreatedAt   = "Created At"
	PropertyLastUpdated = "Last Updated"
)

// RequiredProperties are the properties a task database must define.
var RequiredProperties = []string{
	PropertyCommand,
	PropertyAction,
	PropertyStatus,
}

// StatusDone is the status written by the complete operation.
const StatusDone = "Done"

// CopySuffix is appended to the command of a duplicated task.
const CopySuffix = " (Copy)"

// Task is a single record in the remote task database.
type Task struct {
	// ID is the remote page ID. It is never returned to API callers.
	ID string `json:"-" yaml:"-"`

	Command string `json:"Command" yaml:"command"`
	Action  string `json:"Action" yaml:"action"`
	Status  string `json:"Status" yaml:"status"`

	// CreatedTime is the creation time reported by the remote service.
	CreatedTime time.Time `json:"-" yaml:"created_time,omitempty"`

	// CreatedAt and LastUpdated are the ISO-8601 values this service writes
	// into the "Created At" and "Last Updated" properties.
	CreatedAt   string `json:"-" yaml:"created_at,omitempty"`
	LastUpdated string `json:"-" yaml:"last_updated,omitempty"`
}

// NewTask is the input for creating a task.
type NewTask struct {
	Command string
	Action  string
	Status  string

	// Timestamp is written to both "Created At" and "Last Updated".
	Timestamp time.Time
}

// Patch describes an update to an existing task. Nil fields are left
// unchanged.
type Patch struct {
	Action      *string
	Status      *string
	LastUpdated *time.Time
}

// IsEmpty returns true if the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Action == nil && p.Status == nil && p.LastUpdated == nil
}

// FormatTimestamp formats t the way timestamps are stored in task properties.
func FormatTimestamp(t time.Time) string {
	return t.Format("2006-01-02T15:04:05.000000")
}
