// Package api defines the types served by the supervisor's observability
// endpoint.
package api

import "time"

// StatusReport is a point-in-time view of the supervisor.
type StatusReport struct {
	Label        string    `json:"label,omitempty"`
	Pid          int       `json:"pid"`
	Command      []string  `json:"command"`
	Respawn      bool      `json:"respawn"`
	ShuttingDown bool      `json:"shutting_down"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// StatusProvider produces the current report.
type StatusProvider func() StatusReport
