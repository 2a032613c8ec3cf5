package domain

import "time"

// DefaultMaxConcurrent is the concurrency cap applied to agents at onboarding.
const DefaultMaxConcurrent = 3

// Agent is a person who can be assigned tickets, capped at MaxConcurrent
// simultaneous in-progress tickets. The active ticket count is always derived
// from the ticket set, never stored on the agent.
type Agent struct {
	ID            string
	Name          string
	Email         string
	TeamID        string
	MaxConcurrent int
	IsOnline      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
