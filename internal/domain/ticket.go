package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets. Transitions only move
// forward: WAITING -> IN_PROGRESS -> COMPLETED.
type TicketStatus string

const (
	TicketStatusWaiting    TicketStatus = "WAITING"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusCompleted  TicketStatus = "COMPLETED"
)

// Ticket is the unit of customer work routed through the engine.
//
// Invariants: QueuePosition is non-nil iff status is WAITING; AgentID and
// StartedAt are non-nil iff status is IN_PROGRESS or COMPLETED. Tickets are
// never deleted, only transitioned.
type Ticket struct {
	ID            string
	CustomerName  string
	Subject       TicketSubject
	Status        TicketStatus
	AgentID       *string
	CompletedByID *string
	QueuePosition *int
	StartedAt     *time.Time
	CompletedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
