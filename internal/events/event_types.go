package events

import (
	"time"

	"github.com/flowpay/helpdesk/internal/api/dto"
	"github.com/flowpay/helpdesk/internal/domain"
)

// EventType enumerates supported event identifiers. The values double as the
// wire names pushed to dashboard observers.
type EventType string

const (
	EventTicketCreated      EventType = "ticket:created"
	EventTicketAssigned     EventType = "ticket:assigned"
	EventTicketCompleted    EventType = "ticket:completed"
	EventQueueUpdated       EventType = "queue:updated"
	EventAgentStatusChanged EventType = "agent:status-changed"
	EventDashboardStats     EventType = "dashboard:stats"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Ticket        dto.TicketResponse `json:"ticket"`
	QueuePosition *int               `json:"queuePosition,omitempty"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	Ticket dto.TicketResponse `json:"ticket"`
	Agent  dto.AgentResponse  `json:"agent"`
}

// TicketCompletedPayload payload.
type TicketCompletedPayload struct {
	Ticket dto.TicketResponse `json:"ticket"`
	Agent  dto.AgentResponse  `json:"agent"`
}

// QueueUpdatedPayload payload.
type QueueUpdatedPayload struct {
	TeamType  domain.TeamType `json:"teamType"`
	QueueSize int             `json:"queueSize"`
}

// AgentStatusChangedPayload payload.
type AgentStatusChangedPayload struct {
	Agent       dto.AgentResponse `json:"agent"`
	ActiveCount int               `json:"activeCount"`
}

// DashboardStatsPayload payload.
type DashboardStatsPayload struct {
	Stats dto.DashboardStats `json:"stats"`
}

// AllTypes lists every event type an observer can subscribe to.
func AllTypes() []EventType {
	return []EventType{
		EventTicketCreated,
		EventTicketAssigned,
		EventTicketCompleted,
		EventQueueUpdated,
		EventAgentStatusChanged,
		EventDashboardStats,
	}
}
