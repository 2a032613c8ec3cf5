package dto

import (
	"time"

	"github.com/flowpay/helpdesk/internal/domain"
)

// CreateTicketRequest is the ticket creation payload.
type CreateTicketRequest struct {
	CustomerName string               `json:"customerName"`
	Subject      domain.TicketSubject `json:"subject"`
}

// AgentRef is the minimal agent reference embedded in ticket responses.
type AgentRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TicketResponse is the fully resolved ticket projection returned by the API
// and carried in push events.
type TicketResponse struct {
	ID            string               `json:"id"`
	CustomerName  string               `json:"customerName"`
	Subject       domain.TicketSubject `json:"subject"`
	Status        domain.TicketStatus  `json:"status"`
	AgentID       *string              `json:"agentId,omitempty"`
	Agent         *AgentRef            `json:"agent,omitempty"`
	QueuePosition *int                 `json:"queuePosition,omitempty"`
	StartedAt     *time.Time           `json:"startedAt,omitempty"`
	CompletedAt   *time.Time           `json:"completedAt,omitempty"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

// NewTicketResponse builds the projection. The agent argument may be nil when
// the ticket is unassigned.
func NewTicketResponse(ticket *domain.Ticket, agent *domain.Agent) TicketResponse {
	resp := TicketResponse{
		ID:            ticket.ID,
		CustomerName:  ticket.CustomerName,
		Subject:       ticket.Subject,
		Status:        ticket.Status,
		AgentID:       ticket.AgentID,
		QueuePosition: ticket.QueuePosition,
		StartedAt:     ticket.StartedAt,
		CompletedAt:   ticket.CompletedAt,
		CreatedAt:     ticket.CreatedAt,
		UpdatedAt:     ticket.UpdatedAt,
	}
	if agent != nil {
		resp.Agent = &AgentRef{ID: agent.ID, Name: agent.Name}
	}
	return resp
}
