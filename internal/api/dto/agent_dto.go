package dto

import (
	"time"

	"github.com/flowpay/helpdesk/internal/domain"
)

// UpdateAgentStatusRequest toggles an agent's online flag.
type UpdateAgentStatusRequest struct {
	IsOnline *bool `json:"isOnline"`
}

// TeamRef is the team reference embedded in agent responses.
type TeamRef struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Type domain.TeamType `json:"type"`
}

// AgentResponse is the agent projection with its derived active ticket count.
type AgentResponse struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	TeamID             string    `json:"teamId"`
	Team               TeamRef   `json:"team"`
	MaxConcurrent      int       `json:"maxConcurrent"`
	ActiveTicketsCount int       `json:"activeTicketsCount"`
	IsOnline           bool      `json:"isOnline"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// NewAgentResponse builds the projection from an agent, its team and the
// freshly derived active count.
func NewAgentResponse(agent *domain.Agent, team *domain.Team, activeCount int) AgentResponse {
	return AgentResponse{
		ID:                 agent.ID,
		Name:               agent.Name,
		Email:              agent.Email,
		TeamID:             agent.TeamID,
		Team:               TeamRef{ID: team.ID, Name: team.Name, Type: team.Type},
		MaxConcurrent:      agent.MaxConcurrent,
		ActiveTicketsCount: activeCount,
		IsOnline:           agent.IsOnline,
		CreatedAt:          agent.CreatedAt,
		UpdatedAt:          agent.UpdatedAt,
	}
}
