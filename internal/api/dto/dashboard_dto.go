package dto

import (
	"time"

	"github.com/flowpay/helpdesk/internal/domain"
)

// DashboardStats carries system-wide counters for the dashboard.
type DashboardStats struct {
	TotalTickets int     `json:"totalTickets"`
	InProgress   int     `json:"inProgress"`
	InQueue      int     `json:"inQueue"`
	Completed    int     `json:"completed"`
	AvgWaitTime  float64 `json:"avgWaitTime"`
}

// TeamResponse is the team projection with derived roster and load figures.
type TeamResponse struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Type               domain.TeamType `json:"type"`
	AgentsCount        int             `json:"agentsCount"`
	ActiveTicketsCount int             `json:"activeTicketsCount"`
	QueueSize          int             `json:"queueSize"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// TeamSummary is the per-team dashboard aggregate.
type TeamSummary struct {
	TeamID          string          `json:"teamId"`
	TeamName        string          `json:"teamName"`
	TeamType        domain.TeamType `json:"teamType"`
	ActiveTickets   int             `json:"activeTickets"`
	QueueSize       int             `json:"queueSize"`
	AvailableAgents int             `json:"availableAgents"`
	TotalAgents     int             `json:"totalAgents"`
}
