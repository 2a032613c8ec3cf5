package service

import (
	"context"
	"math"

	"github.com/flowpay/helpdesk/internal/api/dto"
	"github.com/flowpay/helpdesk/internal/domain"
	"github.com/flowpay/helpdesk/internal/repository"
	apperrors "github.com/flowpay/helpdesk/pkg/util"
)

// DashboardService aggregates system-wide and per-team counters. Every figure
// is recomputed from the ticket set on each call; nothing here is cached.
type DashboardService struct {
	tickets repository.TicketRepository
	agents  repository.AgentRepository
	teams   repository.TeamRepository
}

// NewDashboardService constructs the service.
func NewDashboardService(tickets repository.TicketRepository, agents repository.AgentRepository, teams repository.TeamRepository) *DashboardService {
	return &DashboardService{tickets: tickets, agents: agents, teams: teams}
}

// Stats returns the system-wide counters and the average wait time in seconds
// (completed tickets only, rounded to one decimal).
func (s *DashboardService) Stats(ctx context.Context) (dto.DashboardStats, error) {
	total, err := s.tickets.CountAll(ctx)
	if err != nil {
		return dto.DashboardStats{}, apperrors.MapError(err)
	}
	inProgress, err := s.tickets.CountByStatus(ctx, domain.TicketStatusInProgress)
	if err != nil {
		return dto.DashboardStats{}, apperrors.MapError(err)
	}
	inQueue, err := s.tickets.CountByStatus(ctx, domain.TicketStatusWaiting)
	if err != nil {
		return dto.DashboardStats{}, apperrors.MapError(err)
	}
	completed, err := s.tickets.CountByStatus(ctx, domain.TicketStatusCompleted)
	if err != nil {
		return dto.DashboardStats{}, apperrors.MapError(err)
	}
	avgWait, err := s.tickets.AverageWaitSeconds(ctx)
	if err != nil {
		return dto.DashboardStats{}, apperrors.MapError(err)
	}

	return dto.DashboardStats{
		TotalTickets: total,
		InProgress:   inProgress,
		InQueue:      inQueue,
		Completed:    completed,
		AvgWaitTime:  math.Round(avgWait*10) / 10,
	}, nil
}

// TeamsSummary returns the per-team dashboard aggregates.
func (s *DashboardService) TeamsSummary(ctx context.Context) ([]dto.TeamSummary, error) {
	teams, err := s.teams.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	summaries := make([]dto.TeamSummary, 0, len(teams))
	for i := range teams {
		team := &teams[i]
		subject, err := domain.SubjectForTeam(team.Type)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}

		active, err := s.tickets.CountByStatusAndSubject(ctx, domain.TicketStatusInProgress, subject)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		queueSize, err := s.tickets.CountByStatusAndSubject(ctx, domain.TicketStatusWaiting, subject)
		if err != nil {
			return nil, apperrors.MapError(err)
		}

		roster, err := s.agents.ListByTeamID(ctx, team.ID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		available := 0
		for j := range roster {
			if !roster[j].IsOnline {
				continue
			}
			load, err := s.tickets.CountActiveByAgent(ctx, roster[j].ID)
			if err != nil {
				return nil, apperrors.MapError(err)
			}
			if load < roster[j].MaxConcurrent {
				available++
			}
		}

		summaries = append(summaries, dto.TeamSummary{
			TeamID:          team.ID,
			TeamName:        team.Name,
			TeamType:        team.Type,
			ActiveTickets:   active,
			QueueSize:       queueSize,
			AvailableAgents: available,
			TotalAgents:     len(roster),
		})
	}
	return summaries, nil
}
