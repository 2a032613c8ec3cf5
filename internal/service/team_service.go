package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/flowpay/helpdesk/internal/api/dto"
	"github.com/flowpay/helpdesk/internal/domain"
	"github.com/flowpay/helpdesk/internal/repository"
	apperrors "github.com/flowpay/helpdesk/pkg/util"
)

// TeamService exposes the team catalog with derived load figures.
type TeamService struct {
	teams   repository.TeamRepository
	agents  repository.AgentRepository
	tickets repository.TicketRepository
}

// NewTeamService constructs the service.
func NewTeamService(teams repository.TeamRepository, agents repository.AgentRepository, tickets repository.TicketRepository) *TeamService {
	return &TeamService{teams: teams, agents: agents, tickets: tickets}
}

// List returns all teams with derived roster and queue figures.
func (s *TeamService) List(ctx context.Context) ([]dto.TeamResponse, error) {
	teams, err := s.teams.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	result := make([]dto.TeamResponse, 0, len(teams))
	for i := range teams {
		resp, err := s.projection(ctx, &teams[i])
		if err != nil {
			return nil, err
		}
		result = append(result, resp)
	}
	return result, nil
}

// Get returns a single team projection.
func (s *TeamService) Get(ctx context.Context, teamID string) (dto.TeamResponse, error) {
	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dto.TeamResponse{}, apperrors.NewNotFound("team", map[string]any{"team_id": teamID})
		}
		return dto.TeamResponse{}, apperrors.MapError(err)
	}
	return s.projection(ctx, team)
}

func (s *TeamService) projection(ctx context.Context, team *domain.Team) (dto.TeamResponse, error) {
	subject, err := domain.SubjectForTeam(team.Type)
	if err != nil {
		return dto.TeamResponse{}, apperrors.NewInternalError(err)
	}
	active, err := s.tickets.CountByStatusAndSubject(ctx, domain.TicketStatusInProgress, subject)
	if err != nil {
		return dto.TeamResponse{}, apperrors.MapError(err)
	}
	queueSize, err := s.tickets.CountByStatusAndSubject(ctx, domain.TicketStatusWaiting, subject)
	if err != nil {
		return dto.TeamResponse{}, apperrors.MapError(err)
	}
	roster, err := s.agents.ListByTeamID(ctx, team.ID)
	if err != nil {
		return dto.TeamResponse{}, apperrors.MapError(err)
	}

	return dto.TeamResponse{
		ID:                 team.ID,
		Name:               team.Name,
		Type:               team.Type,
		AgentsCount:        len(roster),
		ActiveTicketsCount: active,
		QueueSize:          queueSize,
		CreatedAt:          team.CreatedAt,
		UpdatedAt:          team.UpdatedAt,
	}, nil
}
