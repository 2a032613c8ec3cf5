package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/flowpay/helpdesk/internal/api/dto"
	"github.com/flowpay/helpdesk/internal/domain"
	"github.com/flowpay/helpdesk/internal/events"
	"github.com/flowpay/helpdesk/internal/repository"
	apperrors "github.com/flowpay/helpdesk/pkg/util"
)

// TicketService coordinates ticket workflows around the distribution engine.
type TicketService struct {
	tickets      repository.TicketRepository
	agents       repository.AgentRepository
	distribution *DistributionService
	dashboard    *DashboardService
	dispatcher   events.Dispatcher
	logger       *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo   repository.TicketRepository
	AgentRepo    repository.AgentRepository
	Distribution *DistributionService
	Dashboard    *DashboardService
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	CustomerName string
	Subject      domain.TicketSubject
}

// TicketListFilter describes listing filters.
type TicketListFilter struct {
	Status  *domain.TicketStatus
	Subject *domain.TicketSubject
	AgentID *string
	Limit   int
	Offset  int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:      deps.TicketRepo,
		agents:       deps.AgentRepo,
		distribution: deps.Distribution,
		dashboard:    deps.Dashboard,
		dispatcher:   deps.Dispatcher,
		logger:       logger,
	}
}

// Create persists a new ticket and routes it immediately. Creation always
// succeeds structurally even when no agent is free; the caller then observes
// a WAITING ticket with a queue position.
func (s *TicketService) Create(ctx context.Context, input TicketCreateInput) (dto.TicketResponse, error) {
	if !domain.ValidSubject(input.Subject) {
		return dto.TicketResponse{}, apperrors.NewValidationError("invalid subject", map[string]any{"subject": input.Subject})
	}

	ticket := &domain.Ticket{
		CustomerName: strings.TrimSpace(input.CustomerName),
		Subject:      input.Subject,
		Status:       domain.TicketStatusWaiting,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return dto.TicketResponse{}, apperrors.MapError(err)
	}

	if err := s.distribution.Distribute(ctx, ticket.ID); err != nil {
		return dto.TicketResponse{}, err
	}

	resp, err := s.Get(ctx, ticket.ID)
	if err != nil {
		return dto.TicketResponse{}, err
	}

	s.publishEvent(ctx, events.Event{
		Type: events.EventTicketCreated,
		Payload: events.TicketCreatedPayload{
			Ticket:        resp,
			QueuePosition: resp.QueuePosition,
		},
	})
	s.emitDashboardStats(ctx)
	return resp, nil
}

// List returns ticket projections, newest first.
func (s *TicketService) List(ctx context.Context, filter TicketListFilter) ([]dto.TicketResponse, error) {
	tickets, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		Status:  filter.Status,
		Subject: filter.Subject,
		AgentID: filter.AgentID,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	result := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		resp, err := s.projection(ctx, &tickets[i])
		if err != nil {
			return nil, err
		}
		result = append(result, resp)
	}
	return result, nil
}

// Get returns a single fully resolved ticket projection.
func (s *TicketService) Get(ctx context.Context, ticketID string) (dto.TicketResponse, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dto.TicketResponse{}, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return dto.TicketResponse{}, apperrors.MapError(err)
	}
	return s.projection(ctx, ticket)
}

// Complete transitions an in-progress ticket to completed, frees the agent
// slot and synchronously drains the team queue so any waiting ticket is
// promoted before the completion response is observed.
func (s *TicketService) Complete(ctx context.Context, ticketID string) (dto.TicketResponse, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dto.TicketResponse{}, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return dto.TicketResponse{}, apperrors.MapError(err)
	}
	if ticket.Status != domain.TicketStatusInProgress {
		return dto.TicketResponse{}, apperrors.NewInvalidTransition(
			"ticket is not in progress",
			map[string]any{"ticket_id": ticketID, "status": ticket.Status},
		)
	}
	if ticket.AgentID == nil {
		return dto.TicketResponse{}, apperrors.NewInvalidTransition(
			"ticket has no assigned agent",
			map[string]any{"ticket_id": ticketID},
		)
	}

	completed, err := s.tickets.MarkCompleted(ctx, ticket.ID, *ticket.AgentID, time.Now())
	if err != nil {
		return dto.TicketResponse{}, apperrors.MapError(err)
	}
	if !completed {
		return dto.TicketResponse{}, apperrors.NewInvalidTransition(
			"ticket is not in progress",
			map[string]any{"ticket_id": ticketID},
		)
	}

	teamType, err := domain.TeamForSubject(ticket.Subject)
	if err != nil {
		return dto.TicketResponse{}, apperrors.NewInternalError(err)
	}

	resp, err := s.Get(ctx, ticket.ID)
	if err != nil {
		return dto.TicketResponse{}, err
	}

	agent, err := s.agents.GetByID(ctx, *ticket.AgentID)
	if err != nil {
		return dto.TicketResponse{}, apperrors.MapError(err)
	}
	agentResp, err := s.distribution.AgentProjection(ctx, agent)
	if err != nil {
		return dto.TicketResponse{}, err
	}
	s.logger.Info("ticket completed",
		zap.String("ticket_id", ticket.ID),
		zap.String("agent_id", agent.ID))
	s.publishEvent(ctx, events.Event{
		Type: events.EventTicketCompleted,
		Payload: events.TicketCompletedPayload{
			Ticket: resp,
			Agent:  agentResp,
		},
	})

	if err := s.distribution.DrainQueue(ctx, teamType); err != nil {
		return dto.TicketResponse{}, err
	}
	s.emitDashboardStats(ctx)
	return resp, nil
}

func (s *TicketService) projection(ctx context.Context, ticket *domain.Ticket) (dto.TicketResponse, error) {
	var agent *domain.Agent
	if ticket.AgentID != nil {
		var err error
		agent, err = s.agents.GetByID(ctx, *ticket.AgentID)
		if err != nil {
			return dto.TicketResponse{}, apperrors.MapError(err)
		}
	}
	return dto.NewTicketResponse(ticket, agent), nil
}

func (s *TicketService) emitDashboardStats(ctx context.Context) {
	stats, err := s.dashboard.Stats(ctx)
	if err != nil {
		s.logger.Warn("dashboard stats refresh failed", zap.Error(err))
		return
	}
	s.publishEvent(ctx, events.Event{
		Type:    events.EventDashboardStats,
		Payload: events.DashboardStatsPayload{Stats: stats},
	})
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
