package service

import (
	"context"
	"errors"
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

// DispatchJob is a deferred assignment attempt for a queued ticket.
type DispatchJob struct {
	TicketID string          `json:"ticketId"`
	TeamType domain.TeamType `json:"teamType"`
}

// DispatchQueue submits jobs to the per-team background queues with
// at-least-once delivery.
type DispatchQueue interface {
	Submit(ctx context.Context, job DispatchJob) error
}

// DistributionService implements ticket routing: least-loaded assignment,
// per-team FIFO queueing and capacity-triggered queue draining.
type DistributionService struct {
	tickets    repository.TicketRepository
	agents     repository.AgentRepository
	teams      repository.TeamRepository
	queue      DispatchQueue
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// DistributionDependencies bundles collaborators.
type DistributionDependencies struct {
	TicketRepo repository.TicketRepository
	AgentRepo  repository.AgentRepository
	TeamRepo   repository.TeamRepository
	Queue      DispatchQueue
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewDistributionService creates the service.
func NewDistributionService(deps DistributionDependencies) *DistributionService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DistributionService{
		tickets:    deps.TicketRepo,
		agents:     deps.AgentRepo,
		teams:      deps.TeamRepo,
		queue:      deps.Queue,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// FindLeastLoadedAvailableAgent returns the online agent of the team with the
// fewest in-progress tickets and spare capacity, or nil when every agent is
// offline or saturated. A nil result is a normal routing outcome, not an
// error. Ties break on creation order, the order the repository returns.
func (s *DistributionService) FindLeastLoadedAvailableAgent(ctx context.Context, teamType domain.TeamType) (*domain.Agent, error) {
	agents, err := s.agents.ListOnlineByTeamType(ctx, teamType)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	var best *domain.Agent
	bestLoad := 0
	for i := range agents {
		agent := &agents[i]
		load, err := s.tickets.CountActiveByAgent(ctx, agent.ID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if load >= agent.MaxConcurrent {
			continue
		}
		if best == nil || load < bestLoad {
			best = agent
			bestLoad = load
		}
	}
	if best == nil {
		s.logger.Debug("no available agent", zap.String("team", string(teamType)))
	}
	return best, nil
}

// Distribute routes a freshly created ticket: assign it to the least-loaded
// available agent of its team, or enqueue it when no agent has capacity.
func (s *DistributionService) Distribute(ctx context.Context, ticketID string) error {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return apperrors.MapError(err)
	}
	if ticket.Status != domain.TicketStatusWaiting {
		return nil
	}

	teamType, err := domain.TeamForSubject(ticket.Subject)
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	agent, err := s.FindLeastLoadedAvailableAgent(ctx, teamType)
	if err != nil {
		return err
	}
	if agent != nil {
		_, err := s.assign(ctx, ticket, agent)
		return err
	}
	return s.enqueue(ctx, ticket, teamType)
}

// DrainQueue promotes waiting tickets of the team for as long as both a free
// agent and a queued ticket exist. Invoking it with an empty queue or a
// saturated roster is a no-op, so it is safe to call re-entrantly.
func (s *DistributionService) DrainQueue(ctx context.Context, teamType domain.TeamType) error {
	subject, err := domain.SubjectForTeam(teamType)
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	for {
		agent, err := s.FindLeastLoadedAvailableAgent(ctx, teamType)
		if err != nil {
			return err
		}
		if agent == nil {
			return nil
		}

		ticket, err := s.tickets.OldestWaitingBySubject(ctx, subject)
		if err != nil {
			return apperrors.MapError(err)
		}
		if ticket == nil {
			return nil
		}

		claimed, err := s.assign(ctx, ticket, agent)
		if err != nil {
			return err
		}
		if claimed {
			if err := s.recomputeQueuePositions(ctx, subject); err != nil {
				return err
			}
			size, err := s.tickets.CountWaitingBySubject(ctx, subject)
			if err != nil {
				return apperrors.MapError(err)
			}
			s.publishEvent(ctx, events.Event{
				Type: events.EventQueueUpdated,
				Payload: events.QueueUpdatedPayload{
					TeamType:  teamType,
					QueueSize: size,
				},
			})
		}
	}
}

// RetryAssign is the async dispatch path. It reports handled=true when the
// ticket no longer needs this job (assigned elsewhere, completed, or gone) and
// handled=false when no agent is free yet and the job should run again.
func (s *DistributionService) RetryAssign(ctx context.Context, ticketID string) (bool, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn("dispatch job for unknown ticket", zap.String("ticket_id", ticketID))
			return true, nil
		}
		return false, apperrors.MapError(err)
	}
	if ticket.Status != domain.TicketStatusWaiting {
		return true, nil
	}

	teamType, err := domain.TeamForSubject(ticket.Subject)
	if err != nil {
		return false, apperrors.NewInternalError(err)
	}
	agent, err := s.FindLeastLoadedAvailableAgent(ctx, teamType)
	if err != nil {
		return false, err
	}
	if agent == nil {
		return false, nil
	}

	claimed, err := s.assign(ctx, ticket, agent)
	if err != nil {
		return false, err
	}
	if !claimed {
		return true, nil
	}
	if err := s.recomputeQueuePositions(ctx, ticket.Subject); err != nil {
		return false, err
	}
	size, err := s.tickets.CountWaitingBySubject(ctx, ticket.Subject)
	if err != nil {
		return false, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type: events.EventQueueUpdated,
		Payload: events.QueueUpdatedPayload{
			TeamType:  teamType,
			QueueSize: size,
		},
	})
	return true, nil
}

// assign claims the WAITING -> IN_PROGRESS transition for the ticket. A lost
// claim means another path already placed the ticket; that is reported as
// claimed=false, never as an error.
func (s *DistributionService) assign(ctx context.Context, ticket *domain.Ticket, agent *domain.Agent) (bool, error) {
	claimed, err := s.tickets.ClaimForAssignment(ctx, ticket.ID, agent.ID, time.Now())
	if err != nil {
		return false, apperrors.MapError(err)
	}
	if !claimed {
		s.logger.Debug("assignment claim lost",
			zap.String("ticket_id", ticket.ID),
			zap.String("agent_id", agent.ID))
		return false, nil
	}

	updated, err := s.tickets.GetByID(ctx, ticket.ID)
	if err != nil {
		return true, apperrors.MapError(err)
	}

	agentResp, err := s.AgentProjection(ctx, agent)
	if err != nil {
		return true, err
	}
	s.logger.Info("ticket assigned",
		zap.String("ticket_id", ticket.ID),
		zap.String("agent_id", agent.ID))
	s.publishEvent(ctx, events.Event{
		Type: events.EventTicketAssigned,
		Payload: events.TicketAssignedPayload{
			Ticket: dto.NewTicketResponse(updated, agent),
			Agent:  agentResp,
		},
	})
	return true, nil
}

// enqueue places the ticket in its team queue and submits the safety-net
// dispatch job. The position is the ticket's rank among waiting tickets by
// creation time.
func (s *DistributionService) enqueue(ctx context.Context, ticket *domain.Ticket, teamType domain.TeamType) error {
	ahead, err := s.tickets.CountWaitingCreatedBefore(ctx, ticket.Subject, ticket.CreatedAt, ticket.ID)
	if err != nil {
		return apperrors.MapError(err)
	}
	position := ahead + 1
	if err := s.tickets.SetQueuePosition(ctx, ticket.ID, position); err != nil {
		return apperrors.MapError(err)
	}

	if s.queue != nil {
		job := DispatchJob{TicketID: ticket.ID, TeamType: teamType}
		if err := s.queue.Submit(ctx, job); err != nil {
			// The synchronous drain on the next completion still covers this
			// ticket; losing the retry job is not fatal.
			s.logger.Warn("dispatch job submit failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
		}
	}

	size, err := s.tickets.CountWaitingBySubject(ctx, ticket.Subject)
	if err != nil {
		return apperrors.MapError(err)
	}
	s.logger.Info("ticket enqueued",
		zap.String("ticket_id", ticket.ID),
		zap.String("team", string(teamType)),
		zap.Int("position", position))
	s.publishEvent(ctx, events.Event{
		Type: events.EventQueueUpdated,
		Payload: events.QueueUpdatedPayload{
			TeamType:  teamType,
			QueueSize: size,
		},
	})
	return nil
}

// recomputeQueuePositions rewrites positions of the remaining waiting tickets
// as their 1-based rank in creation order.
func (s *DistributionService) recomputeQueuePositions(ctx context.Context, subject domain.TicketSubject) error {
	waiting, err := s.tickets.ListWaitingBySubject(ctx, subject)
	if err != nil {
		return apperrors.MapError(err)
	}
	for i := range waiting {
		rank := i + 1
		if waiting[i].QueuePosition != nil && *waiting[i].QueuePosition == rank {
			continue
		}
		if err := s.tickets.SetQueuePosition(ctx, waiting[i].ID, rank); err != nil {
			return apperrors.MapError(err)
		}
	}
	return nil
}

// AgentProjection builds the agent view with its team and freshly derived
// active ticket count.
func (s *DistributionService) AgentProjection(ctx context.Context, agent *domain.Agent) (dto.AgentResponse, error) {
	team, err := s.teams.GetByID(ctx, agent.TeamID)
	if err != nil {
		return dto.AgentResponse{}, apperrors.MapError(err)
	}
	active, err := s.tickets.CountActiveByAgent(ctx, agent.ID)
	if err != nil {
		return dto.AgentResponse{}, apperrors.MapError(err)
	}
	return dto.NewAgentResponse(agent, team, active), nil
}

func (s *DistributionService) publishEvent(ctx context.Context, event events.Event) {
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
