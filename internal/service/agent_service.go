package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/flowpay/helpdesk/internal/api/dto"
	"github.com/flowpay/helpdesk/internal/events"
	"github.com/flowpay/helpdesk/internal/repository"
	apperrors "github.com/flowpay/helpdesk/pkg/util"
)

// AgentService exposes the agent directory and the online toggle.
type AgentService struct {
	agents       repository.AgentRepository
	teams        repository.TeamRepository
	distribution *DistributionService
	dispatcher   events.Dispatcher
	logger       *zap.Logger
}

// AgentDependencies bundles collaborators for the agent service.
type AgentDependencies struct {
	AgentRepo    repository.AgentRepository
	TeamRepo     repository.TeamRepository
	Distribution *DistributionService
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// NewAgentService constructs the service.
func NewAgentService(deps AgentDependencies) *AgentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AgentService{
		agents:       deps.AgentRepo,
		teams:        deps.TeamRepo,
		distribution: deps.Distribution,
		dispatcher:   deps.Dispatcher,
		logger:       logger,
	}
}

// List returns all agents with their derived active counts, ordered by name.
func (s *AgentService) List(ctx context.Context) ([]dto.AgentResponse, error) {
	agents, err := s.agents.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	result := make([]dto.AgentResponse, 0, len(agents))
	for i := range agents {
		resp, err := s.distribution.AgentProjection(ctx, &agents[i])
		if err != nil {
			return nil, err
		}
		result = append(result, resp)
	}
	return result, nil
}

// Get returns a single agent projection.
func (s *AgentService) Get(ctx context.Context, agentID string) (dto.AgentResponse, error) {
	agent, err := s.agents.GetByID(ctx, agentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dto.AgentResponse{}, apperrors.NewNotFound("agent", map[string]any{"agent_id": agentID})
		}
		return dto.AgentResponse{}, apperrors.MapError(err)
	}
	return s.distribution.AgentProjection(ctx, agent)
}

// UpdateStatus toggles the agent's online flag. Going online immediately
// drains the team queue, so tickets that queued up while the whole roster was
// offline or saturated do not have to wait for the background retry job.
func (s *AgentService) UpdateStatus(ctx context.Context, agentID string, isOnline bool) (dto.AgentResponse, error) {
	agent, err := s.agents.GetByID(ctx, agentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dto.AgentResponse{}, apperrors.NewNotFound("agent", map[string]any{"agent_id": agentID})
		}
		return dto.AgentResponse{}, apperrors.MapError(err)
	}

	if err := s.agents.SetOnline(ctx, agent.ID, isOnline); err != nil {
		return dto.AgentResponse{}, apperrors.MapError(err)
	}
	agent, err = s.agents.GetByID(ctx, agent.ID)
	if err != nil {
		return dto.AgentResponse{}, apperrors.MapError(err)
	}

	resp, err := s.distribution.AgentProjection(ctx, agent)
	if err != nil {
		return dto.AgentResponse{}, err
	}
	s.logger.Info("agent status changed",
		zap.String("agent_id", agent.ID),
		zap.Bool("is_online", isOnline))
	s.publishEvent(ctx, events.Event{
		Type: events.EventAgentStatusChanged,
		Payload: events.AgentStatusChangedPayload{
			Agent:       resp,
			ActiveCount: resp.ActiveTicketsCount,
		},
	})

	if isOnline {
		if err := s.distribution.DrainQueue(ctx, resp.Team.Type); err != nil {
			return dto.AgentResponse{}, err
		}
	}
	return resp, nil
}

func (s *AgentService) publishEvent(ctx context.Context, event events.Event) {
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
