package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/flowpay/helpdesk/internal/domain"
	"github.com/flowpay/helpdesk/internal/events"
	"github.com/flowpay/helpdesk/internal/repository"
)

// memDB is an in-memory stand-in for the three repositories. Creation
// timestamps are strictly monotonic, mirroring the store's insert-time
// assignment that queue ordering relies on.
type memDB struct {
	mu      sync.Mutex
	seq     int
	base    time.Time
	tickets []*domain.Ticket
	agents  []*domain.Agent
	teams   []*domain.Team
}

func newMemDB() *memDB {
	return &memDB{base: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func (db *memDB) nextTimestamp() time.Time {
	db.seq++
	return db.base.Add(time.Duration(db.seq) * time.Second)
}

func (db *memDB) addTeam(name string, teamType domain.TeamType) *domain.Team {
	db.mu.Lock()
	defer db.mu.Unlock()
	ts := db.nextTimestamp()
	team := &domain.Team{
		ID:        fmt.Sprintf("team-%02d", len(db.teams)+1),
		Name:      name,
		Type:      teamType,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	db.teams = append(db.teams, team)
	return team
}

func (db *memDB) addAgent(name string, team *domain.Team, online bool, maxConcurrent int) *domain.Agent {
	db.mu.Lock()
	defer db.mu.Unlock()
	ts := db.nextTimestamp()
	agent := &domain.Agent{
		ID:            fmt.Sprintf("agent-%02d", len(db.agents)+1),
		Name:          name,
		Email:         fmt.Sprintf("agent%d@flowpay.com", len(db.agents)+1),
		TeamID:        team.ID,
		MaxConcurrent: maxConcurrent,
		IsOnline:      online,
		CreatedAt:     ts,
		UpdatedAt:     ts,
	}
	db.agents = append(db.agents, agent)
	return agent
}

func (db *memDB) ticketByID(id string) *domain.Ticket {
	for _, t := range db.tickets {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (db *memDB) waitingBySubject(subject domain.TicketSubject) []*domain.Ticket {
	var result []*domain.Ticket
	for _, t := range db.tickets {
		if t.Status == domain.TicketStatusWaiting && t.Subject == subject {
			result = append(result, t)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

func copyTicket(t *domain.Ticket) *domain.Ticket {
	clone := *t
	return &clone
}

type memTicketRepo struct{ db *memDB }

func (r *memTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	ts := r.db.nextTimestamp()
	ticket.ID = fmt.Sprintf("tck-%03d", len(r.db.tickets)+1)
	ticket.CreatedAt = ts
	ticket.UpdatedAt = ts
	r.db.tickets = append(r.db.tickets, copyTicket(ticket))
	return nil
}

func (r *memTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if t := r.db.ticketByID(id); t != nil {
		return copyTicket(t), nil
	}
	return nil, pgx.ErrNoRows
}

func (r *memTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var matched []*domain.Ticket
	for _, t := range r.db.tickets {
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.Subject != nil && t.Subject != *filter.Subject {
			continue
		}
		if filter.AgentID != nil && (t.AgentID == nil || *t.AgentID != *filter.AgentID) {
			continue
		}
		matched = append(matched, t)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset > len(matched) {
		offset = len(matched)
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	result := make([]domain.Ticket, 0, end-offset)
	for _, t := range matched[offset:end] {
		result = append(result, *copyTicket(t))
	}
	return result, nil
}

func (r *memTicketRepo) ClaimForAssignment(_ context.Context, ticketID, agentID string, startedAt time.Time) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t := r.db.ticketByID(ticketID)
	if t == nil || t.Status != domain.TicketStatusWaiting {
		return false, nil
	}
	t.AgentID = &agentID
	t.Status = domain.TicketStatusInProgress
	t.StartedAt = &startedAt
	t.QueuePosition = nil
	t.UpdatedAt = startedAt
	return true, nil
}

func (r *memTicketRepo) MarkCompleted(_ context.Context, ticketID, agentID string, completedAt time.Time) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t := r.db.ticketByID(ticketID)
	if t == nil || t.Status != domain.TicketStatusInProgress || t.AgentID == nil {
		return false, nil
	}
	t.Status = domain.TicketStatusCompleted
	t.CompletedAt = &completedAt
	t.CompletedByID = &agentID
	t.UpdatedAt = completedAt
	return true, nil
}

func (r *memTicketRepo) SetQueuePosition(_ context.Context, ticketID string, position int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t := r.db.ticketByID(ticketID)
	if t == nil {
		return pgx.ErrNoRows
	}
	t.QueuePosition = &position
	return nil
}

func (r *memTicketRepo) ListWaitingBySubject(_ context.Context, subject domain.TicketSubject) ([]domain.Ticket, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	waiting := r.db.waitingBySubject(subject)
	result := make([]domain.Ticket, 0, len(waiting))
	for _, t := range waiting {
		result = append(result, *copyTicket(t))
	}
	return result, nil
}

func (r *memTicketRepo) OldestWaitingBySubject(_ context.Context, subject domain.TicketSubject) (*domain.Ticket, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	waiting := r.db.waitingBySubject(subject)
	if len(waiting) == 0 {
		return nil, nil
	}
	return copyTicket(waiting[0]), nil
}

func (r *memTicketRepo) CountWaitingBySubject(_ context.Context, subject domain.TicketSubject) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return len(r.db.waitingBySubject(subject)), nil
}

func (r *memTicketRepo) CountWaitingCreatedBefore(_ context.Context, subject domain.TicketSubject, createdAt time.Time, id string) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	count := 0
	for _, t := range r.db.waitingBySubject(subject) {
		if t.CreatedAt.Before(createdAt) || (t.CreatedAt.Equal(createdAt) && t.ID < id) {
			count++
		}
	}
	return count, nil
}

func (r *memTicketRepo) CountActiveByAgent(_ context.Context, agentID string) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	count := 0
	for _, t := range r.db.tickets {
		if t.Status == domain.TicketStatusInProgress && t.AgentID != nil && *t.AgentID == agentID {
			count++
		}
	}
	return count, nil
}

func (r *memTicketRepo) CountByStatusAndSubject(_ context.Context, status domain.TicketStatus, subject domain.TicketSubject) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	count := 0
	for _, t := range r.db.tickets {
		if t.Status == status && t.Subject == subject {
			count++
		}
	}
	return count, nil
}

func (r *memTicketRepo) CountByStatus(_ context.Context, status domain.TicketStatus) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	count := 0
	for _, t := range r.db.tickets {
		if t.Status == status {
			count++
		}
	}
	return count, nil
}

func (r *memTicketRepo) CountAll(_ context.Context) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return len(r.db.tickets), nil
}

func (r *memTicketRepo) AverageWaitSeconds(_ context.Context) (float64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	total := 0.0
	count := 0
	for _, t := range r.db.tickets {
		if t.Status != domain.TicketStatusCompleted || t.StartedAt == nil {
			continue
		}
		total += t.StartedAt.Sub(t.CreatedAt).Seconds()
		count++
	}
	if count == 0 {
		return 0, nil
	}
	return total / float64(count), nil
}

type memAgentRepo struct{ db *memDB }

func (r *memAgentRepo) GetByID(_ context.Context, id string) (*domain.Agent, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, a := range r.db.agents {
		if a.ID == id {
			clone := *a
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memAgentRepo) List(_ context.Context) ([]domain.Agent, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	result := make([]domain.Agent, 0, len(r.db.agents))
	for _, a := range r.db.agents {
		result = append(result, *a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *memAgentRepo) ListByTeamID(_ context.Context, teamID string) ([]domain.Agent, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var result []domain.Agent
	for _, a := range r.db.agents {
		if a.TeamID == teamID {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (r *memAgentRepo) ListOnlineByTeamType(_ context.Context, teamType domain.TeamType) ([]domain.Agent, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	teamIDs := map[string]bool{}
	for _, team := range r.db.teams {
		if team.Type == teamType {
			teamIDs[team.ID] = true
		}
	}
	var result []domain.Agent
	for _, a := range r.db.agents {
		if a.IsOnline && teamIDs[a.TeamID] {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (r *memAgentRepo) SetOnline(_ context.Context, id string, online bool) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, a := range r.db.agents {
		if a.ID == id {
			a.IsOnline = online
			a.UpdatedAt = r.db.nextTimestamp()
			return nil
		}
	}
	return pgx.ErrNoRows
}

type memTeamRepo struct{ db *memDB }

func (r *memTeamRepo) GetByID(_ context.Context, id string) (*domain.Team, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, team := range r.db.teams {
		if team.ID == id {
			clone := *team
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memTeamRepo) GetByType(_ context.Context, teamType domain.TeamType) (*domain.Team, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, team := range r.db.teams {
		if team.Type == teamType {
			clone := *team
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memTeamRepo) List(_ context.Context) ([]domain.Team, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	result := make([]domain.Team, 0, len(r.db.teams))
	for _, team := range r.db.teams {
		result = append(result, *team)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// recordingDispatcher captures published events in order.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) byType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var result []events.Event
	for _, e := range d.events {
		if e.Type == eventType {
			result = append(result, e)
		}
	}
	return result
}

func (d *recordingDispatcher) reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = nil
}

// recordingQueue captures submitted dispatch jobs.
type recordingQueue struct {
	mu   sync.Mutex
	jobs []DispatchJob
}

func (q *recordingQueue) Submit(_ context.Context, job DispatchJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

// testEnv wires the services over the in-memory store.
type testEnv struct {
	db           *memDB
	tickets      *memTicketRepo
	agents       *memAgentRepo
	teams        *memTeamRepo
	dispatcher   *recordingDispatcher
	queue        *recordingQueue
	distribution *DistributionService
	dashboard    *DashboardService
	ticketSvc    *TicketService
	agentSvc     *AgentService
}

func newTestEnv() *testEnv {
	db := newMemDB()
	tickets := &memTicketRepo{db: db}
	agents := &memAgentRepo{db: db}
	teams := &memTeamRepo{db: db}
	dispatcher := &recordingDispatcher{}
	queue := &recordingQueue{}

	distribution := NewDistributionService(DistributionDependencies{
		TicketRepo: tickets,
		AgentRepo:  agents,
		TeamRepo:   teams,
		Queue:      queue,
		Dispatcher: dispatcher,
	})
	dashboard := NewDashboardService(tickets, agents, teams)
	ticketSvc := NewTicketService(TicketDependencies{
		TicketRepo:   tickets,
		AgentRepo:    agents,
		Distribution: distribution,
		Dashboard:    dashboard,
		Dispatcher:   dispatcher,
	})
	agentSvc := NewAgentService(AgentDependencies{
		AgentRepo:    agents,
		TeamRepo:     teams,
		Distribution: distribution,
		Dispatcher:   dispatcher,
	})

	return &testEnv{
		db:           db,
		tickets:      tickets,
		agents:       agents,
		teams:        teams,
		dispatcher:   dispatcher,
		queue:        queue,
		distribution: distribution,
		dashboard:    dashboard,
		ticketSvc:    ticketSvc,
		agentSvc:     agentSvc,
	}
}
