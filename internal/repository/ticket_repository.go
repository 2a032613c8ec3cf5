package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flowpay/helpdesk/internal/domain"
)

// TicketFilter captures listing parameters.
type TicketFilter struct {
	Status  *domain.TicketStatus
	Subject *domain.TicketSubject
	AgentID *string
	Limit   int
	Offset  int
}

// TicketRepository encapsulates ticket persistence. created_at is assigned by
// the store at insert time and is the sole source of queue ordering.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)

	// ClaimForAssignment performs the atomic WAITING -> IN_PROGRESS
	// transition. It reports false without error when the ticket was no
	// longer waiting, which callers treat as already handled.
	ClaimForAssignment(ctx context.Context, ticketID, agentID string, startedAt time.Time) (bool, error)

	// MarkCompleted performs the IN_PROGRESS -> COMPLETED transition,
	// recording the completing agent. Reports false when the ticket was not
	// in progress at write time.
	MarkCompleted(ctx context.Context, ticketID, agentID string, completedAt time.Time) (bool, error)

	SetQueuePosition(ctx context.Context, ticketID string, position int) error

	ListWaitingBySubject(ctx context.Context, subject domain.TicketSubject) ([]domain.Ticket, error)
	OldestWaitingBySubject(ctx context.Context, subject domain.TicketSubject) (*domain.Ticket, error)
	CountWaitingBySubject(ctx context.Context, subject domain.TicketSubject) (int, error)
	CountWaitingCreatedBefore(ctx context.Context, subject domain.TicketSubject, createdAt time.Time, id string) (int, error)

	CountActiveByAgent(ctx context.Context, agentID string) (int, error)
	CountByStatusAndSubject(ctx context.Context, status domain.TicketStatus, subject domain.TicketSubject) (int, error)
	CountByStatus(ctx context.Context, status domain.TicketStatus) (int, error)
	CountAll(ctx context.Context) (int, error)
	AverageWaitSeconds(ctx context.Context) (float64, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, customer_name, subject, status, agent_id, completed_by_id,
               queue_position, started_at, completed_at, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (customer_name, subject, status)
        VALUES ($1,$2,$3)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.CustomerName,
		ticket.Subject,
		ticket.Status,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	var ticket domain.Ticket
	if err := scanTicket(r.pool.QueryRow(ctx, query, id), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Subject != nil {
		args = append(args, *filter.Subject)
		clauses = append(clauses, fmt.Sprintf("subject=$%d", len(args)))
	}
	if filter.AgentID != nil {
		args = append(args, *filter.AgentID)
		clauses = append(clauses, fmt.Sprintf("agent_id=$%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		ticketColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ClaimForAssignment(ctx context.Context, ticketID, agentID string, startedAt time.Time) (bool, error) {
	const query = `
        UPDATE tickets SET agent_id=$1, status=$2, started_at=$3, queue_position=NULL, updated_at=NOW()
        WHERE id=$4 AND status=$5`
	cmd, err := r.pool.Exec(ctx, query,
		agentID,
		domain.TicketStatusInProgress,
		startedAt,
		ticketID,
		domain.TicketStatusWaiting,
	)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *ticketRepository) MarkCompleted(ctx context.Context, ticketID, agentID string, completedAt time.Time) (bool, error) {
	const query = `
        UPDATE tickets SET status=$1, completed_at=$2, completed_by_id=$3, updated_at=NOW()
        WHERE id=$4 AND status=$5 AND agent_id IS NOT NULL`
	cmd, err := r.pool.Exec(ctx, query,
		domain.TicketStatusCompleted,
		completedAt,
		agentID,
		ticketID,
		domain.TicketStatusInProgress,
	)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *ticketRepository) SetQueuePosition(ctx context.Context, ticketID string, position int) error {
	const query = `UPDATE tickets SET queue_position=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, position, ticketID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) ListWaitingBySubject(ctx context.Context, subject domain.TicketSubject) ([]domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE status=$1 AND subject=$2 ORDER BY created_at ASC, id ASC`, ticketColumns)
	rows, err := r.pool.Query(ctx, query, domain.TicketStatusWaiting, subject)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) OldestWaitingBySubject(ctx context.Context, subject domain.TicketSubject) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE status=$1 AND subject=$2 ORDER BY created_at ASC, id ASC LIMIT 1`, ticketColumns)
	var ticket domain.Ticket
	err := scanTicket(r.pool.QueryRow(ctx, query, domain.TicketStatusWaiting, subject), &ticket)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) CountWaitingBySubject(ctx context.Context, subject domain.TicketSubject) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM tickets WHERE status=$1 AND subject=$2`, domain.TicketStatusWaiting, subject)
}

func (r *ticketRepository) CountWaitingCreatedBefore(ctx context.Context, subject domain.TicketSubject, createdAt time.Time, id string) (int, error) {
	const query = `
        SELECT COUNT(*) FROM tickets
        WHERE status=$1 AND subject=$2 AND (created_at < $3 OR (created_at = $3 AND id < $4))`
	return r.count(ctx, query, domain.TicketStatusWaiting, subject, createdAt, id)
}

func (r *ticketRepository) CountActiveByAgent(ctx context.Context, agentID string) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM tickets WHERE status=$1 AND agent_id=$2`, domain.TicketStatusInProgress, agentID)
}

func (r *ticketRepository) CountByStatusAndSubject(ctx context.Context, status domain.TicketStatus, subject domain.TicketSubject) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM tickets WHERE status=$1 AND subject=$2`, status, subject)
}

func (r *ticketRepository) CountByStatus(ctx context.Context, status domain.TicketStatus) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM tickets WHERE status=$1`, status)
}

func (r *ticketRepository) CountAll(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM tickets`)
}

func (r *ticketRepository) AverageWaitSeconds(ctx context.Context) (float64, error) {
	const query = `
        SELECT COALESCE(AVG(EXTRACT(EPOCH FROM (started_at - created_at))), 0)
        FROM tickets WHERE status=$1 AND started_at IS NOT NULL`
	var avg float64
	if err := r.pool.QueryRow(ctx, query, domain.TicketStatusCompleted).Scan(&avg); err != nil {
		return 0, err
	}
	return avg, nil
}

func (r *ticketRepository) count(ctx context.Context, query string, args ...any) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func scanTicket(row pgx.Row, ticket *domain.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.CustomerName,
		&ticket.Subject,
		&ticket.Status,
		&ticket.AgentID,
		&ticket.CompletedByID,
		&ticket.QueuePosition,
		&ticket.StartedAt,
		&ticket.CompletedAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
