package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flowpay/helpdesk/internal/domain"
)

// AgentRepository encapsulates agent persistence.
type AgentRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Agent, error)
	List(ctx context.Context) ([]domain.Agent, error)
	ListByTeamID(ctx context.Context, teamID string) ([]domain.Agent, error)
	// ListOnlineByTeamType returns online agents in creation order, which is
	// the stable tie-break order for least-loaded selection.
	ListOnlineByTeamType(ctx context.Context, teamType domain.TeamType) ([]domain.Agent, error)
	SetOnline(ctx context.Context, id string, online bool) error
}

type agentRepository struct {
	pool *pgxpool.Pool
}

// NewAgentRepository instantiates repository.
func NewAgentRepository(pool *pgxpool.Pool) AgentRepository {
	return &agentRepository{pool: pool}
}

const agentColumns = `id, name, email, team_id, max_concurrent, is_online, created_at, updated_at`

func (r *agentRepository) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents WHERE id=$1`
	var agent domain.Agent
	if err := scanAgent(r.pool.QueryRow(ctx, query, id), &agent); err != nil {
		return nil, err
	}
	return &agent, nil
}

func (r *agentRepository) List(ctx context.Context) ([]domain.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAgents(rows)
}

func (r *agentRepository) ListByTeamID(ctx context.Context, teamID string) ([]domain.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents WHERE team_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAgents(rows)
}

func (r *agentRepository) ListOnlineByTeamType(ctx context.Context, teamType domain.TeamType) ([]domain.Agent, error) {
	query := `
        SELECT a.id, a.name, a.email, a.team_id, a.max_concurrent, a.is_online, a.created_at, a.updated_at
        FROM agents a
        JOIN teams t ON t.id = a.team_id
        WHERE a.is_online = TRUE AND t.type = $1
        ORDER BY a.created_at ASC, a.id ASC`
	rows, err := r.pool.Query(ctx, query, teamType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAgents(rows)
}

func (r *agentRepository) SetOnline(ctx context.Context, id string, online bool) error {
	const query = `UPDATE agents SET is_online=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, online, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanAgent(row pgx.Row, agent *domain.Agent) error {
	return row.Scan(
		&agent.ID,
		&agent.Name,
		&agent.Email,
		&agent.TeamID,
		&agent.MaxConcurrent,
		&agent.IsOnline,
		&agent.CreatedAt,
		&agent.UpdatedAt,
	)
}

func scanAgents(rows pgx.Rows) ([]domain.Agent, error) {
	var result []domain.Agent
	for rows.Next() {
		var agent domain.Agent
		if err := scanAgent(rows, &agent); err != nil {
			return nil, err
		}
		result = append(result, agent)
	}
	return result, rows.Err()
}
