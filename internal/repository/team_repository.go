package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flowpay/helpdesk/internal/domain"
)

// TeamRepository encapsulates team persistence.
type TeamRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Team, error)
	GetByType(ctx context.Context, teamType domain.TeamType) (*domain.Team, error)
	List(ctx context.Context) ([]domain.Team, error)
}

type teamRepository struct {
	pool *pgxpool.Pool
}

// NewTeamRepository instantiates repository.
func NewTeamRepository(pool *pgxpool.Pool) TeamRepository {
	return &teamRepository{pool: pool}
}

const teamColumns = `id, name, type, created_at, updated_at`

func (r *teamRepository) GetByID(ctx context.Context, id string) (*domain.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE id=$1`
	var team domain.Team
	if err := scanTeam(r.pool.QueryRow(ctx, query, id), &team); err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *teamRepository) GetByType(ctx context.Context, teamType domain.TeamType) (*domain.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE type=$1`
	var team domain.Team
	if err := scanTeam(r.pool.QueryRow(ctx, query, teamType), &team); err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *teamRepository) List(ctx context.Context) ([]domain.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Team
	for rows.Next() {
		var team domain.Team
		if err := scanTeam(rows, &team); err != nil {
			return nil, err
		}
		result = append(result, team)
	}
	return result, rows.Err()
}

func scanTeam(row pgx.Row, team *domain.Team) error {
	return row.Scan(
		&team.ID,
		&team.Name,
		&team.Type,
		&team.CreatedAt,
		&team.UpdatedAt,
	)
}
