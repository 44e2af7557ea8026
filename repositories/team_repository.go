package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Carlos-Trindade-code/sbar-health-sub000/models"
)

var ErrTeamNotFound = errors.New("team not found")

type TeamRepository interface {
	Create(ctx context.Context, exec SQLExecutor, team *models.Team) error
	GetByID(ctx context.Context, teamID int) (*models.Team, error)
	UpdateName(ctx context.Context, teamID int, name string) error
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTeamRepository) Create(ctx context.Context, exec SQLExecutor, team *models.Team) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO teams (name, is_personal)
		VALUES ($1, $2)
		RETURNING id, created_at`

	return executor.QueryRowContext(ctx, query, team.Name, team.IsPersonal).
		Scan(&team.ID, &team.CreatedAt)
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, teamID int) (*models.Team, error) {
	query := `
		SELECT id, name, is_personal, created_at
		FROM teams
		WHERE id = $1`

	team := &models.Team{}
	err := r.db.QueryRowContext(ctx, query, teamID).Scan(
		&team.ID,
		&team.Name,
		&team.IsPersonal,
		&team.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}

	return team, nil
}

func (r *postgresTeamRepository) UpdateName(ctx context.Context, teamID int, name string) error {
	query := `UPDATE teams SET name = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, name, teamID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}
