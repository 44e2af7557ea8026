package repositories

import (
	"context"
	"database/sql"

	"github.com/Carlos-Trindade-code/sbar-health-sub000/models"
)

type ActivityRepository interface {
	Insert(ctx context.Context, entry *models.ActivityEntry) error
	ListByTeam(ctx context.Context, teamID int, limit int) ([]*models.ActivityEntry, error)
}

type postgresActivityRepository struct {
	db *sql.DB
}

func NewPostgresActivityRepository(db *sql.DB) ActivityRepository {
	return &postgresActivityRepository{db: db}
}

func (r *postgresActivityRepository) Insert(ctx context.Context, entry *models.ActivityEntry) error {
	query := `
		INSERT INTO team_activity (team_id, actor_id, action, detail)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query,
		entry.TeamID,
		entry.ActorID,
		entry.Action,
		entry.Detail,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *postgresActivityRepository) ListByTeam(ctx context.Context, teamID int, limit int) ([]*models.ActivityEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, team_id, actor_id, action, detail, created_at
		FROM team_activity
		WHERE team_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, teamID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*models.ActivityEntry, 0)
	for rows.Next() {
		entry := &models.ActivityEntry{}
		if scanErr := rows.Scan(
			&entry.ID,
			&entry.TeamID,
			&entry.ActorID,
			&entry.Action,
			&entry.Detail,
			&entry.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		entries = append(entries, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
