package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Carlos-Trindade-code/sbar-health-sub000/models"
	"github.com/lib/pq"
)

var (
	ErrMemberNotFound    = errors.New("team member not found")
	ErrMemberConflict    = errors.New("user is already a member of the team")
	ErrMemberTeamInvalid = errors.New("member team or user invalid")
)

// MemberRepository persists roster rows. The (team_id, user_id) pair carries
// a unique constraint so a racing double-insert loses at the database.
type MemberRepository interface {
	Create(ctx context.Context, exec SQLExecutor, member *models.TeamMember) error
	Get(ctx context.Context, teamID, userID int) (*models.TeamMember, error)
	ListByTeam(ctx context.Context, teamID int) ([]*models.TeamMember, error)
	UpdateRole(ctx context.Context, teamID, userID int, role models.MemberRole) error
	Delete(ctx context.Context, teamID, userID int) error
}

type postgresMemberRepository struct {
	db *sql.DB
}

func NewPostgresMemberRepository(db *sql.DB) MemberRepository {
	return &postgresMemberRepository{db: db}
}

func (r *postgresMemberRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresMemberRepository) Create(ctx context.Context, exec SQLExecutor, member *models.TeamMember) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO team_members (team_id, user_id, role, is_creator)
		VALUES ($1, $2, $3, $4)
		RETURNING joined_at`

	err := executor.QueryRowContext(ctx, query,
		member.TeamID,
		member.UserID,
		member.Role,
		member.IsCreator,
	).Scan(&member.JoinedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				return ErrMemberConflict
			case "23503": // foreign_key_violation
				return ErrMemberTeamInvalid
			}
		}
		return err
	}

	return nil
}

func (r *postgresMemberRepository) Get(ctx context.Context, teamID, userID int) (*models.TeamMember, error) {
	query := `
		SELECT team_id, user_id, role, is_creator, joined_at
		FROM team_members
		WHERE team_id = $1 AND user_id = $2`

	member := &models.TeamMember{}
	err := r.db.QueryRowContext(ctx, query, teamID, userID).Scan(
		&member.TeamID,
		&member.UserID,
		&member.Role,
		&member.IsCreator,
		&member.JoinedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}

	return member, nil
}

func (r *postgresMemberRepository) ListByTeam(ctx context.Context, teamID int) ([]*models.TeamMember, error) {
	query := `
		SELECT m.team_id, m.user_id, m.role, m.is_creator, m.joined_at,
		       u.id, u.first_name, u.last_name, u.email, u.created_at
		FROM team_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.team_id = $1
		ORDER BY m.joined_at ASC`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]*models.TeamMember, 0)
	for rows.Next() {
		member := &models.TeamMember{User: &models.User{}}
		if scanErr := rows.Scan(
			&member.TeamID,
			&member.UserID,
			&member.Role,
			&member.IsCreator,
			&member.JoinedAt,
			&member.User.ID,
			&member.User.FirstName,
			&member.User.LastName,
			&member.User.Email,
			&member.User.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		members = append(members, member)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return members, nil
}

func (r *postgresMemberRepository) UpdateRole(ctx context.Context, teamID, userID int, role models.MemberRole) error {
	query := `UPDATE team_members SET role = $1 WHERE team_id = $2 AND user_id = $3`

	result, err := r.db.ExecContext(ctx, query, role, teamID, userID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMemberNotFound)
}

func (r *postgresMemberRepository) Delete(ctx context.Context, teamID, userID int) error {
	query := `DELETE FROM team_members WHERE team_id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, teamID, userID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMemberNotFound)
}
