package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Carlos-Trindade-code/sbar-health-sub000/models"
	"github.com/lib/pq"
)

var (
	ErrInviteNotFound       = errors.New("invite not found")
	ErrInviteCodeConflict   = errors.New("invite code conflict")
	ErrInviteTeamInvalid    = errors.New("invite team conflict or invalid")
	ErrInviteStatusConflict = errors.New("invite is no longer in the expected status")
)

// InviteRepository persists invite records. Invites are never deleted;
// every state change goes through the conditional TransitionStatus update so
// concurrent transitions on the same record cannot both succeed.
type InviteRepository interface {
	Create(ctx context.Context, invite *models.Invite) error
	GetByID(ctx context.Context, inviteID int) (*models.Invite, error)
	GetByCode(ctx context.Context, code string) (*models.Invite, error)
	ListByTeam(ctx context.Context, teamID int) ([]*models.Invite, error)

	// TransitionStatus moves the invite from one status to another as a
	// single compare-and-swap update. acceptedByID and acceptedRole are
	// written when non-nil. Returns ErrInviteStatusConflict when the record
	// is not in the expected `from` status. exec lets the transition run
	// inside a caller-owned transaction; nil uses the pool.
	TransitionStatus(ctx context.Context, exec SQLExecutor, inviteID int, from, to models.InviteStatus, acceptedByID *int, acceptedRole *models.MemberRole) error
}

type postgresInviteRepository struct {
	db *sql.DB
}

func NewPostgresInviteRepository(db *sql.DB) InviteRepository {
	return &postgresInviteRepository{db: db}
}

const inviteColumns = `id, team_id, code, email, invited_by_id, invited_by_was_admin,
		suggested_role, status, accepted_by_id, accepted_role, expires_at, created_at, updated_at`

func (r *postgresInviteRepository) Create(ctx context.Context, invite *models.Invite) error {
	query := `
		INSERT INTO invites (team_id, code, email, invited_by_id, invited_by_was_admin, suggested_role, status, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		invite.TeamID,
		invite.Code,
		invite.Email,
		invite.InvitedByID,
		invite.InvitedByWasAdmin,
		invite.SuggestedRole,
		invite.Status,
		invite.ExpiresAt,
	).Scan(&invite.ID, &invite.CreatedAt, &invite.UpdatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				return ErrInviteCodeConflict
			case "23503": // foreign_key_violation
				return ErrInviteTeamInvalid
			}
		}
		return err
	}

	return nil
}

func (r *postgresInviteRepository) GetByID(ctx context.Context, inviteID int) (*models.Invite, error) {
	query := `SELECT ` + inviteColumns + ` FROM invites WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, inviteID))
}

// GetByCode matches case-insensitively so hand-typed codes survive
// transcription. Codes are generated upper-case.
func (r *postgresInviteRepository) GetByCode(ctx context.Context, code string) (*models.Invite, error) {
	query := `SELECT ` + inviteColumns + ` FROM invites WHERE UPPER(code) = UPPER($1)`
	return r.scanOne(r.db.QueryRowContext(ctx, query, code))
}

func (r *postgresInviteRepository) scanOne(row *sql.Row) (*models.Invite, error) {
	invite := &models.Invite{}
	err := row.Scan(
		&invite.ID,
		&invite.TeamID,
		&invite.Code,
		&invite.Email,
		&invite.InvitedByID,
		&invite.InvitedByWasAdmin,
		&invite.SuggestedRole,
		&invite.Status,
		&invite.AcceptedByID,
		&invite.AcceptedRole,
		&invite.ExpiresAt,
		&invite.CreatedAt,
		&invite.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInviteNotFound
		}
		return nil, err
	}
	return invite, nil
}

func (r *postgresInviteRepository) ListByTeam(ctx context.Context, teamID int) ([]*models.Invite, error) {
	query := `SELECT ` + inviteColumns + ` FROM invites WHERE team_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invites := make([]*models.Invite, 0)
	for rows.Next() {
		invite := &models.Invite{}
		if scanErr := rows.Scan(
			&invite.ID,
			&invite.TeamID,
			&invite.Code,
			&invite.Email,
			&invite.InvitedByID,
			&invite.InvitedByWasAdmin,
			&invite.SuggestedRole,
			&invite.Status,
			&invite.AcceptedByID,
			&invite.AcceptedRole,
			&invite.ExpiresAt,
			&invite.CreatedAt,
			&invite.UpdatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		invites = append(invites, invite)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return invites, nil
}

func (r *postgresInviteRepository) TransitionStatus(ctx context.Context, exec SQLExecutor, inviteID int, from, to models.InviteStatus, acceptedByID *int, acceptedRole *models.MemberRole) error {
	executor := SQLExecutor(r.db)
	if exec != nil {
		executor = exec
	}

	query := `
		UPDATE invites
		SET status = $1,
		    accepted_by_id = COALESCE($2, accepted_by_id),
		    accepted_role = COALESCE($3, accepted_role),
		    updated_at = NOW()
		WHERE id = $4 AND status = $5`

	result, err := executor.ExecContext(ctx, query, to, acceptedByID, acceptedRole, inviteID, from)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrInviteStatusConflict)
}
