package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Carlos-Trindade-code/sbar-health-sub000/models"
	"github.com/Carlos-Trindade-code/sbar-health-sub000/repositories"
)

// RosterService is the only component allowed to mutate roster rows. It
// guards the creator invariants: the creator's role can never leave admin
// and the creator can never be removed, by anyone, through any path.
type RosterService interface {
	CanAddMember(ctx context.Context, teamID, userID int) (bool, error)
	// AddMember inserts the roster row, through exec when the caller needs
	// the seat to commit or roll back with other writes. nil runs it alone.
	AddMember(ctx context.Context, exec repositories.SQLExecutor, teamID, userID int, role models.MemberRole, isCreator bool) (*models.TeamMember, error)
	ChangeRole(ctx context.Context, teamID, userID int, newRole models.MemberRole, actorID int) error
	RemoveMember(ctx context.Context, teamID, userID int, actorID int) error
	ListMembers(ctx context.Context, teamID int, actorID int) ([]*models.TeamMember, error)
}

type rosterService struct {
	memberRepo repositories.MemberRepository
}

func NewRosterService(memberRepo repositories.MemberRepository) RosterService {
	return &rosterService{memberRepo: memberRepo}
}

func (s *rosterService) CanAddMember(ctx context.Context, teamID, userID int) (bool, error) {
	_, err := s.memberRepo.Get(ctx, teamID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrMemberNotFound) {
			return true, nil
		}
		return false, fmt.Errorf("failed to check membership for user %d in team %d: %w", userID, teamID, err)
	}
	return false, nil
}

// AddMember inserts the roster row. The unique (team_id, user_id) constraint
// is the last line of defense against a racing double-insert.
func (s *rosterService) AddMember(ctx context.Context, exec repositories.SQLExecutor, teamID, userID int, role models.MemberRole, isCreator bool) (*models.TeamMember, error) {
	if !role.Valid() {
		return nil, ErrInvalidMemberRole
	}

	member := &models.TeamMember{
		TeamID:    teamID,
		UserID:    userID,
		Role:      role,
		IsCreator: isCreator,
	}
	if err := s.memberRepo.Create(ctx, exec, member); err != nil {
		if errors.Is(err, repositories.ErrMemberConflict) {
			return nil, ErrAlreadyTeamMember
		}
		if errors.Is(err, repositories.ErrMemberTeamInvalid) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to add member %d to team %d: %w", userID, teamID, err)
	}

	return member, nil
}

func (s *rosterService) ChangeRole(ctx context.Context, teamID, userID int, newRole models.MemberRole, actorID int) error {
	if !newRole.Valid() {
		return ErrInvalidMemberRole
	}

	actor, err := s.actorMembership(ctx, teamID, actorID)
	if err != nil {
		return err
	}
	if !CanPerform(actor, ActionChangeRole) {
		return ErrForbiddenOperation
	}

	target, err := s.memberRepo.Get(ctx, teamID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrMemberNotFound) {
			return ErrMemberNotFound
		}
		return fmt.Errorf("failed to get member %d of team %d: %w", userID, teamID, err)
	}

	if target.IsCreator && newRole != models.RoleAdmin {
		return ErrCreatorRoleProtected
	}

	if err := s.memberRepo.UpdateRole(ctx, teamID, userID, newRole); err != nil {
		if errors.Is(err, repositories.ErrMemberNotFound) {
			return ErrMemberNotFound
		}
		return fmt.Errorf("failed to update role for member %d of team %d: %w", userID, teamID, err)
	}

	return nil
}

func (s *rosterService) RemoveMember(ctx context.Context, teamID, userID int, actorID int) error {
	actor, err := s.actorMembership(ctx, teamID, actorID)
	if err != nil {
		return err
	}

	// Admins may remove anyone but the creator; members may remove themselves.
	if !CanPerform(actor, ActionRemoveMember) && actorID != userID {
		return ErrForbiddenOperation
	}

	target, err := s.memberRepo.Get(ctx, teamID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrMemberNotFound) {
			return ErrMemberNotFound
		}
		return fmt.Errorf("failed to get member %d of team %d: %w", userID, teamID, err)
	}

	if target.IsCreator {
		return ErrCreatorRemoveProtected
	}

	if err := s.memberRepo.Delete(ctx, teamID, userID); err != nil {
		if errors.Is(err, repositories.ErrMemberNotFound) {
			return ErrMemberNotFound
		}
		return fmt.Errorf("failed to remove member %d from team %d: %w", userID, teamID, err)
	}

	return nil
}

func (s *rosterService) ListMembers(ctx context.Context, teamID int, actorID int) ([]*models.TeamMember, error) {
	actor, err := s.actorMembership(ctx, teamID, actorID)
	if err != nil {
		return nil, err
	}
	if !CanPerform(actor, ActionViewTeam) {
		return nil, ErrForbiddenOperation
	}

	members, err := s.memberRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members of team %d: %w", teamID, err)
	}
	return members, nil
}

func (s *rosterService) actorMembership(ctx context.Context, teamID, actorID int) (*models.TeamMember, error) {
	actor, err := s.memberRepo.Get(ctx, teamID, actorID)
	if err != nil {
		if errors.Is(err, repositories.ErrMemberNotFound) {
			return nil, ErrNotTeamMember
		}
		return nil, fmt.Errorf("failed to get membership for actor %d in team %d: %w", actorID, teamID, err)
	}
	return actor, nil
}
