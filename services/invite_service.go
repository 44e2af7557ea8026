package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Carlos-Trindade-code/sbar-health-sub000/models"
	"github.com/Carlos-Trindade-code/sbar-health-sub000/repositories"
)

const (
	inviteDuration         = 7 * 24 * time.Hour // fixed, not extendable
	inviteCodeMaxAttempts  = 5
	statusMember           = "member"
	statusAwaitingApproval = "pending_approval"
)

// InvitePreview is the unauthenticated view of a pending invite, enough for
// a prospective invitee to see what they are joining.
type InvitePreview struct {
	TeamID        int               `json:"team_id"`
	TeamName      string            `json:"team_name"`
	SuggestedRole models.MemberRole `json:"suggested_role"`
	Email         *string           `json:"email,omitempty"`
	ExpiresAt     time.Time         `json:"expires_at"`
}

// AcceptResult reports what accepting a code produced: an immediate seat, or
// a redemption parked for admin approval.
type AcceptResult struct {
	TeamID int               `json:"team_id"`
	Role   models.MemberRole `json:"role"`
	Status string            `json:"status"`
}

type InviteService interface {
	CreateInvite(ctx context.Context, teamID, actorID int, suggestedRole models.MemberRole, email *string) (*models.Invite, error)
	GetInviteByCode(ctx context.Context, code string) (*InvitePreview, error)
	AcceptInvite(ctx context.Context, code string, actorID int) (*AcceptResult, error)
	ApproveRequest(ctx context.Context, inviteID, actorID int) error
	RejectRequest(ctx context.Context, inviteID, actorID int) error
	ListTeamInvites(ctx context.Context, teamID, actorID int) ([]*models.Invite, error)
	RevokeInvite(ctx context.Context, inviteID, actorID int) error
}

type inviteService struct {
	inviteRepo repositories.InviteRepository
	teamRepo   repositories.TeamRepository
	memberRepo repositories.MemberRepository
	roster     RosterService
	activity   *ActivityLogger
	runTx      repositories.TxRunner
	now        func() time.Time
}

func NewInviteService(
	db *sql.DB,
	inviteRepo repositories.InviteRepository,
	teamRepo repositories.TeamRepository,
	memberRepo repositories.MemberRepository,
	roster RosterService,
	activity *ActivityLogger,
) InviteService {
	return &inviteService{
		inviteRepo: inviteRepo,
		teamRepo:   teamRepo,
		memberRepo: memberRepo,
		roster:     roster,
		activity:   activity,
		runTx:      repositories.NewTxRunner(db),
		now:        time.Now,
	}
}

func (s *inviteService) CreateInvite(ctx context.Context, teamID, actorID int, suggestedRole models.MemberRole, email *string) (*models.Invite, error) {
	if !suggestedRole.Valid() {
		return nil, ErrInvalidMemberRole
	}

	if _, err := s.teamRepo.GetByID(ctx, teamID); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", teamID, err)
	}

	actor, err := s.actorMembership(ctx, teamID, actorID)
	if err != nil {
		return nil, err
	}
	if !CanPerform(actor, ActionCreateInvite) {
		return nil, ErrForbiddenOperation
	}

	// The inviter's standing is snapshotted at creation time: it decides at
	// redemption whether membership is granted immediately or parked for
	// admin approval.
	invite := &models.Invite{
		TeamID:            teamID,
		Email:             email,
		InvitedByID:       actorID,
		InvitedByWasAdmin: actor.IsAdmin(),
		SuggestedRole:     suggestedRole,
		Status:            models.InviteStatusPending,
		ExpiresAt:         s.now().Add(inviteDuration),
	}

	for attempt := 0; attempt < inviteCodeMaxAttempts; attempt++ {
		code, err := GenerateInviteCode()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInviteCodeGeneration, err)
		}
		invite.Code = code

		err = s.inviteRepo.Create(ctx, invite)
		if err == nil {
			s.activity.Log(ctx, teamID, actorID, ActivityInviteCreated,
				fmt.Sprintf("invite %s created with suggested role %s", invite.Code, suggestedRole))
			return invite, nil
		}

		if errors.Is(err, repositories.ErrInviteCodeConflict) {
			continue
		}
		if errors.Is(err, repositories.ErrInviteTeamInvalid) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to create invite for team %d: %w", teamID, err)
	}

	return nil, fmt.Errorf("%w after %d attempts", ErrInviteCodeGeneration, inviteCodeMaxAttempts)
}

func (s *inviteService) GetInviteByCode(ctx context.Context, code string) (*InvitePreview, error) {
	invite, err := s.getPendingByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	team, err := s.teamRepo.GetByID(ctx, invite.TeamID)
	if err != nil {
		return nil, fmt.Errorf("failed to get team %d for invite %d: %w", invite.TeamID, invite.ID, err)
	}

	return &InvitePreview{
		TeamID:        team.ID,
		TeamName:      team.Name,
		SuggestedRole: invite.SuggestedRole,
		Email:         invite.Email,
		ExpiresAt:     invite.ExpiresAt,
	}, nil
}

func (s *inviteService) AcceptInvite(ctx context.Context, code string, actorID int) (*AcceptResult, error) {
	invite, err := s.getPendingByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	ok, err := s.roster.CanAddMember(ctx, invite.TeamID, actorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAlreadyTeamMember
	}

	role := invite.SuggestedRole

	if !invite.InvitedByWasAdmin {
		// Gated path: park the redemption and record who accepted and the
		// role they would receive. No roster row until an admin approves.
		err = s.inviteRepo.TransitionStatus(ctx, nil, invite.ID,
			models.InviteStatusPending, models.InviteStatusPendingApproval, &actorID, &role)
		if err != nil {
			if errors.Is(err, repositories.ErrInviteStatusConflict) {
				return nil, ErrInviteAlreadyUsed
			}
			return nil, fmt.Errorf("failed to park invite %d for approval: %w", invite.ID, err)
		}

		s.activity.Log(ctx, invite.TeamID, actorID, ActivityInviteParked,
			fmt.Sprintf("invite %s accepted, awaiting admin approval", invite.Code))

		return &AcceptResult{TeamID: invite.TeamID, Role: role, Status: statusAwaitingApproval}, nil
	}

	// Admin-issued path: the conditional update decides the race. Exactly one
	// of two concurrent accepts flips pending -> accepted; the loser sees a
	// status conflict and fails. The status flip and the roster insert commit
	// together, so a failed insert cannot strand a consumed invite.
	err = s.runTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.inviteRepo.TransitionStatus(ctx, exec, invite.ID,
			models.InviteStatusPending, models.InviteStatusAccepted, &actorID, &role); err != nil {
			return err
		}
		_, err := s.roster.AddMember(ctx, exec, invite.TeamID, actorID, role, false)
		return err
	})
	if err != nil {
		if errors.Is(err, repositories.ErrInviteStatusConflict) {
			return nil, ErrInviteAlreadyUsed
		}
		if errors.Is(err, ErrAlreadyTeamMember) {
			return nil, ErrAlreadyTeamMember
		}
		return nil, fmt.Errorf("failed to accept invite %d: %w", invite.ID, err)
	}

	s.activity.Log(ctx, invite.TeamID, actorID, ActivityInviteAccepted,
		fmt.Sprintf("invite %s accepted, joined as %s", invite.Code, role))
	s.activity.Log(ctx, invite.TeamID, actorID, ActivityMemberAdded,
		fmt.Sprintf("user %d joined as %s", actorID, role))

	return &AcceptResult{TeamID: invite.TeamID, Role: role, Status: statusMember}, nil
}

func (s *inviteService) ApproveRequest(ctx context.Context, inviteID, actorID int) error {
	invite, err := s.resolvableInvite(ctx, inviteID, actorID)
	if err != nil {
		return err
	}

	if invite.AcceptedByID == nil || invite.AcceptedRole == nil {
		return fmt.Errorf("invite %d is pending approval but has no recorded acceptance", invite.ID)
	}

	// The approval flip and the seat commit together: if the insert fails,
	// the request stays pending_approval and the admin can retry or reject.
	err = s.runTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.inviteRepo.TransitionStatus(ctx, exec, invite.ID,
			models.InviteStatusPendingApproval, models.InviteStatusApproved, nil, nil); err != nil {
			return err
		}
		_, err := s.roster.AddMember(ctx, exec, invite.TeamID, *invite.AcceptedByID, *invite.AcceptedRole, false)
		return err
	})
	if err != nil {
		if errors.Is(err, repositories.ErrInviteStatusConflict) {
			return ErrInviteNotApprovable
		}
		if errors.Is(err, ErrAlreadyTeamMember) {
			// The acceptee joined through another path while the request was
			// parked. The request survives so the admin can reject it.
			return ErrAlreadyTeamMember
		}
		return fmt.Errorf("failed to approve invite %d: %w", invite.ID, err)
	}

	s.activity.Log(ctx, invite.TeamID, actorID, ActivityInviteApproved,
		fmt.Sprintf("invite %s approved, user %d joined as %s", invite.Code, *invite.AcceptedByID, *invite.AcceptedRole))
	s.activity.Log(ctx, invite.TeamID, *invite.AcceptedByID, ActivityMemberAdded,
		fmt.Sprintf("user %d joined as %s", *invite.AcceptedByID, *invite.AcceptedRole))

	return nil
}

func (s *inviteService) RejectRequest(ctx context.Context, inviteID, actorID int) error {
	invite, err := s.resolvableInvite(ctx, inviteID, actorID)
	if err != nil {
		return err
	}

	err = s.inviteRepo.TransitionStatus(ctx, nil, invite.ID,
		models.InviteStatusPendingApproval, models.InviteStatusRejected, nil, nil)
	if err != nil {
		if errors.Is(err, repositories.ErrInviteStatusConflict) {
			return ErrInviteNotApprovable
		}
		return fmt.Errorf("failed to reject invite %d: %w", invite.ID, err)
	}

	s.activity.Log(ctx, invite.TeamID, actorID, ActivityInviteRejected,
		fmt.Sprintf("invite %s rejected", invite.Code))

	return nil
}

func (s *inviteService) ListTeamInvites(ctx context.Context, teamID, actorID int) ([]*models.Invite, error) {
	actor, err := s.actorMembership(ctx, teamID, actorID)
	if err != nil {
		return nil, err
	}
	if !CanPerform(actor, ActionListInvites) {
		return nil, ErrForbiddenOperation
	}

	invites, err := s.inviteRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invites for team %d: %w", teamID, err)
	}
	return invites, nil
}

func (s *inviteService) RevokeInvite(ctx context.Context, inviteID, actorID int) error {
	invite, err := s.inviteRepo.GetByID(ctx, inviteID)
	if err != nil {
		if errors.Is(err, repositories.ErrInviteNotFound) {
			return ErrInviteNotFound
		}
		return fmt.Errorf("failed to get invite %d: %w", inviteID, err)
	}

	actor, err := s.actorMembership(ctx, invite.TeamID, actorID)
	if err != nil {
		return err
	}
	if !CanPerform(actor, ActionRevokeInvite) {
		return ErrForbiddenOperation
	}

	if invite.Status != models.InviteStatusPending && invite.Status != models.InviteStatusPendingApproval {
		return ErrInviteNotRevocable
	}

	err = s.inviteRepo.TransitionStatus(ctx, nil, invite.ID,
		invite.Status, models.InviteStatusRevoked, nil, nil)
	if err != nil {
		if errors.Is(err, repositories.ErrInviteStatusConflict) {
			return ErrInviteNotRevocable
		}
		return fmt.Errorf("failed to revoke invite %d: %w", invite.ID, err)
	}

	s.activity.Log(ctx, invite.TeamID, actorID, ActivityInviteRevoked,
		fmt.Sprintf("invite %s revoked", invite.Code))

	return nil
}

// getPendingByCode loads an invite by code and validates it is still
// redeemable. Expiry is evaluated lazily here, at read time; there is no
// background sweep.
func (s *inviteService) getPendingByCode(ctx context.Context, code string) (*models.Invite, error) {
	invite, err := s.inviteRepo.GetByCode(ctx, NormalizeInviteCode(code))
	if err != nil {
		if errors.Is(err, repositories.ErrInviteNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("failed to get invite by code: %w", err)
	}

	if invite.Status == models.InviteStatusPending && s.now().After(invite.ExpiresAt) {
		// Best effort: losing this conditional update to a concurrent reader
		// changes nothing, the invite is expired either way.
		err := s.inviteRepo.TransitionStatus(ctx, nil, invite.ID,
			models.InviteStatusPending, models.InviteStatusExpired, nil, nil)
		if err != nil && !errors.Is(err, repositories.ErrInviteStatusConflict) {
			return nil, fmt.Errorf("failed to expire invite %d: %w", invite.ID, err)
		}
		return nil, ErrInviteExpired
	}

	switch invite.Status {
	case models.InviteStatusPending:
		return invite, nil
	case models.InviteStatusAccepted, models.InviteStatusApproved:
		return nil, ErrInviteAlreadyUsed
	case models.InviteStatusPendingApproval:
		return nil, ErrInviteAlreadyUsed
	case models.InviteStatusRevoked:
		return nil, ErrInviteRevoked
	case models.InviteStatusExpired:
		return nil, ErrInviteExpired
	default:
		return nil, ErrInviteNotPending
	}
}

// resolvableInvite authorizes an approve/reject action: the invite must be
// sitting in pending_approval and the actor must be an admin of its team.
func (s *inviteService) resolvableInvite(ctx context.Context, inviteID, actorID int) (*models.Invite, error) {
	invite, err := s.inviteRepo.GetByID(ctx, inviteID)
	if err != nil {
		if errors.Is(err, repositories.ErrInviteNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("failed to get invite %d: %w", inviteID, err)
	}

	actor, err := s.actorMembership(ctx, invite.TeamID, actorID)
	if err != nil {
		return nil, err
	}
	if !CanPerform(actor, ActionResolveApproval) {
		return nil, ErrForbiddenOperation
	}

	if invite.Status != models.InviteStatusPendingApproval {
		return nil, ErrInviteNotApprovable
	}

	return invite, nil
}

func (s *inviteService) actorMembership(ctx context.Context, teamID, actorID int) (*models.TeamMember, error) {
	actor, err := s.memberRepo.Get(ctx, teamID, actorID)
	if err != nil {
		if errors.Is(err, repositories.ErrMemberNotFound) {
			return nil, ErrNotTeamMember
		}
		return nil, fmt.Errorf("failed to get membership for actor %d in team %d: %w", actorID, teamID, err)
	}
	return actor, nil
}
