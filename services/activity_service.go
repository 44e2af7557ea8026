package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Carlos-Trindade-code/sbar-health-sub000/models"
	"github.com/Carlos-Trindade-code/sbar-health-sub000/repositories"
)

// Audit action names recorded in the team activity log.
const (
	ActivityInviteCreated  = "invite.created"
	ActivityInviteAccepted = "invite.accepted"
	ActivityInviteParked   = "invite.pending_approval"
	ActivityInviteApproved = "invite.approved"
	ActivityInviteRejected = "invite.rejected"
	ActivityInviteRevoked  = "invite.revoked"
	ActivityMemberAdded    = "member.added"
	ActivityMemberRemoved  = "member.removed"
	ActivityRoleChanged    = "member.role_changed"
	ActivityTeamCreated    = "team.created"
	ActivityTeamRenamed    = "team.renamed"
)

// Broadcaster pushes an event to everyone watching a team's live feed.
// Satisfied by *feed.Hub.
type Broadcaster interface {
	BroadcastToTeam(teamID int, event interface{})
}

// ActivityLogger is a write-only audit sink. Writes are fire-and-forget:
// a failed insert is logged and swallowed so it can never block or fail
// the operation being audited.
type ActivityLogger struct {
	repo       repositories.ActivityRepository
	memberRepo repositories.MemberRepository
	hub        Broadcaster
	logger     *slog.Logger
}

func NewActivityLogger(
	repo repositories.ActivityRepository,
	memberRepo repositories.MemberRepository,
	hub Broadcaster,
	logger *slog.Logger,
) *ActivityLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &ActivityLogger{
		repo:       repo,
		memberRepo: memberRepo,
		hub:        hub,
		logger:     logger,
	}
}

func (l *ActivityLogger) Log(ctx context.Context, teamID, actorID int, action, detail string) {
	entry := &models.ActivityEntry{
		TeamID:  teamID,
		ActorID: actorID,
		Action:  action,
		Detail:  detail,
	}

	if err := l.repo.Insert(ctx, entry); err != nil {
		l.logger.WarnContext(ctx, "activity log write failed",
			slog.Int("team_id", teamID),
			slog.String("action", action),
			slog.Any("error", err),
		)
		return
	}

	if l.hub != nil {
		l.hub.BroadcastToTeam(teamID, entry)
	}
}

// ListTeamActivity returns the most recent audit entries for a team.
// Any member may read the log.
func (l *ActivityLogger) ListTeamActivity(ctx context.Context, teamID, actorID int, limit int) ([]*models.ActivityEntry, error) {
	member, err := l.memberRepo.Get(ctx, teamID, actorID)
	if err != nil {
		if errors.Is(err, repositories.ErrMemberNotFound) {
			return nil, ErrNotTeamMember
		}
		return nil, fmt.Errorf("failed to get membership for actor %d in team %d: %w", actorID, teamID, err)
	}
	if !CanPerform(member, ActionViewTeam) {
		return nil, ErrForbiddenOperation
	}

	entries, err := l.repo.ListByTeam(ctx, teamID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity for team %d: %w", teamID, err)
	}
	return entries, nil
}
