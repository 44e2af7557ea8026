package services

import "github.com/Carlos-Trindade-code/sbar-health-sub000/models"

// TeamAction is a team-scoped management action subject to the role policy.
type TeamAction string

const (
	ActionViewTeam        TeamAction = "view_team"
	ActionCreateInvite    TeamAction = "create_invite"
	ActionRevokeInvite    TeamAction = "revoke_invite"
	ActionListInvites     TeamAction = "list_invites"
	ActionResolveApproval TeamAction = "resolve_approval"
	ActionChangeRole      TeamAction = "change_role"
	ActionRemoveMember    TeamAction = "remove_member"
)

// CanPerform is the single source of truth for team authorization. It is a
// pure function of the membership row and the requested action, and must be
// re-evaluated on every call: membership can change between requests.
//
// The creator always holds admin authority, whatever role is stored.
// Admins may manage invites, approvals and the roster. Editors may only
// originate invites (their invites go through the approval gate). Readers
// and data users get read-only access.
func CanPerform(member *models.TeamMember, action TeamAction) bool {
	if member == nil {
		return false
	}

	if member.IsAdmin() {
		return true
	}

	switch member.Role {
	case models.RoleEditor:
		switch action {
		case ActionViewTeam, ActionListInvites, ActionCreateInvite:
			return true
		}
	case models.RoleReader, models.RoleDataUser:
		switch action {
		case ActionViewTeam, ActionListInvites:
			return true
		}
	}

	return false
}
