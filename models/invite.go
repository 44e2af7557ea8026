package models

import "time"

type InviteStatus string

const (
	InviteStatusPending         InviteStatus = "pending"
	InviteStatusAccepted        InviteStatus = "accepted"
	InviteStatusPendingApproval InviteStatus = "pending_approval"
	InviteStatusApproved        InviteStatus = "approved"
	InviteStatusRejected        InviteStatus = "rejected"
	InviteStatusRevoked         InviteStatus = "revoked"
	InviteStatusExpired         InviteStatus = "expired"
)

// Invite is a single-use admission ticket into a team. Records are never
// deleted; terminal states are kept for audit.
type Invite struct {
	ID                int          `json:"id" db:"id"`
	TeamID            int          `json:"team_id" db:"team_id"`
	Code              string       `json:"code" db:"code"`
	Email             *string      `json:"email,omitempty" db:"email"`
	InvitedByID       int          `json:"invited_by_id" db:"invited_by_id"`
	InvitedByWasAdmin bool         `json:"invited_by_was_admin" db:"invited_by_was_admin"`
	SuggestedRole     MemberRole   `json:"suggested_role" db:"suggested_role"`
	Status            InviteStatus `json:"status" db:"status"`
	AcceptedByID      *int         `json:"accepted_by_id,omitempty" db:"accepted_by_id"`
	AcceptedRole      *MemberRole  `json:"accepted_role,omitempty" db:"accepted_role"`
	ExpiresAt         time.Time    `json:"expires_at" db:"expires_at"`
	CreatedAt         time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at" db:"updated_at"`
}
