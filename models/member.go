package models

import "time"

type MemberRole string

const (
	RoleAdmin    MemberRole = "admin"
	RoleEditor   MemberRole = "editor"
	RoleReader   MemberRole = "reader"
	RoleDataUser MemberRole = "data_user"
)

func (r MemberRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleReader, RoleDataUser:
		return true
	}
	return false
}

// TeamMember is one roster row. (TeamID, UserID) is unique, and exactly one
// member per team carries IsCreator for the team's whole lifetime.
type TeamMember struct {
	TeamID    int        `json:"team_id" db:"team_id"`
	UserID    int        `json:"user_id" db:"user_id"`
	Role      MemberRole `json:"role" db:"role"`
	IsCreator bool       `json:"is_creator" db:"is_creator"`
	JoinedAt  time.Time  `json:"joined_at" db:"joined_at"`

	User *User `json:"user,omitempty" db:"-"`
}

// IsAdmin reports whether the member holds admin-level authority. The
// creator keeps it regardless of the stored role.
func (m *TeamMember) IsAdmin() bool {
	return m != nil && (m.IsCreator || m.Role == RoleAdmin)
}
