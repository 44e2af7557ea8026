package services

import "errors"

// Shared service-level errors, mapped to HTTP status codes in the handlers.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Validation and business rules
	ErrValidationFailed  = errors.New("validation failed")
	ErrPasswordTooShort  = errors.New("password is too short")
	ErrTeamNameRequired  = errors.New("team name is required")
	ErrInvalidMemberRole = errors.New("invalid member role")

	// Invite lifecycle state conflicts. These are terminal for the caller:
	// the same call will never succeed, a new invite is needed.
	ErrInviteExpired       = errors.New("invite has expired")
	ErrInviteAlreadyUsed   = errors.New("invite has already been used")
	ErrInviteRevoked       = errors.New("invite has been revoked")
	ErrInviteNotPending    = errors.New("invite is not pending")
	ErrInviteNotApprovable = errors.New("invite is not awaiting approval")
	ErrInviteNotRevocable  = errors.New("invite can no longer be revoked")
	ErrAlreadyTeamMember   = errors.New("user is already a member of this team")

	// Creator-protection invariant violations
	ErrCreatorRoleProtected   = errors.New("the team creator's role cannot be changed from admin")
	ErrCreatorRemoveProtected = errors.New("the team creator cannot be removed from the team")

	// Authentication and authorization
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrAuthEmailTaken         = errors.New("email is already taken")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")
	ErrNotTeamMember          = errors.New("user is not a member of this team")

	// Entity-specific not-found errors
	ErrUserNotFound   = errors.New("user not found")
	ErrTeamNotFound   = errors.New("team not found")
	ErrMemberNotFound = errors.New("team member not found")
	ErrInviteNotFound = errors.New("invite not found")

	// Infrastructure
	ErrInviteCodeGeneration = errors.New("failed to generate unique invite code")
)
