package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Carlos-Trindade-code/sbar-health-sub000/models"
	"github.com/Carlos-Trindade-code/sbar-health-sub000/repositories"
)

// In-memory repository fakes. The invite fake mirrors the conditional-update
// semantics of the Postgres implementation: TransitionStatus only succeeds
// when the record still holds the expected status, under a single lock, so
// racing callers behave the same as against the real store.

type fakeInviteRepo struct {
	mu      sync.Mutex
	nextID  int
	invites map[int]*models.Invite

	// forceConflicts makes the next N Create calls fail with a code
	// conflict, for exercising the regeneration loop.
	forceConflicts int
}

func newFakeInviteRepo() *fakeInviteRepo {
	return &fakeInviteRepo{invites: make(map[int]*models.Invite)}
}

func (r *fakeInviteRepo) Create(ctx context.Context, invite *models.Invite) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.forceConflicts > 0 {
		r.forceConflicts--
		return repositories.ErrInviteCodeConflict
	}
	for _, existing := range r.invites {
		if strings.EqualFold(existing.Code, invite.Code) {
			return repositories.ErrInviteCodeConflict
		}
	}

	r.nextID++
	invite.ID = r.nextID
	invite.CreatedAt = time.Now()
	invite.UpdatedAt = invite.CreatedAt
	copied := *invite
	r.invites[invite.ID] = &copied
	return nil
}

func (r *fakeInviteRepo) GetByID(ctx context.Context, inviteID int) (*models.Invite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	invite, ok := r.invites[inviteID]
	if !ok {
		return nil, repositories.ErrInviteNotFound
	}
	copied := *invite
	return &copied, nil
}

func (r *fakeInviteRepo) GetByCode(ctx context.Context, code string) (*models.Invite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, invite := range r.invites {
		if strings.EqualFold(invite.Code, code) {
			copied := *invite
			return &copied, nil
		}
	}
	return nil, repositories.ErrInviteNotFound
}

func (r *fakeInviteRepo) ListByTeam(ctx context.Context, teamID int) ([]*models.Invite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	invites := make([]*models.Invite, 0)
	for _, invite := range r.invites {
		if invite.TeamID == teamID {
			copied := *invite
			invites = append(invites, &copied)
		}
	}
	return invites, nil
}

func (r *fakeInviteRepo) TransitionStatus(ctx context.Context, exec repositories.SQLExecutor, inviteID int, from, to models.InviteStatus, acceptedByID *int, acceptedRole *models.MemberRole) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	invite, ok := r.invites[inviteID]
	if !ok || invite.Status != from {
		return repositories.ErrInviteStatusConflict
	}
	invite.Status = to
	if acceptedByID != nil {
		v := *acceptedByID
		invite.AcceptedByID = &v
	}
	if acceptedRole != nil {
		v := *acceptedRole
		invite.AcceptedRole = &v
	}
	invite.UpdatedAt = time.Now()
	return nil
}

func (r *fakeInviteRepo) snapshot() map[int]models.Invite {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := make(map[int]models.Invite, len(r.invites))
	for id, invite := range r.invites {
		snap[id] = *invite
	}
	return snap
}

func (r *fakeInviteRepo) restore(snap map[int]models.Invite) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.invites = make(map[int]*models.Invite, len(snap))
	for id := range snap {
		invite := snap[id]
		r.invites[id] = &invite
	}
}

type fakeMemberRepo struct {
	mu      sync.Mutex
	members map[string]*models.TeamMember

	// failCreates makes the next N Create calls fail with a transient
	// store error.
	failCreates int
}

func newFakeMemberRepo() *fakeMemberRepo {
	return &fakeMemberRepo{members: make(map[string]*models.TeamMember)}
}

func memberKey(teamID, userID int) string {
	return fmt.Sprintf("%d/%d", teamID, userID)
}

func (r *fakeMemberRepo) Create(ctx context.Context, exec repositories.SQLExecutor, member *models.TeamMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failCreates > 0 {
		r.failCreates--
		return fmt.Errorf("member store unavailable")
	}

	key := memberKey(member.TeamID, member.UserID)
	if _, ok := r.members[key]; ok {
		return repositories.ErrMemberConflict
	}
	member.JoinedAt = time.Now()
	copied := *member
	r.members[key] = &copied
	return nil
}

func (r *fakeMemberRepo) Get(ctx context.Context, teamID, userID int) (*models.TeamMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	member, ok := r.members[memberKey(teamID, userID)]
	if !ok {
		return nil, repositories.ErrMemberNotFound
	}
	copied := *member
	return &copied, nil
}

func (r *fakeMemberRepo) ListByTeam(ctx context.Context, teamID int) ([]*models.TeamMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members := make([]*models.TeamMember, 0)
	for _, member := range r.members {
		if member.TeamID == teamID {
			copied := *member
			members = append(members, &copied)
		}
	}
	return members, nil
}

func (r *fakeMemberRepo) UpdateRole(ctx context.Context, teamID, userID int, role models.MemberRole) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	member, ok := r.members[memberKey(teamID, userID)]
	if !ok {
		return repositories.ErrMemberNotFound
	}
	member.Role = role
	return nil
}

func (r *fakeMemberRepo) Delete(ctx context.Context, teamID, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := memberKey(teamID, userID)
	if _, ok := r.members[key]; !ok {
		return repositories.ErrMemberNotFound
	}
	delete(r.members, key)
	return nil
}

func (r *fakeMemberRepo) snapshot() map[string]models.TeamMember {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := make(map[string]models.TeamMember, len(r.members))
	for key, member := range r.members {
		snap[key] = *member
	}
	return snap
}

func (r *fakeMemberRepo) restore(snap map[string]models.TeamMember) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.members = make(map[string]*models.TeamMember, len(snap))
	for key := range snap {
		member := snap[key]
		r.members[key] = &member
	}
}

func (r *fakeMemberRepo) count(teamID int) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, member := range r.members {
		if member.TeamID == teamID {
			n++
		}
	}
	return n
}

type fakeTeamRepo struct {
	mu     sync.Mutex
	nextID int
	teams  map[int]*models.Team
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{teams: make(map[int]*models.Team)}
}

func (r *fakeTeamRepo) Create(ctx context.Context, exec repositories.SQLExecutor, team *models.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	team.ID = r.nextID
	team.CreatedAt = time.Now()
	copied := *team
	r.teams[team.ID] = &copied
	return nil
}

func (r *fakeTeamRepo) GetByID(ctx context.Context, teamID int) (*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	team, ok := r.teams[teamID]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	copied := *team
	return &copied, nil
}

func (r *fakeTeamRepo) UpdateName(ctx context.Context, teamID int, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	team, ok := r.teams[teamID]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	team.Name = name
	return nil
}

type fakeActivityRepo struct {
	mu         sync.Mutex
	nextID     int
	entries    []*models.ActivityEntry
	failInsert bool
}

func newFakeActivityRepo() *fakeActivityRepo {
	return &fakeActivityRepo{}
}

func (r *fakeActivityRepo) Insert(ctx context.Context, entry *models.ActivityEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failInsert {
		return fmt.Errorf("activity store unavailable")
	}
	r.nextID++
	entry.ID = r.nextID
	entry.CreatedAt = time.Now()
	copied := *entry
	r.entries = append(r.entries, &copied)
	return nil
}

func (r *fakeActivityRepo) ListByTeam(ctx context.Context, teamID int, limit int) ([]*models.ActivityEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := make([]*models.ActivityEntry, 0)
	for _, entry := range r.entries {
		if entry.TeamID == teamID {
			copied := *entry
			entries = append(entries, &copied)
		}
	}
	return entries, nil
}

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[int]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int]*models.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, exec repositories.SQLExecutor, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, userID int) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) UpdateAvatarKey(ctx context.Context, userID int, key *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.AvatarKey = key
	return nil
}

// fakeTxRunner gives the in-memory stores transaction semantics:
// transactions serialize on one lock, and a failing fn rolls both stores
// back to their pre-transaction state.
func fakeTxRunner(invites *fakeInviteRepo, members *fakeMemberRepo) repositories.TxRunner {
	var mu sync.Mutex
	return func(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
		mu.Lock()
		defer mu.Unlock()

		inviteSnap := invites.snapshot()
		memberSnap := members.snapshot()
		if err := fn(nil); err != nil {
			invites.restore(inviteSnap)
			members.restore(memberSnap)
			return err
		}
		return nil
	}
}

func newTestActivityLogger(repo *fakeActivityRepo, memberRepo *fakeMemberRepo) *ActivityLogger {
	return NewActivityLogger(repo, memberRepo, nil, slog.New(slog.NewTextHandler(discardWriter{}, nil)))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
