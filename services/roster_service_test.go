package services

import (
	"context"
	"errors"
	"testing"

	"github.com/Carlos-Trindade-code/sbar-health-sub000/models"
	"github.com/Carlos-Trindade-code/sbar-health-sub000/repositories"
)

func seedRoster(t *testing.T) (*fakeMemberRepo, RosterService) {
	t.Helper()

	memberRepo := newFakeMemberRepo()
	roster := NewRosterService(memberRepo)

	ctx := context.Background()
	if _, err := roster.AddMember(ctx, nil, 1, 10, models.RoleAdmin, true); err != nil {
		t.Fatalf("seeding creator: %v", err)
	}
	if _, err := roster.AddMember(ctx, nil, 1, 11, models.RoleAdmin, false); err != nil {
		t.Fatalf("seeding admin: %v", err)
	}
	if _, err := roster.AddMember(ctx, nil, 1, 12, models.RoleEditor, false); err != nil {
		t.Fatalf("seeding editor: %v", err)
	}
	if _, err := roster.AddMember(ctx, nil, 1, 13, models.RoleReader, false); err != nil {
		t.Fatalf("seeding reader: %v", err)
	}
	return memberRepo, roster
}

func TestAddMemberRejectsDuplicateSeat(t *testing.T) {
	_, roster := seedRoster(t)

	_, err := roster.AddMember(context.Background(), nil, 1, 12, models.RoleReader, false)
	if !errors.Is(err, ErrAlreadyTeamMember) {
		t.Fatalf("AddMember for existing member returned %v, want ErrAlreadyTeamMember", err)
	}
}

func TestAddMemberRejectsInvalidRole(t *testing.T) {
	_, roster := seedRoster(t)

	_, err := roster.AddMember(context.Background(), nil, 1, 99, models.MemberRole("owner"), false)
	if !errors.Is(err, ErrInvalidMemberRole) {
		t.Fatalf("AddMember with bogus role returned %v, want ErrInvalidMemberRole", err)
	}
}

func TestCanAddMember(t *testing.T) {
	_, roster := seedRoster(t)
	ctx := context.Background()

	ok, err := roster.CanAddMember(ctx, 1, 12)
	if err != nil {
		t.Fatalf("CanAddMember: %v", err)
	}
	if ok {
		t.Error("CanAddMember reported true for an existing member")
	}

	ok, err = roster.CanAddMember(ctx, 1, 99)
	if err != nil {
		t.Fatalf("CanAddMember: %v", err)
	}
	if !ok {
		t.Error("CanAddMember reported false for a non-member")
	}
}

func TestChangeRole(t *testing.T) {
	memberRepo, roster := seedRoster(t)
	ctx := context.Background()

	if err := roster.ChangeRole(ctx, 1, 13, models.RoleEditor, 11); err != nil {
		t.Fatalf("admin promoting reader: %v", err)
	}
	member, err := memberRepo.Get(ctx, 1, 13)
	if err != nil {
		t.Fatalf("reloading member: %v", err)
	}
	if member.Role != models.RoleEditor {
		t.Errorf("role after change = %s, want %s", member.Role, models.RoleEditor)
	}
}

func TestChangeRoleForbiddenForNonAdmins(t *testing.T) {
	_, roster := seedRoster(t)
	ctx := context.Background()

	err := roster.ChangeRole(ctx, 1, 13, models.RoleEditor, 12)
	if !errors.Is(err, ErrForbiddenOperation) {
		t.Fatalf("editor changing roles returned %v, want ErrForbiddenOperation", err)
	}

	err = roster.ChangeRole(ctx, 1, 13, models.RoleEditor, 99)
	if !errors.Is(err, ErrNotTeamMember) {
		t.Fatalf("outsider changing roles returned %v, want ErrNotTeamMember", err)
	}
}

func TestChangeRoleCreatorStaysAdmin(t *testing.T) {
	memberRepo, roster := seedRoster(t)
	ctx := context.Background()

	// Not even the creator can demote themself.
	for _, actorID := range []int{10, 11} {
		err := roster.ChangeRole(ctx, 1, 10, models.RoleEditor, actorID)
		if !errors.Is(err, ErrCreatorRoleProtected) {
			t.Fatalf("demoting creator by actor %d returned %v, want ErrCreatorRoleProtected", actorID, err)
		}
	}

	// A no-op admin -> admin change on the creator is fine.
	if err := roster.ChangeRole(ctx, 1, 10, models.RoleAdmin, 11); err != nil {
		t.Fatalf("re-asserting admin on creator: %v", err)
	}

	creator, err := memberRepo.Get(ctx, 1, 10)
	if err != nil {
		t.Fatalf("reloading creator: %v", err)
	}
	if creator.Role != models.RoleAdmin || !creator.IsCreator {
		t.Errorf("creator row mutated: role=%s isCreator=%v", creator.Role, creator.IsCreator)
	}
}

func TestRemoveMember(t *testing.T) {
	memberRepo, roster := seedRoster(t)
	ctx := context.Background()

	if err := roster.RemoveMember(ctx, 1, 13, 11); err != nil {
		t.Fatalf("admin removing reader: %v", err)
	}
	if _, err := memberRepo.Get(ctx, 1, 13); !errors.Is(err, repositories.ErrMemberNotFound) {
		t.Fatalf("removed member still present, Get returned %v", err)
	}
}

func TestRemoveMemberSelfLeave(t *testing.T) {
	memberRepo, roster := seedRoster(t)
	ctx := context.Background()

	// A reader cannot remove others but may leave on their own.
	err := roster.RemoveMember(ctx, 1, 12, 13)
	if !errors.Is(err, ErrForbiddenOperation) {
		t.Fatalf("reader removing editor returned %v, want ErrForbiddenOperation", err)
	}

	if err := roster.RemoveMember(ctx, 1, 13, 13); err != nil {
		t.Fatalf("reader leaving: %v", err)
	}
	if memberRepo.count(1) != 3 {
		t.Errorf("roster count after self-leave = %d, want 3", memberRepo.count(1))
	}
}

func TestRemoveMemberCreatorProtected(t *testing.T) {
	_, roster := seedRoster(t)
	ctx := context.Background()

	// Neither another admin nor a self-leave can evict the creator.
	for _, actorID := range []int{11, 10} {
		err := roster.RemoveMember(ctx, 1, 10, actorID)
		if !errors.Is(err, ErrCreatorRemoveProtected) {
			t.Fatalf("removing creator by actor %d returned %v, want ErrCreatorRemoveProtected", actorID, err)
		}
	}
}

func TestListMembers(t *testing.T) {
	_, roster := seedRoster(t)
	ctx := context.Background()

	members, err := roster.ListMembers(ctx, 1, 13)
	if err != nil {
		t.Fatalf("reader listing members: %v", err)
	}
	if len(members) != 4 {
		t.Errorf("ListMembers returned %d members, want 4", len(members))
	}

	if _, err := roster.ListMembers(ctx, 1, 99); !errors.Is(err, ErrNotTeamMember) {
		t.Fatalf("outsider listing members returned %v, want ErrNotTeamMember", err)
	}
}
