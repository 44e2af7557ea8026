package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/Carlos-Trindade-code/sbar-health-sub000/models"
)

type captureBroadcaster struct {
	mu     sync.Mutex
	events []interface{}
}

func (b *captureBroadcaster) BroadcastToTeam(teamID int, event interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func TestActivityLogWritesAndBroadcasts(t *testing.T) {
	repo := newFakeActivityRepo()
	members := newFakeMemberRepo()
	hub := &captureBroadcaster{}
	logger := NewActivityLogger(repo, members, hub, nil)

	logger.Log(context.Background(), 1, 10, ActivityInviteCreated, "invite SBAR-TESTCODE created")

	if len(repo.entries) != 1 {
		t.Fatalf("activity store holds %d entries, want 1", len(repo.entries))
	}
	entry := repo.entries[0]
	if entry.TeamID != 1 || entry.ActorID != 10 || entry.Action != ActivityInviteCreated {
		t.Errorf("stored entry = %+v", entry)
	}
	if len(hub.events) != 1 {
		t.Errorf("broadcast %d events, want 1", len(hub.events))
	}
}

func TestActivityLogSwallowsStoreFailures(t *testing.T) {
	repo := newFakeActivityRepo()
	repo.failInsert = true
	hub := &captureBroadcaster{}
	quiet := slog.New(slog.NewTextHandler(discardWriter{}, nil))
	logger := NewActivityLogger(repo, newFakeMemberRepo(), hub, quiet)

	// Must not panic or surface the error; the failed write is dropped and
	// nothing reaches the live feed.
	logger.Log(context.Background(), 1, 10, ActivityInviteRevoked, "invite SBAR-TESTCODE revoked")

	if len(repo.entries) != 0 {
		t.Errorf("activity store holds %d entries, want 0", len(repo.entries))
	}
	if len(hub.events) != 0 {
		t.Errorf("broadcast %d events after failed write, want 0", len(hub.events))
	}
}

func TestListTeamActivityRequiresMembership(t *testing.T) {
	repo := newFakeActivityRepo()
	members := newFakeMemberRepo()
	logger := NewActivityLogger(repo, members, nil, nil)
	ctx := context.Background()

	if err := members.Create(ctx, nil, &models.TeamMember{TeamID: 1, UserID: 13, Role: models.RoleReader}); err != nil {
		t.Fatalf("seeding member: %v", err)
	}
	logger.Log(ctx, 1, 13, ActivityTeamCreated, "team created")
	logger.Log(ctx, 2, 13, ActivityTeamCreated, "other team created")

	entries, err := logger.ListTeamActivity(ctx, 1, 13, 50)
	if err != nil {
		t.Fatalf("ListTeamActivity: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("got %d entries, want 1 (scoped to team)", len(entries))
	}

	if _, err := logger.ListTeamActivity(ctx, 1, 99, 50); !errors.Is(err, ErrNotTeamMember) {
		t.Errorf("outsider reading log returned %v, want ErrNotTeamMember", err)
	}
}
