package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Carlos-Trindade-code/sbar-health-sub000/models"
	"github.com/Carlos-Trindade-code/sbar-health-sub000/repositories"
)

type TeamService interface {
	CreateTeam(ctx context.Context, name string, creatorID int) (*models.Team, error)
	CreatePersonalTeam(ctx context.Context, user *models.User) (*models.Team, error)
	GetTeam(ctx context.Context, teamID, actorID int) (*models.Team, error)
	RenameTeam(ctx context.Context, teamID int, name string, actorID int) (*models.Team, error)
}

type teamService struct {
	teamRepo   repositories.TeamRepository
	memberRepo repositories.MemberRepository
	roster     RosterService
	activity   *ActivityLogger
}

func NewTeamService(
	teamRepo repositories.TeamRepository,
	memberRepo repositories.MemberRepository,
	roster RosterService,
	activity *ActivityLogger,
) TeamService {
	return &teamService{
		teamRepo:   teamRepo,
		memberRepo: memberRepo,
		roster:     roster,
		activity:   activity,
	}
}

func (s *teamService) CreateTeam(ctx context.Context, name string, creatorID int) (*models.Team, error) {
	return s.createTeam(ctx, name, creatorID, false)
}

// CreatePersonalTeam makes the implicit single-user team every account gets
// at registration.
func (s *teamService) CreatePersonalTeam(ctx context.Context, user *models.User) (*models.Team, error) {
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name == "" {
		name = user.Email
	}
	return s.createTeam(ctx, name, user.ID, true)
}

func (s *teamService) createTeam(ctx context.Context, name string, creatorID int, personal bool) (*models.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrTeamNameRequired
	}

	team := &models.Team{Name: name, IsPersonal: personal}
	if err := s.teamRepo.Create(ctx, nil, team); err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	// The creator seat: admin role, creator flag, protected for the team's
	// whole lifetime.
	member, err := s.roster.AddMember(ctx, nil, team.ID, creatorID, models.RoleAdmin, true)
	if err != nil {
		return nil, fmt.Errorf("failed to seat creator for team %d: %w", team.ID, err)
	}
	team.Members = []models.TeamMember{*member}

	s.activity.Log(ctx, team.ID, creatorID, ActivityTeamCreated, fmt.Sprintf("team %q created", team.Name))

	return team, nil
}

func (s *teamService) GetTeam(ctx context.Context, teamID, actorID int) (*models.Team, error) {
	member, err := s.memberRepo.Get(ctx, teamID, actorID)
	if err != nil {
		if errors.Is(err, repositories.ErrMemberNotFound) {
			return nil, ErrNotTeamMember
		}
		return nil, fmt.Errorf("failed to get membership for actor %d in team %d: %w", actorID, teamID, err)
	}
	if !CanPerform(member, ActionViewTeam) {
		return nil, ErrForbiddenOperation
	}

	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", teamID, err)
	}

	members, err := s.memberRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members of team %d: %w", teamID, err)
	}
	team.Members = make([]models.TeamMember, 0, len(members))
	for _, m := range members {
		team.Members = append(team.Members, *m)
	}

	return team, nil
}

func (s *teamService) RenameTeam(ctx context.Context, teamID int, name string, actorID int) (*models.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrTeamNameRequired
	}

	member, err := s.memberRepo.Get(ctx, teamID, actorID)
	if err != nil {
		if errors.Is(err, repositories.ErrMemberNotFound) {
			return nil, ErrNotTeamMember
		}
		return nil, fmt.Errorf("failed to get membership for actor %d in team %d: %w", actorID, teamID, err)
	}
	if !member.IsAdmin() {
		return nil, ErrForbiddenOperation
	}

	if err := s.teamRepo.UpdateName(ctx, teamID, name); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to rename team %d: %w", teamID, err)
	}

	s.activity.Log(ctx, teamID, actorID, ActivityTeamRenamed, fmt.Sprintf("team renamed to %q", name))

	return s.teamRepo.GetByID(ctx, teamID)
}
