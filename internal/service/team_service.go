package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"daylog/internal/model"
	"daylog/internal/repository"
)

// TeamService manages an owner's team roster.
type TeamService struct {
	teamRepo *repository.TeamRepository
	userRepo *repository.UserRepository
}

func NewTeamService(teamRepo *repository.TeamRepository, userRepo *repository.UserRepository) *TeamService {
	return &TeamService{teamRepo: teamRepo, userRepo: userRepo}
}

// AddByUsername adds a known user to the owner's team. The member
// must have talked to the bot before so their account exists.
func (s *TeamService) AddByUsername(ctx context.Context, owner *model.User, username, role string) (*model.TeamMember, error) {
	if !model.ValidRole(role) {
		return nil, fmt.Errorf("unknown role %q", role)
	}
	member, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("no user with username %q", username)
		}
		return nil, err
	}
	if member.ID == owner.ID {
		return nil, fmt.Errorf("you are already the team owner")
	}
	if _, err := s.teamRepo.FindByMember(ctx, owner.ID, member.ID); err == nil {
		return nil, fmt.Errorf("%q is already on the team", username)
	}

	assoc := model.TeamMember{
		OwnerID:  owner.ID,
		MemberID: member.ID,
		Role:     role,
	}
	if err := s.teamRepo.Add(ctx, &assoc); err != nil {
		return nil, err
	}
	assoc.Member = member
	return &assoc, nil
}

func (s *TeamService) List(ctx context.Context, owner *model.User) ([]model.TeamMember, error) {
	return s.teamRepo.ListByOwner(ctx, owner.ID)
}

func (s *TeamService) UpdateRole(ctx context.Context, owner *model.User, memberID, role string) error {
	if !model.ValidRole(role) {
		return fmt.Errorf("unknown role %q", role)
	}
	return s.teamRepo.UpdateRole(ctx, owner.ID, memberID, role)
}

func (s *TeamService) Remove(ctx context.Context, owner *model.User, memberID string) error {
	return s.teamRepo.Remove(ctx, owner.ID, memberID)
}
