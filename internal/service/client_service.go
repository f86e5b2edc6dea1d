package service

import (
	"context"
	"fmt"
	"strings"

	"daylog/internal/model"
	"daylog/internal/repository"
)

// ClientService provides helpers around clients and their projects.
type ClientService struct {
	clientRepo  *repository.ClientRepository
	projectRepo *repository.ProjectRepository
}

func NewClientService(clientRepo *repository.ClientRepository, projectRepo *repository.ProjectRepository) *ClientService {
	return &ClientService{clientRepo: clientRepo, projectRepo: projectRepo}
}

func (s *ClientService) Create(ctx context.Context, user *model.User, name, emoji, color string, tags []string) (*model.Client, error) {
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if emoji == "" {
		emoji = "🏢"
	}
	if color == "" {
		color = "#6b7280"
	}
	client := model.Client{
		UserID: user.ID,
		Name:   name,
		Emoji:  emoji,
		Color:  color,
		Tags:   strings.Join(tags, ","),
	}
	if err := s.clientRepo.Create(ctx, &client); err != nil {
		return nil, err
	}
	return &client, nil
}

// AddProject creates a project under one of the user's clients.
func (s *ClientService) AddProject(ctx context.Context, user *model.User, clientID, name string, description *string) (*model.Project, error) {
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if _, err := s.clientRepo.FindByID(ctx, user.ID, clientID); err != nil {
		return nil, fmt.Errorf("client not found")
	}
	project := model.Project{
		ClientID:    clientID,
		Name:        name,
		Description: description,
	}
	if err := s.projectRepo.Create(ctx, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

func (s *ClientService) List(ctx context.Context, user *model.User) ([]model.Client, error) {
	return s.clientRepo.ListByUser(ctx, user.ID)
}

func (s *ClientService) Get(ctx context.Context, user *model.User, clientID string) (*model.Client, error) {
	return s.clientRepo.FindByID(ctx, user.ID, clientID)
}

func (s *ClientService) Delete(ctx context.Context, user *model.User, clientID string) error {
	return s.clientRepo.Delete(ctx, user.ID, clientID)
}
