package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"daylog/internal/model"
)

// ClientRepository manages clients and their projects.
type ClientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

func (r *ClientRepository) Create(ctx context.Context, client *model.Client) error {
	if err := r.db.WithContext(ctx).Create(client).Error; err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	return nil
}

// ListByUser returns the user's clients with projects preloaded,
// newest client first.
func (r *ClientRepository) ListByUser(ctx context.Context, userID string) ([]model.Client, error) {
	var clients []model.Client
	if err := r.db.WithContext(ctx).Preload("Projects").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&clients).Error; err != nil {
		return nil, err
	}
	return clients, nil
}

func (r *ClientRepository) FindByID(ctx context.Context, userID, clientID string) (*model.Client, error) {
	var client model.Client
	if err := r.db.WithContext(ctx).Preload("Projects").
		Where("user_id = ? AND id = ?", userID, clientID).
		First(&client).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *ClientRepository) Delete(ctx context.Context, userID, clientID string) error {
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, clientID).
		Delete(&model.Client{}).Error; err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	return nil
}

// ProjectRepository manages projects under a client.
type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Create(ctx context.Context, project *model.Project) error {
	if err := r.db.WithContext(ctx).Create(project).Error; err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

func (r *ProjectRepository) FindByID(ctx context.Context, projectID string) (*model.Project, error) {
	var project model.Project
	if err := r.db.WithContext(ctx).First(&project, "id = ?", projectID).Error; err != nil {
		return nil, err
	}
	return &project, nil
}
