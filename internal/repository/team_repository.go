package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"daylog/internal/model"
)

// TeamRepository manages team membership associations.
type TeamRepository struct {
	db *gorm.DB
}

func NewTeamRepository(db *gorm.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) Add(ctx context.Context, member *model.TeamMember) error {
	if err := r.db.WithContext(ctx).Create(member).Error; err != nil {
		return fmt.Errorf("add team member: %w", err)
	}
	return nil
}

// ListByOwner returns the owner's roster with member users joined.
func (r *TeamRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.TeamMember, error) {
	var members []model.TeamMember
	if err := r.db.WithContext(ctx).Preload("Member").
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (r *TeamRepository) FindByMember(ctx context.Context, ownerID, memberID string) (*model.TeamMember, error) {
	var member model.TeamMember
	if err := r.db.WithContext(ctx).Where("owner_id = ? AND member_id = ?", ownerID, memberID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *TeamRepository) UpdateRole(ctx context.Context, ownerID, memberID, role string) error {
	result := r.db.WithContext(ctx).Model(&model.TeamMember{}).
		Where("owner_id = ? AND member_id = ?", ownerID, memberID).
		Update("role", role)
	if result.Error != nil {
		return fmt.Errorf("update role: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *TeamRepository) Remove(ctx context.Context, ownerID, memberID string) error {
	if err := r.db.WithContext(ctx).Where("owner_id = ? AND member_id = ?", ownerID, memberID).
		Delete(&model.TeamMember{}).Error; err != nil {
		return fmt.Errorf("remove team member: %w", err)
	}
	return nil
}
