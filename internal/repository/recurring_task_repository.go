package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"daylog/internal/model"
)

// RecurringTaskRepository handles CRUD for recurring task templates.
type RecurringTaskRepository struct {
	db *gorm.DB
}

func NewRecurringTaskRepository(db *gorm.DB) *RecurringTaskRepository {
	return &RecurringTaskRepository{db: db}
}

func (r *RecurringTaskRepository) Create(ctx context.Context, task *model.RecurringTask) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create recurring task: %w", err)
	}
	return nil
}

func (r *RecurringTaskRepository) ListByUser(ctx context.Context, userID string) ([]model.RecurringTask, error) {
	var tasks []model.RecurringTask
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListWithRelations joins client and project display columns onto each
// template, so list views need no further lookups.
func (r *RecurringTaskRepository) ListWithRelations(ctx context.Context, userID string) ([]model.RecurringTaskRow, error) {
	var rows []model.RecurringTaskRow
	err := r.db.WithContext(ctx).Table("recurring_tasks").
		Select("recurring_tasks.*, clients.name AS client_name, clients.emoji AS client_emoji, projects.name AS project_name").
		Joins("LEFT JOIN clients ON clients.id = recurring_tasks.client_id").
		Joins("LEFT JOIN projects ON projects.id = recurring_tasks.project_id").
		Where("recurring_tasks.user_id = ?", userID).
		Order("recurring_tasks.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list recurring tasks: %w", err)
	}
	return rows, nil
}

func (r *RecurringTaskRepository) FindByID(ctx context.Context, userID, taskID string) (*model.RecurringTask, error) {
	var task model.RecurringTask
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, taskID).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// Update applies a column map so day selectors can be nulled when the
// frequency changes.
func (r *RecurringTaskRepository) Update(ctx context.Context, userID, taskID string, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&model.RecurringTask{}).
		Where("user_id = ? AND id = ?", userID, taskID).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("update recurring task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *RecurringTaskRepository) Delete(ctx context.Context, userID, taskID string) error {
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, taskID).
		Delete(&model.RecurringTask{}).Error; err != nil {
		return fmt.Errorf("delete recurring task: %w", err)
	}
	return nil
}
