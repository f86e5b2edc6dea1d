package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"daylog/internal/model"
)

// TaskRepository handles CRUD for tasks plus the two tag side-view
// queries the daily log joins onto each row.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) ListByUser(ctx context.Context, userID string) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, userID, taskID string) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, taskID).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// Update applies a column map so nullable fields can be cleared.
func (r *TaskRepository) Update(ctx context.Context, userID, taskID string, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("user_id = ? AND id = ?", userID, taskID).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("update task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, userID, taskID string) error {
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, taskID).
		Delete(&model.Task{}).Error; err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// ListCompletedSince returns completed tasks whose completion time is
// at or after the cutoff, for the history view.
func (r *TaskRepository) ListCompletedSince(ctx context.Context, userID string, cutoff time.Time) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND completed = ? AND completed_at >= ?", userID, true, cutoff).
		Order("completed_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ClientTagRows builds the per-task client projection for a user's
// tasks, one row per task that carries a client tag.
func (r *TaskRepository) ClientTagRows(ctx context.Context, userID string) ([]model.ClientTagRow, error) {
	var rows []model.ClientTagRow
	err := r.db.WithContext(ctx).Table("tasks").
		Select("tasks.id AS task_id, clients.id AS id, clients.name AS name, clients.emoji AS emoji, clients.color AS color, clients.tags AS tag").
		Joins("JOIN clients ON clients.id = tasks.client_tag_id").
		Where("tasks.user_id = ?", userID).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("client tag rows: %w", err)
	}
	return rows, nil
}

// ProjectTagRows builds the per-task project projection, carrying the
// parent client's name for display.
func (r *TaskRepository) ProjectTagRows(ctx context.Context, userID string) ([]model.ProjectTagRow, error) {
	var rows []model.ProjectTagRow
	err := r.db.WithContext(ctx).Table("tasks").
		Select("tasks.id AS task_id, projects.id AS id, projects.name AS name, clients.name AS client_name, clients.tags AS tag").
		Joins("JOIN projects ON projects.id = tasks.project_tag_id").
		Joins("LEFT JOIN clients ON clients.id = projects.client_id").
		Where("tasks.user_id = ?", userID).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("project tag rows: %w", err)
	}
	return rows, nil
}
