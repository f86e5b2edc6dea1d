package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"daylog/internal/daylog"
	"daylog/internal/model"
	"daylog/internal/repository"
)

// TaskUpdate carries the mutable task fields. Double pointers
// distinguish "leave alone" (nil) from "set to null" (*T == nil).
type TaskUpdate struct {
	Content      *string
	Time         **string
	ClientTagID  **string
	ProjectTagID **string
}

// DayLog is the assembled daily view: both buckets with tags joined
// and minute totals computed.
type DayLog struct {
	Todo             []model.Task
	Completed        []model.Task
	TodoMinutes      float64
	CompletedMinutes float64
}

// TaskService wraps task CRUD, the write-path tag invariant, and the
// daily-log assembly.
type TaskService struct {
	taskRepo    *repository.TaskRepository
	projectRepo *repository.ProjectRepository
	loc         *time.Location
}

func NewTaskService(taskRepo *repository.TaskRepository, projectRepo *repository.ProjectRepository, loc *time.Location) *TaskService {
	return &TaskService{taskRepo: taskRepo, projectRepo: projectRepo, loc: loc}
}

func (s *TaskService) Create(ctx context.Context, user *model.User, content string) (*model.Task, error) {
	if content == "" {
		return nil, fmt.Errorf("content is required")
	}
	task := model.Task{
		UserID:  user.ID,
		Content: content,
	}
	if err := s.taskRepo.Create(ctx, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// Update mutates a task, enforcing the tag invariant on the write
// path: a project tag requires its parent client as the client tag
// (inferred when absent, rejected when contradicting), and clearing
// the client clears the project with it.
func (s *TaskService) Update(ctx context.Context, user *model.User, taskID string, upd TaskUpdate) (*model.Task, error) {
	if _, err := s.taskRepo.FindByID(ctx, user.ID, taskID); err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if upd.Content != nil {
		updates["content"] = *upd.Content
	}
	if upd.Time != nil {
		updates["time"] = *upd.Time
	}
	if upd.ClientTagID != nil {
		updates["client_tag_id"] = *upd.ClientTagID
	}

	if upd.ProjectTagID != nil && *upd.ProjectTagID != nil {
		project, err := s.projectRepo.FindByID(ctx, **upd.ProjectTagID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("invalid project selected")
			}
			return nil, err
		}
		if upd.ClientTagID != nil && *upd.ClientTagID != nil && **upd.ClientTagID != project.ClientID {
			return nil, fmt.Errorf("project must belong to the selected client")
		}
		if upd.ClientTagID == nil || *upd.ClientTagID == nil {
			updates["client_tag_id"] = project.ClientID
		}
		updates["project_tag_id"] = *upd.ProjectTagID
	} else if upd.ProjectTagID != nil {
		updates["project_tag_id"] = nil
	}

	// Clearing the client always clears the project.
	if upd.ClientTagID != nil && *upd.ClientTagID == nil {
		updates["client_tag_id"] = nil
		updates["project_tag_id"] = nil
	}

	if len(updates) == 0 {
		return s.taskRepo.FindByID(ctx, user.ID, taskID)
	}

	if err := s.taskRepo.Update(ctx, user.ID, taskID, updates); err != nil {
		return nil, err
	}
	return s.taskRepo.FindByID(ctx, user.ID, taskID)
}

func (s *TaskService) Complete(ctx context.Context, user *model.User, taskID string, completedAt time.Time) (*model.Task, error) {
	if err := s.taskRepo.Update(ctx, user.ID, taskID, map[string]interface{}{
		"completed":    true,
		"completed_at": completedAt,
	}); err != nil {
		return nil, err
	}
	return s.taskRepo.FindByID(ctx, user.ID, taskID)
}

// Uncomplete moves a task back to the todo bucket and drops its
// completion timestamp.
func (s *TaskService) Uncomplete(ctx context.Context, user *model.User, taskID string) (*model.Task, error) {
	if err := s.taskRepo.Update(ctx, user.ID, taskID, map[string]interface{}{
		"completed":    false,
		"completed_at": nil,
	}); err != nil {
		return nil, err
	}
	return s.taskRepo.FindByID(ctx, user.ID, taskID)
}

func (s *TaskService) Get(ctx context.Context, user *model.User, taskID string) (*model.Task, error) {
	return s.taskRepo.FindByID(ctx, user.ID, taskID)
}

func (s *TaskService) Delete(ctx context.Context, user *model.User, taskID string) error {
	return s.taskRepo.Delete(ctx, user.ID, taskID)
}

// ListWithTags fetches the user's tasks and the two tag projections,
// then joins them in memory.
func (s *TaskService) ListWithTags(ctx context.Context, user *model.User) ([]model.Task, error) {
	tasks, err := s.taskRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	clientRows, err := s.taskRepo.ClientTagRows(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	projectRows, err := s.taskRepo.ProjectTagRows(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return daylog.JoinTags(tasks, clientRows, projectRows), nil
}

// DayLogFor assembles the daily view for the given calendar day.
func (s *TaskService) DayLogFor(ctx context.Context, user *model.User, day time.Time) (*DayLog, error) {
	tasks, err := s.ListWithTags(ctx, user)
	if err != nil {
		return nil, err
	}
	todo, completed := daylog.Partition(tasks, day, s.loc)
	return &DayLog{
		Todo:             todo,
		Completed:        completed,
		TodoMinutes:      daylog.TotalMinutes(todo),
		CompletedMinutes: daylog.TotalMinutes(completed),
	}, nil
}

// historyWindowDays bounds how far back the history view reaches.
const historyWindowDays = 90

// History groups completed work by day, excluding the given day when
// non-nil. Only tasks completed inside the history window are
// fetched.
func (s *TaskService) History(ctx context.Context, user *model.User, exclude *time.Time) ([]daylog.DayGroup, error) {
	cutoff := daylog.StartOfDay(time.Now().In(s.loc), s.loc).AddDate(0, 0, -historyWindowDays)
	tasks, err := s.taskRepo.ListCompletedSince(ctx, user.ID, cutoff)
	if err != nil {
		return nil, err
	}
	clientRows, err := s.taskRepo.ClientTagRows(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	projectRows, err := s.taskRepo.ProjectTagRows(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	joined := daylog.JoinTags(tasks, clientRows, projectRows)
	return daylog.GroupByDay(joined, s.loc, exclude), nil
}
