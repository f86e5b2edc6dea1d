package service

import (
	"context"
	"fmt"

	"daylog/internal/model"
	"daylog/internal/repository"
	"daylog/internal/schedule"
)

// RecurringTaskInput represents data required to create a template.
type RecurringTaskInput struct {
	Title     string
	Time      *string
	ClientID  *string
	ProjectID *string
	Frequency schedule.Frequency
	WeekDay   *int
	MonthDay  *int
}

// RecurringTaskService wraps template CRUD behind the schedule
// validation gate: nothing invalid is ever persisted.
type RecurringTaskService struct {
	repo        *repository.RecurringTaskRepository
	projectRepo *repository.ProjectRepository
}

func NewRecurringTaskService(repo *repository.RecurringTaskRepository, projectRepo *repository.ProjectRepository) *RecurringTaskService {
	return &RecurringTaskService{repo: repo, projectRepo: projectRepo}
}

func (s *RecurringTaskService) Create(ctx context.Context, user *model.User, input RecurringTaskInput) (*model.RecurringTask, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if !schedule.Validate(input.Frequency, input.WeekDay, input.MonthDay) {
		return nil, fmt.Errorf("invalid schedule for frequency %q", input.Frequency)
	}
	if input.ProjectID != nil {
		clientID, err := s.projectClient(ctx, *input.ProjectID, input.ClientID)
		if err != nil {
			return nil, err
		}
		input.ClientID = &clientID
	}

	task := model.RecurringTask{
		UserID:    user.ID,
		Title:     input.Title,
		Time:      input.Time,
		ClientID:  input.ClientID,
		ProjectID: input.ProjectID,
		Frequency: string(input.Frequency),
		WeekDay:   input.WeekDay,
		MonthDay:  input.MonthDay,
	}
	if err := s.repo.Create(ctx, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateSchedule replaces a template's cadence. The off-frequency
// selector is nulled rather than left behind.
func (s *RecurringTaskService) UpdateSchedule(ctx context.Context, user *model.User, taskID string, freq schedule.Frequency, weekDay, monthDay *int) (*model.RecurringTask, error) {
	if !schedule.Validate(freq, weekDay, monthDay) {
		return nil, fmt.Errorf("invalid schedule for frequency %q", freq)
	}
	updates := map[string]interface{}{
		"frequency": string(freq),
		"week_day":  weekDay,
		"month_day": monthDay,
	}
	if err := s.repo.Update(ctx, user.ID, taskID, updates); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, user.ID, taskID)
}

func (s *RecurringTaskService) Rename(ctx context.Context, user *model.User, taskID, title string) (*model.RecurringTask, error) {
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if err := s.repo.Update(ctx, user.ID, taskID, map[string]interface{}{"title": title}); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, user.ID, taskID)
}

func (s *RecurringTaskService) List(ctx context.Context, user *model.User) ([]model.RecurringTaskRow, error) {
	return s.repo.ListWithRelations(ctx, user.ID)
}

func (s *RecurringTaskService) Get(ctx context.Context, user *model.User, taskID string) (*model.RecurringTask, error) {
	return s.repo.FindByID(ctx, user.ID, taskID)
}

func (s *RecurringTaskService) Delete(ctx context.Context, user *model.User, taskID string) error {
	return s.repo.Delete(ctx, user.ID, taskID)
}

// projectClient resolves a project's parent client and checks it
// against an explicitly supplied client, mirroring the task write
// path.
func (s *RecurringTaskService) projectClient(ctx context.Context, projectID string, clientID *string) (string, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return "", fmt.Errorf("invalid project selected")
	}
	if clientID != nil && *clientID != project.ClientID {
		return "", fmt.Errorf("project must belong to the selected client")
	}
	return project.ClientID, nil
}
