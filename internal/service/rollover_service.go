package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"daylog/internal/daylog"
	"daylog/internal/model"
	"daylog/internal/repository"
	"daylog/internal/schedule"
)

// RolloverService materializes recurring templates into real tasks.
// Each run turns every template due on that day into an open task,
// unless an occurrence for that template is still open or was already
// completed on that calendar day. Runs are idempotent within a day,
// so the sweep can fire repeatedly.
type RolloverService struct {
	recurringRepo *repository.RecurringTaskRepository
	taskRepo      *repository.TaskRepository
	userRepo      *repository.UserRepository
	loc           *time.Location
}

func NewRolloverService(recurringRepo *repository.RecurringTaskRepository, taskRepo *repository.TaskRepository, userRepo *repository.UserRepository, loc *time.Location) *RolloverService {
	return &RolloverService{recurringRepo: recurringRepo, taskRepo: taskRepo, userRepo: userRepo, loc: loc}
}

// MaterializeAll spawns due occurrences for every known user and
// returns how many tasks were created.
func (s *RolloverService) MaterializeAll(ctx context.Context, now time.Time) (int, error) {
	users, err := s.userRepo.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	created := 0
	for _, user := range users {
		select {
		case <-ctx.Done():
			return created, ctx.Err()
		default:
		}
		n, err := s.MaterializeUser(ctx, &user, now)
		if err != nil {
			logrus.WithError(err).WithField("user", user.ID).Warn("materialize recurring tasks")
			continue
		}
		created += n
	}
	return created, nil
}

// MaterializeUser spawns due occurrences for one user.
func (s *RolloverService) MaterializeUser(ctx context.Context, user *model.User, now time.Time) (int, error) {
	templates, err := s.recurringRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return 0, err
	}
	if len(templates) == 0 {
		return 0, nil
	}

	tasks, err := s.taskRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return 0, err
	}

	day := now.In(s.loc)
	start := daylog.StartOfDay(day, s.loc)
	end := start.AddDate(0, 0, 1)

	coveredByContent := make(map[string]bool)
	for _, task := range tasks {
		if !task.Completed {
			coveredByContent[task.Content] = true
			continue
		}
		if task.CompletedAt == nil {
			continue
		}
		if at := task.CompletedAt.In(s.loc); !at.Before(start) && at.Before(end) {
			coveredByContent[task.Content] = true
		}
	}

	created := 0
	for _, tpl := range templates {
		if !schedule.DueOn(schedule.Frequency(tpl.Frequency), tpl.WeekDay, tpl.MonthDay, day) {
			continue
		}
		if coveredByContent[tpl.Title] {
			continue
		}
		task := model.Task{
			UserID:       user.ID,
			Content:      tpl.Title,
			Time:         tpl.Time,
			ClientTagID:  tpl.ClientID,
			ProjectTagID: tpl.ProjectID,
		}
		if err := s.taskRepo.Create(ctx, &task); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
