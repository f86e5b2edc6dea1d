package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daylog/internal/schedule"
	"daylog/internal/service"
)

func intp(v int) *int { return &v }

func TestCreateRecurringRejectsInvalidSchedule(t *testing.T) {
	env := newTestEnv(t)

	testCases := []struct {
		name  string
		input service.RecurringTaskInput
	}{
		{"weekly without weekday", service.RecurringTaskInput{Title: "standup", Frequency: schedule.Weekly}},
		{"monthly without day", service.RecurringTaskInput{Title: "invoice", Frequency: schedule.Monthly}},
		{"monthly day out of range", service.RecurringTaskInput{Title: "invoice", Frequency: schedule.Monthly, MonthDay: intp(32)}},
		{"unknown frequency", service.RecurringTaskInput{Title: "x", Frequency: schedule.Frequency("yearly")}},
		{"daily with stray selector", service.RecurringTaskInput{Title: "x", Frequency: schedule.Daily, WeekDay: intp(2)}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.recurringSvc.Create(env.ctx, env.user, tc.input)
			assert.Error(t, err)
		})
	}

	// Nothing was persisted along the way.
	rows, err := env.recurringSvc.List(env.ctx, env.user)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestCreateRecurringPersistsValidSchedule(t *testing.T) {
	env := newTestEnv(t)

	task, err := env.recurringSvc.Create(env.ctx, env.user, service.RecurringTaskInput{
		Title:     "weekly review",
		Frequency: schedule.Weekly,
		WeekDay:   intp(5),
	})
	require.NoError(t, err)
	require.NotNil(t, task.WeekDay)
	assert.Equal(t, 5, *task.WeekDay)
	assert.Nil(t, task.MonthDay)

	rows, err := env.recurringSvc.List(env.ctx, env.user)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "weekly review", rows[0].Title)
}

func TestUpdateScheduleNullsOffFrequencySelector(t *testing.T) {
	env := newTestEnv(t)

	task, err := env.recurringSvc.Create(env.ctx, env.user, service.RecurringTaskInput{
		Title:     "review",
		Frequency: schedule.Weekly,
		WeekDay:   intp(1),
	})
	require.NoError(t, err)

	updated, err := env.recurringSvc.UpdateSchedule(env.ctx, env.user, task.ID, schedule.Monthly, nil, intp(15))
	require.NoError(t, err)
	assert.Nil(t, updated.WeekDay)
	require.NotNil(t, updated.MonthDay)
	assert.Equal(t, 15, *updated.MonthDay)
}

func TestRecurringListCarriesRelations(t *testing.T) {
	env := newTestEnv(t)
	client, project := env.clientWithProject(t, "Acme", "Website")

	_, err := env.recurringSvc.Create(env.ctx, env.user, service.RecurringTaskInput{
		Title:     "weekly sync",
		Frequency: schedule.Weekly,
		WeekDay:   intp(3),
		ProjectID: &project.ID,
	})
	require.NoError(t, err)

	rows, err := env.recurringSvc.List(env.ctx, env.user)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	require.NotNil(t, rows[0].ClientID)
	assert.Equal(t, client.ID, *rows[0].ClientID)
	require.NotNil(t, rows[0].ClientName)
	assert.Equal(t, "Acme", *rows[0].ClientName)
	require.NotNil(t, rows[0].ProjectName)
	assert.Equal(t, "Website", *rows[0].ProjectName)
}

func TestRolloverMaterializesDueTemplates(t *testing.T) {
	env := newTestEnv(t)

	now := time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC) // a Wednesday
	half := "30m"
	_, err := env.recurringSvc.Create(env.ctx, env.user, service.RecurringTaskInput{
		Title:     "midweek review",
		Time:      &half,
		Frequency: schedule.Weekly,
		WeekDay:   intp(3),
	})
	require.NoError(t, err)
	_, err = env.recurringSvc.Create(env.ctx, env.user, service.RecurringTaskInput{
		Title:     "friday wrap-up",
		Frequency: schedule.Weekly,
		WeekDay:   intp(5),
	})
	require.NoError(t, err)

	created, err := env.rolloverSvc.MaterializeUser(env.ctx, env.user, now)
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	tasks, err := env.taskRepo.ListByUser(env.ctx, env.user.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "midweek review", tasks[0].Content)
	require.NotNil(t, tasks[0].Time)
	assert.Equal(t, "30m", *tasks[0].Time)

	// A second run on the same day is a no-op while the task is open.
	created, err = env.rolloverSvc.MaterializeUser(env.ctx, env.user, now)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
}

func TestRolloverSkipsOccurrenceCompletedSameDay(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.recurringSvc.Create(env.ctx, env.user, service.RecurringTaskInput{
		Title:     "standup",
		Frequency: schedule.Daily,
	})
	require.NoError(t, err)

	morning := time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)
	created, err := env.rolloverSvc.MaterializeUser(env.ctx, env.user, morning)
	require.NoError(t, err)
	require.Equal(t, 1, created)

	tasks, err := env.taskRepo.ListByUser(env.ctx, env.user.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	_, err = env.taskSvc.Complete(env.ctx, env.user, tasks[0].ID, morning)
	require.NoError(t, err)

	// Later sweeps the same day must not respawn the completed
	// occurrence.
	created, err = env.rolloverSvc.MaterializeUser(env.ctx, env.user, morning.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	// The next day it is due again.
	created, err = env.rolloverSvc.MaterializeUser(env.ctx, env.user, morning.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, created)
}
