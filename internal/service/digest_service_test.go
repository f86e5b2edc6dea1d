package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daylog/internal/schedule"
	"daylog/internal/service"
)

func TestDailyDigest(t *testing.T) {
	env := newTestEnv(t)
	digestSvc := service.NewDigestService(env.taskSvc, env.recurringSvc, time.UTC)

	open, err := env.taskSvc.Create(env.ctx, env.user, "write release notes")
	require.NoError(t, err)
	half := "30m"
	halfp := &half
	_, err = env.taskSvc.Update(env.ctx, env.user, open.ID, service.TaskUpdate{Time: &halfp})
	require.NoError(t, err)

	done, err := env.taskSvc.Create(env.ctx, env.user, "standup")
	require.NoError(t, err)
	now := time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC) // a Wednesday
	_, err = env.taskSvc.Complete(env.ctx, env.user, done.ID, now)
	require.NoError(t, err)

	_, err = env.recurringSvc.Create(env.ctx, env.user, service.RecurringTaskInput{
		Title:     "midweek review",
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

	text, err := digestSvc.DailyDigest(env.ctx, *env.user, now)
	require.NoError(t, err)

	assert.Contains(t, text, "write release notes")
	assert.Contains(t, text, "30m")
	assert.Contains(t, text, "standup")
	assert.Contains(t, text, "midweek review")
	assert.Contains(t, text, "Weekly (Wednesday)")
	assert.NotContains(t, text, "friday wrap-up")
}
