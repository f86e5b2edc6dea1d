package service_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daylog/internal/model"
	"daylog/internal/repository"
	"daylog/internal/service"
)

type testEnv struct {
	ctx          context.Context
	user         *model.User
	taskSvc      *service.TaskService
	recurringSvc *service.RecurringTaskService
	clientSvc    *service.ClientService
	teamSvc      *service.TeamService
	userRepo     *repository.UserRepository
	taskRepo     *repository.TaskRepository
	rolloverSvc  *service.RolloverService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := repository.NewDB(filepath.Join(t.TempDir(), "daylog_test.db"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	ctx := context.Background()
	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	recurringRepo := repository.NewRecurringTaskRepository(db)
	clientRepo := repository.NewClientRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	teamRepo := repository.NewTeamRepository(db)

	user, err := userRepo.UpsertFromTelegram(ctx, 1001, "Test User", "testuser")
	require.NoError(t, err)

	return &testEnv{
		ctx:          ctx,
		user:         user,
		taskSvc:      service.NewTaskService(taskRepo, projectRepo, time.UTC),
		recurringSvc: service.NewRecurringTaskService(recurringRepo, projectRepo),
		clientSvc:    service.NewClientService(clientRepo, projectRepo),
		teamSvc:      service.NewTeamService(teamRepo, userRepo),
		userRepo:     userRepo,
		taskRepo:     taskRepo,
		rolloverSvc:  service.NewRolloverService(recurringRepo, taskRepo, userRepo, time.UTC),
	}
}

func (e *testEnv) clientWithProject(t *testing.T, clientName, projectName string) (*model.Client, *model.Project) {
	t.Helper()
	client, err := e.clientSvc.Create(e.ctx, e.user, clientName, "🏭", "#112233", []string{"retainer"})
	require.NoError(t, err)
	project, err := e.clientSvc.AddProject(e.ctx, e.user, client.ID, projectName, nil)
	require.NoError(t, err)
	return client, project
}

func TestCreateTaskRequiresContent(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.taskSvc.Create(env.ctx, env.user, "")
	assert.Error(t, err)
}

func TestUpdateInfersClientFromProject(t *testing.T) {
	env := newTestEnv(t)
	client, project := env.clientWithProject(t, "Acme", "Website")

	task, err := env.taskSvc.Create(env.ctx, env.user, "wireframes")
	require.NoError(t, err)

	projectID := &project.ID
	updated, err := env.taskSvc.Update(env.ctx, env.user, task.ID, service.TaskUpdate{ProjectTagID: &projectID})
	require.NoError(t, err)

	require.NotNil(t, updated.ClientTagID)
	assert.Equal(t, client.ID, *updated.ClientTagID)
	require.NotNil(t, updated.ProjectTagID)
	assert.Equal(t, project.ID, *updated.ProjectTagID)
}

func TestUpdateRejectsForeignProject(t *testing.T) {
	env := newTestEnv(t)
	_, project := env.clientWithProject(t, "Acme", "Website")
	other, err := env.clientSvc.Create(env.ctx, env.user, "Globex", "", "", nil)
	require.NoError(t, err)

	task, err := env.taskSvc.Create(env.ctx, env.user, "wireframes")
	require.NoError(t, err)

	projectID := &project.ID
	clientID := &other.ID
	_, err = env.taskSvc.Update(env.ctx, env.user, task.ID, service.TaskUpdate{
		ProjectTagID: &projectID,
		ClientTagID:  &clientID,
	})
	assert.ErrorContains(t, err, "must belong")
}

func TestClearingClientClearsProject(t *testing.T) {
	env := newTestEnv(t)
	_, project := env.clientWithProject(t, "Acme", "Website")

	task, err := env.taskSvc.Create(env.ctx, env.user, "wireframes")
	require.NoError(t, err)
	projectID := &project.ID
	_, err = env.taskSvc.Update(env.ctx, env.user, task.ID, service.TaskUpdate{ProjectTagID: &projectID})
	require.NoError(t, err)

	var cleared *string
	updated, err := env.taskSvc.Update(env.ctx, env.user, task.ID, service.TaskUpdate{ClientTagID: &cleared})
	require.NoError(t, err)
	assert.Nil(t, updated.ClientTagID)
	assert.Nil(t, updated.ProjectTagID)
}

func TestDayLogBucketsAndTotals(t *testing.T) {
	env := newTestEnv(t)

	open, err := env.taskSvc.Create(env.ctx, env.user, "write report")
	require.NoError(t, err)
	half := "30m"
	halfp := &half
	_, err = env.taskSvc.Update(env.ctx, env.user, open.ID, service.TaskUpdate{Time: &halfp})
	require.NoError(t, err)

	done, err := env.taskSvc.Create(env.ctx, env.user, "standup")
	require.NoError(t, err)
	hour := "1h"
	hourp := &hour
	_, err = env.taskSvc.Update(env.ctx, env.user, done.ID, service.TaskUpdate{Time: &hourp})
	require.NoError(t, err)
	now := time.Now().UTC()
	_, err = env.taskSvc.Complete(env.ctx, env.user, done.ID, now)
	require.NoError(t, err)

	// Completed yesterday: in neither bucket today.
	old, err := env.taskSvc.Create(env.ctx, env.user, "yesterday's work")
	require.NoError(t, err)
	_, err = env.taskSvc.Complete(env.ctx, env.user, old.ID, now.AddDate(0, 0, -1))
	require.NoError(t, err)

	log, err := env.taskSvc.DayLogFor(env.ctx, env.user, now)
	require.NoError(t, err)

	require.Len(t, log.Todo, 1)
	assert.Equal(t, open.ID, log.Todo[0].ID)
	assert.Equal(t, 30.0, log.TodoMinutes)

	require.Len(t, log.Completed, 1)
	assert.Equal(t, done.ID, log.Completed[0].ID)
	assert.Equal(t, 60.0, log.CompletedMinutes)
}

func TestListWithTagsJoinsProjections(t *testing.T) {
	env := newTestEnv(t)
	client, project := env.clientWithProject(t, "Acme", "Website")

	tagged, err := env.taskSvc.Create(env.ctx, env.user, "tagged work")
	require.NoError(t, err)
	projectID := &project.ID
	_, err = env.taskSvc.Update(env.ctx, env.user, tagged.ID, service.TaskUpdate{ProjectTagID: &projectID})
	require.NoError(t, err)

	_, err = env.taskSvc.Create(env.ctx, env.user, "untagged work")
	require.NoError(t, err)

	tasks, err := env.taskSvc.ListWithTags(env.ctx, env.user)
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	byID := make(map[string]model.Task)
	for _, task := range tasks {
		byID[task.ID] = task
	}

	withTags := byID[tagged.ID]
	require.NotNil(t, withTags.ClientTag)
	assert.Equal(t, client.Name, withTags.ClientTag.Name)
	assert.Equal(t, client.Emoji, withTags.ClientTag.Emoji)
	require.NotNil(t, withTags.ProjectTag)
	assert.Equal(t, project.Name, withTags.ProjectTag.Name)
	assert.Equal(t, client.Name, withTags.ProjectTag.ClientName)

	for _, task := range tasks {
		if task.ID != tagged.ID {
			assert.Nil(t, task.ClientTag)
			assert.Nil(t, task.ProjectTag)
		}
	}
}

func TestHistoryBoundedWindowWithTags(t *testing.T) {
	env := newTestEnv(t)
	client, project := env.clientWithProject(t, "Acme", "Website")
	now := time.Now().UTC()

	recent, err := env.taskSvc.Create(env.ctx, env.user, "recent work")
	require.NoError(t, err)
	projectID := &project.ID
	_, err = env.taskSvc.Update(env.ctx, env.user, recent.ID, service.TaskUpdate{ProjectTagID: &projectID})
	require.NoError(t, err)
	_, err = env.taskSvc.Complete(env.ctx, env.user, recent.ID, now.AddDate(0, 0, -1))
	require.NoError(t, err)

	// Completed far outside the window: never fetched.
	ancient, err := env.taskSvc.Create(env.ctx, env.user, "ancient work")
	require.NoError(t, err)
	_, err = env.taskSvc.Complete(env.ctx, env.user, ancient.ID, now.AddDate(0, 0, -120))
	require.NoError(t, err)

	groups, err := env.taskSvc.History(env.ctx, env.user, nil)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Tasks, 1)
	assert.Equal(t, recent.ID, groups[0].Tasks[0].ID)
	require.NotNil(t, groups[0].Tasks[0].ClientTag)
	assert.Equal(t, client.Name, groups[0].Tasks[0].ClientTag.Name)

	// Excluding the completion day empties the view.
	yesterday := now.AddDate(0, 0, -1)
	groups, err = env.taskSvc.History(env.ctx, env.user, &yesterday)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestUncompleteClearsTimestamp(t *testing.T) {
	env := newTestEnv(t)
	task, err := env.taskSvc.Create(env.ctx, env.user, "flaky work")
	require.NoError(t, err)

	_, err = env.taskSvc.Complete(env.ctx, env.user, task.ID, time.Now())
	require.NoError(t, err)

	reopened, err := env.taskSvc.Uncomplete(env.ctx, env.user, task.ID)
	require.NoError(t, err)
	assert.False(t, reopened.Completed)
	assert.Nil(t, reopened.CompletedAt)
}
