package daylog_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daylog/internal/daylog"
	"daylog/internal/model"
)

func ts(t *testing.T, value string) *time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return &parsed
}

func TestPartitionScenario(t *testing.T) {
	half := "30m"
	hour := "1h"
	tasks := []model.Task{
		{ID: "1", Completed: false, Time: &half},
		{ID: "2", Completed: true, CompletedAt: ts(t, "2024-01-01T10:00:00Z"), Time: &hour},
	}
	day := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	todo, completed := daylog.Partition(tasks, day, time.UTC)

	require.Len(t, todo, 1)
	assert.Equal(t, "1", todo[0].ID)
	assert.Equal(t, "30m", daylog.FormatMinutes(daylog.TotalMinutes(todo)))

	require.Len(t, completed, 1)
	assert.Equal(t, "2", completed[0].ID)
	assert.Equal(t, "1h", daylog.FormatMinutes(daylog.TotalMinutes(completed)))
}

func TestPartitionBucketsAreDisjoint(t *testing.T) {
	tasks := []model.Task{
		{ID: "a", Completed: false},
		{ID: "b", Completed: true, CompletedAt: ts(t, "2024-03-10T00:00:00Z")},
		{ID: "c", Completed: true, CompletedAt: ts(t, "2024-03-10T23:59:59Z")},
		{ID: "d", Completed: true, CompletedAt: ts(t, "2024-03-11T00:00:00Z")},
		{ID: "e", Completed: true, CompletedAt: ts(t, "2024-03-09T23:59:59Z")},
		{ID: "f", Completed: true}, // no timestamp, lands nowhere
	}
	day := time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC)

	todo, completed := daylog.Partition(tasks, day, time.UTC)

	seen := make(map[string]bool)
	for _, task := range todo {
		seen[task.ID] = true
	}
	for _, task := range completed {
		assert.False(t, seen[task.ID], "task %s in both buckets", task.ID)
	}

	assert.Equal(t, []string{"a"}, ids(todo))
	assert.Equal(t, []string{"b", "c"}, ids(completed))
}

func TestPartitionIncompleteTasksCarryOver(t *testing.T) {
	// Incomplete tasks show up regardless of when they were created.
	tasks := []model.Task{
		{ID: "old", Completed: false, CreatedAt: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	todo, completed := daylog.Partition(tasks, day, time.UTC)
	assert.Equal(t, []string{"old"}, ids(todo))
	assert.Empty(t, completed)
}

func TestPartitionUsesLocalCalendarDay(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 02:00 UTC on Jan 2 is still Jan 1 in New York.
	tasks := []model.Task{
		{ID: "late", Completed: true, CompletedAt: ts(t, "2024-01-02T02:00:00Z")},
	}
	day := time.Date(2024, 1, 1, 12, 0, 0, 0, loc)

	_, completed := daylog.Partition(tasks, day, loc)
	assert.Equal(t, []string{"late"}, ids(completed))

	_, completedUTC := daylog.Partition(tasks, day.In(time.UTC), time.UTC)
	assert.Empty(t, ids(completedUTC))
}

func ids(tasks []model.Task) []string {
	var out []string
	for _, task := range tasks {
		out = append(out, task.ID)
	}
	return out
}
