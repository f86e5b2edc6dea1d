package daylog_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daylog/internal/daylog"
	"daylog/internal/model"
)

func TestGroupByDay(t *testing.T) {
	hour := "1h"
	half := "30m"
	tasks := []model.Task{
		{ID: "1", Completed: true, CompletedAt: ts(t, "2024-01-02T09:00:00Z"), Time: &hour},
		{ID: "2", Completed: true, CompletedAt: ts(t, "2024-01-02T15:00:00Z"), Time: &half},
		{ID: "3", Completed: true, CompletedAt: ts(t, "2024-01-05T08:00:00Z")},
		{ID: "4", Completed: false},
		{ID: "5", Completed: true}, // missing timestamp, skipped
	}

	groups := daylog.GroupByDay(tasks, time.UTC, nil)
	require.Len(t, groups, 2)

	// Newest day first.
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), groups[0].Day)
	assert.Equal(t, []string{"3"}, ids(groups[0].Tasks))
	assert.Equal(t, 0.0, groups[0].Minutes)

	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), groups[1].Day)
	assert.ElementsMatch(t, []string{"1", "2"}, ids(groups[1].Tasks))
	assert.Equal(t, 90.0, groups[1].Minutes)
}

func TestGroupByDayExcludesGivenDay(t *testing.T) {
	tasks := []model.Task{
		{ID: "1", Completed: true, CompletedAt: ts(t, "2024-01-02T09:00:00Z")},
		{ID: "2", Completed: true, CompletedAt: ts(t, "2024-01-03T09:00:00Z")},
	}
	exclude := time.Date(2024, 1, 2, 18, 0, 0, 0, time.UTC)

	groups := daylog.GroupByDay(tasks, time.UTC, &exclude)
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"2"}, ids(groups[0].Tasks))
}
