package daylog

import (
	"sort"
	"time"

	"daylog/internal/model"
)

// DayGroup is one calendar day of completed work.
type DayGroup struct {
	Day     time.Time
	Tasks   []model.Task
	Minutes float64
}

// GroupByDay buckets completed tasks by their completion calendar day
// in loc, newest day first, with a per-day minute total. Incomplete
// tasks and tasks without a completion timestamp are skipped. If
// exclude is non-nil, tasks completed on that day are omitted (the
// daily view owns that day).
func GroupByDay(tasks []model.Task, loc *time.Location, exclude *time.Time) []DayGroup {
	var excludeDay time.Time
	if exclude != nil {
		excludeDay = StartOfDay(*exclude, loc)
	}

	byDay := make(map[time.Time]*DayGroup)
	for _, task := range tasks {
		if !task.Completed || task.CompletedAt == nil {
			continue
		}
		day := StartOfDay(*task.CompletedAt, loc)
		if exclude != nil && day.Equal(excludeDay) {
			continue
		}
		group, ok := byDay[day]
		if !ok {
			group = &DayGroup{Day: day}
			byDay[day] = group
		}
		group.Tasks = append(group.Tasks, task)
		if task.Time != nil {
			group.Minutes += ParseMinutes(*task.Time)
		}
	}

	groups := make([]DayGroup, 0, len(byDay))
	for _, group := range byDay {
		groups = append(groups, *group)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Day.After(groups[j].Day)
	})
	return groups
}
