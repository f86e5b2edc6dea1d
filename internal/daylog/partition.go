package daylog

import (
	"time"

	"daylog/internal/model"
)

// Partition splits tasks into the two daily-log buckets. Todo holds
// every incomplete task regardless of date: open tasks carry over
// across days until acted upon. Completed holds only tasks whose
// completion timestamp falls on the given calendar day in loc. The
// buckets never overlap; tasks completed on other days land in
// neither (the history view owns those).
func Partition(tasks []model.Task, day time.Time, loc *time.Location) (todo, completed []model.Task) {
	start := StartOfDay(day, loc)
	end := start.AddDate(0, 0, 1)

	for _, task := range tasks {
		switch {
		case !task.Completed:
			todo = append(todo, task)
		case task.CompletedAt != nil:
			at := task.CompletedAt.In(loc)
			if !at.Before(start) && at.Before(end) {
				completed = append(completed, task)
			}
		}
	}
	return todo, completed
}

// StartOfDay returns midnight of day's calendar date in loc.
func StartOfDay(day time.Time, loc *time.Location) time.Time {
	local := day.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
