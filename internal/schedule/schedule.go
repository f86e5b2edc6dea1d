// Package schedule implements recurrence cadences for recurring task
// templates: validation, display formatting and occurrence math.
package schedule

import (
	"fmt"
	"strings"
	"time"
)

// Frequency is the recurrence cadence of a template.
type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
)

// Sunday-first, matching time.Weekday numbering.
var weekdayNames = []string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
}

// ParseFrequency normalizes a user-supplied frequency string.
func ParseFrequency(raw string) (Frequency, bool) {
	switch Frequency(strings.ToLower(strings.TrimSpace(raw))) {
	case Daily:
		return Daily, true
	case Weekly:
		return Weekly, true
	case Monthly:
		return Monthly, true
	}
	return "", false
}

// Validate reports whether the frequency and its day selector form a
// persistable schedule. Weekly requires a weekday in [0,6], monthly a
// month day in [1,31], daily requires nothing; a selector belonging
// to a different frequency must be absent. Invalid combinations are
// rejected rather than defaulted.
func Validate(freq Frequency, weekDay, monthDay *int) bool {
	switch freq {
	case Daily:
		return weekDay == nil && monthDay == nil
	case Weekly:
		return weekDay != nil && *weekDay >= 0 && *weekDay <= 6 && monthDay == nil
	case Monthly:
		return monthDay != nil && *monthDay >= 1 && *monthDay <= 31 && weekDay == nil
	}
	return false
}

// Display renders a template's cadence for lists: "Daily",
// "Weekly (Wednesday)", "Monthly (Day 5)". Missing selectors render
// as "Not set" rather than hiding the template.
func Display(freq Frequency, weekDay, monthDay *int) string {
	switch freq {
	case Daily:
		return "Daily"
	case Weekly:
		if weekDay != nil {
			return fmt.Sprintf("Weekly (%s)", WeekdayName(*weekDay))
		}
		return "Weekly (Not set)"
	case Monthly:
		if monthDay != nil {
			return fmt.Sprintf("Monthly (Day %d)", *monthDay)
		}
		return "Monthly (Not set)"
	}
	return string(freq)
}

// WeekdayName maps 0-6 to Sunday-first English names.
func WeekdayName(day int) string {
	if day < 0 || day >= len(weekdayNames) {
		return "Invalid day"
	}
	return weekdayNames[day]
}

// DueOn reports whether a template fires on the given calendar day.
// Month days past the end of a short month clamp to its last day, so
// a "day 31" template still fires in February.
func DueOn(freq Frequency, weekDay, monthDay *int, day time.Time) bool {
	switch freq {
	case Daily:
		return true
	case Weekly:
		return weekDay != nil && int(day.Weekday()) == *weekDay
	case Monthly:
		if monthDay == nil {
			return false
		}
		due := *monthDay
		if last := daysInMonth(day.Month(), day.Year()); due > last {
			due = last
		}
		return day.Day() == due
	}
	return false
}

// NextOccurrence returns the first calendar day strictly after the
// given day on which the template fires. It returns the zero time for
// schedules that would not validate.
func NextOccurrence(freq Frequency, weekDay, monthDay *int, after time.Time) time.Time {
	if !Validate(freq, weekDay, monthDay) {
		return time.Time{}
	}
	day := after.AddDate(0, 0, 1)
	// Monthly clamping makes every month fire exactly once, so 31
	// steps always reach the next occurrence for any frequency.
	for i := 0; i < 31; i++ {
		if DueOn(freq, weekDay, monthDay, day) {
			return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
		}
		day = day.AddDate(0, 0, 1)
	}
	return time.Time{}
}

func daysInMonth(month time.Month, year int) int {
	firstOfNext := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return firstOfNext.AddDate(0, 0, -1).Day()
}
