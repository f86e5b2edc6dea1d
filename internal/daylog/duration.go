// Package daylog holds the pure aggregation logic behind the daily
// log views: duration math, todo/completed partitioning, tag joining
// and history grouping. Everything here operates on in-memory slices
// already fetched from the store; nothing does I/O.
package daylog

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	"daylog/internal/model"
)

var durationPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)(h|m)`)

// ParseMinutes converts a duration string like "1.5h" or "30m" into
// minutes. Strings that do not match the pattern contribute zero;
// malformed input is never an error.
func ParseMinutes(raw string) float64 {
	match := durationPattern.FindStringSubmatch(raw)
	if match == nil {
		return 0
	}
	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0
	}
	if match[2] == "h" {
		return value * 60
	}
	return value
}

// TotalMinutes sums the durations of all tasks. Tasks without a time
// value count as zero.
func TotalMinutes(tasks []model.Task) float64 {
	var total float64
	for _, task := range tasks {
		if task.Time == nil {
			continue
		}
		total += ParseMinutes(*task.Time)
	}
	return total
}

// FormatMinutes renders a minute count as a compact label: "0m",
// "45m", "1h", "1h 30m". Fractional minutes are rounded at render
// time.
func FormatMinutes(minutes float64) string {
	whole := int(math.Round(minutes))
	if whole == 0 {
		return "0m"
	}
	hours := whole / 60
	rest := whole % 60
	switch {
	case hours == 0:
		return fmt.Sprintf("%dm", rest)
	case rest == 0:
		return fmt.Sprintf("%dh", hours)
	default:
		return fmt.Sprintf("%dh %dm", hours, rest)
	}
}
