package daylog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"daylog/internal/daylog"
	"daylog/internal/model"
)

func TestParseMinutes(t *testing.T) {
	testCases := []struct {
		raw      string
		expected float64
	}{
		{"30m", 30},
		{"1h", 60},
		{"1.5h", 90},
		{"0.25h", 15},
		{"45m", 45},
		{"2h", 120},
		{"", 0},
		{"soon", 0},
		{"h", 0},
		{"m", 0},
		{"an hour", 0},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, daylog.ParseMinutes(tc.raw), "input %q", tc.raw)
	}
}

func TestFormatMinutes(t *testing.T) {
	testCases := []struct {
		minutes  float64
		expected string
	}{
		{0, "0m"},
		{45, "45m"},
		{60, "1h"},
		{90, "1h 30m"},
		{120, "2h"},
		{61, "1h 1m"},
		{59.6, "1h"},
		{0.4, "0m"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, daylog.FormatMinutes(tc.minutes), "input %v", tc.minutes)
	}
}

func TestTotalMinutes(t *testing.T) {
	half := "30m"
	hourAndHalf := "1.5h"
	garbage := "whenever"
	tasks := []model.Task{
		{Time: &half},
		{Time: &hourAndHalf},
		{Time: nil},
		{Time: &garbage},
	}
	assert.Equal(t, 120.0, daylog.TotalMinutes(tasks))
	assert.Equal(t, 0.0, daylog.TotalMinutes(nil))
}
