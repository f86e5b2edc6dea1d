package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitTagSpec(t *testing.T) {
	testCases := []struct {
		raw     string
		client  string
		project string
	}{
		{"Acme / Website", "Acme", "Website"},
		{"Acme", "Acme", ""},
		{"  Acme  /  Website redesign  ", "Acme", "Website redesign"},
		{"Acme /", "Acme", ""},
		{"", "", ""},
	}
	for _, tc := range testCases {
		client, project := splitTagSpec(tc.raw)
		assert.Equal(t, tc.client, client, "input %q", tc.raw)
		assert.Equal(t, tc.project, project, "input %q", tc.raw)
	}
}

func TestParseWeekday(t *testing.T) {
	day, ok := parseWeekday("Wednesday")
	assert.True(t, ok)
	assert.Equal(t, 3, day)

	day, ok = parseWeekday("sunday")
	assert.True(t, ok)
	assert.Equal(t, 0, day)

	day, ok = parseWeekday("6")
	assert.True(t, ok)
	assert.Equal(t, 6, day)

	_, ok = parseWeekday("someday")
	assert.False(t, ok)
	_, ok = parseWeekday("7")
	assert.False(t, ok)
}

func TestShortTitle(t *testing.T) {
	assert.Equal(t, "short", shortTitle("short", 10))
	assert.Equal(t, "multi line", shortTitle("multi\nline", 20))
	assert.Equal(t, "truncate…", shortTitle("truncated well past", 9))
}
